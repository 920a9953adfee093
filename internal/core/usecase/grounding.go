package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
)

var tracer = otel.Tracer("github.com/kirillkom/gomi-assistant/internal/core/usecase")

// GroundingObserver receives one callback per completed grounding call.
type GroundingObserver interface {
	ObserveGrounding(result *domain.GroundingResult)
}

type GroundingUseCase struct {
	index    ports.ItemIndex
	chat     ports.ChatGenerator
	cfg      domain.GroundingConfig
	observer GroundingObserver
}

func NewGroundingUseCase(
	index ports.ItemIndex,
	chat ports.ChatGenerator,
	cfg domain.GroundingConfig,
) *GroundingUseCase {
	return &GroundingUseCase{
		index: index,
		chat:  chat,
		cfg:   cfg.Normalized(),
	}
}

// WithObserver attaches a metrics observer and returns the use case.
func (uc *GroundingUseCase) WithObserver(observer GroundingObserver) *GroundingUseCase {
	uc.observer = observer
	return uc
}

func (uc *GroundingUseCase) Config() domain.GroundingConfig {
	return uc.cfg
}

// Ground never fails: index and LLM errors degrade the result instead.
func (uc *GroundingUseCase) Ground(ctx context.Context, utterance string, opts ports.GroundOptions) *domain.GroundingResult {
	start := time.Now()
	cfg := uc.cfg
	if opts.Config != nil {
		cfg = opts.Config.Normalized()
	}

	ctx, span := tracer.Start(ctx, "grounding.ground")
	defer span.End()

	var (
		candidates []domain.Candidate
		pathUsed   domain.PathUsed
	)
	if !opts.ForceFullPath && utf8.RuneCountInString(utterance) < cfg.ShortInputThreshold {
		candidates = uc.runPathA(ctx, utterance, cfg)
		pathUsed = domain.PathAOnly
	} else {
		candidates, pathUsed = uc.runFullPath(ctx, utterance, cfg)
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}

	level, ambiguous := evaluateConfidence(candidates, cfg)
	result := &domain.GroundingResult{
		Candidates:      candidates,
		IsAmbiguous:     ambiguous,
		ConfidenceLevel: level,
		PathUsed:        pathUsed,
	}
	if len(result.Candidates) > 0 {
		result.PrimaryCandidate = &result.Candidates[0]
	}
	result.ExecutionTimeMS = float64(time.Since(start).Microseconds()) / 1000.0

	span.SetAttributes(
		attribute.String("grounding.path_used", string(result.PathUsed)),
		attribute.String("grounding.confidence", string(result.ConfidenceLevel)),
		attribute.Bool("grounding.ambiguous", result.IsAmbiguous),
		attribute.Int("grounding.candidates", len(result.Candidates)),
	)
	slog.Debug("grounding_completed",
		"path_used", result.PathUsed,
		"confidence", result.ConfidenceLevel,
		"ambiguous", result.IsAmbiguous,
		"candidates", len(result.Candidates),
		"duration_ms", result.ExecutionTimeMS,
	)
	if uc.observer != nil {
		uc.observer.ObserveGrounding(result)
	}
	return result
}

// runFullPath runs both paths side by side; the outcome matches running A then B.
func (uc *GroundingUseCase) runFullPath(ctx context.Context, utterance string, cfg domain.GroundingConfig) ([]domain.Candidate, domain.PathUsed) {
	var (
		pathA []domain.Candidate
		pathB []domain.Candidate
		group errgroup.Group
	)
	group.Go(func() error {
		pathA = uc.runPathA(ctx, utterance, cfg)
		return nil
	})
	group.Go(func() error {
		pathB = uc.runPathBGuarded(ctx, utterance, cfg)
		return nil
	})
	_ = group.Wait()

	if len(pathB) == 0 {
		return pathA, domain.PathDegraded
	}
	return mergeCandidates(pathA, pathB), domain.PathBoth
}

func (uc *GroundingUseCase) runPathBGuarded(ctx context.Context, utterance string, cfg domain.GroundingConfig) (out []domain.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("path_b_panic", "panic", fmt.Sprint(r))
			out = nil
		}
	}()
	return uc.runPathB(ctx, utterance, cfg)
}

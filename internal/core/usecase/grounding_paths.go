package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

func (uc *GroundingUseCase) runPathA(ctx context.Context, utterance string, cfg domain.GroundingConfig) (out []domain.Candidate) {
	ctx, span := tracer.Start(ctx, "grounding.path_a")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, "index query panicked")
			slog.Error("path_a_panic", "panic", fmt.Sprint(r))
			out = []domain.Candidate{}
		}
	}()

	hits, err := uc.index.Query(ctx, utterance, cfg.PathATopK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "index query failed")
		slog.Warn("path_a_failed", "error", err)
		return []domain.Candidate{}
	}
	span.SetAttributes(attribute.Int("grounding.hits", len(hits)))
	return candidatesFromHits(hits, cfg.ItemNameKey, domain.SourcePathA)
}

func (uc *GroundingUseCase) runPathB(ctx context.Context, utterance string, cfg domain.GroundingConfig) []domain.Candidate {
	ctx, span := tracer.Start(ctx, "grounding.path_b")
	defer span.End()

	phrases, err := uc.extractPhrases(ctx, utterance, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "phrase extraction failed")
		slog.Warn("path_b_failed", "error", err)
		return nil
	}
	span.SetAttributes(attribute.Int("grounding.phrases", len(phrases)))
	if len(phrases) == 0 {
		return nil
	}

	// Indexed by phrase so that dedup sees phrase order, not completion order.
	perPhrase := make([][]domain.Candidate, len(phrases))
	var group errgroup.Group
	group.SetLimit(cfg.PhraseQueryConcurrency)
	for i, phrase := range phrases {
		group.Go(func() error {
			perPhrase[i] = uc.queryPhrase(ctx, phrase, cfg)
			return nil
		})
	}
	_ = group.Wait()

	var all []domain.Candidate
	for _, candidates := range perPhrase {
		all = append(all, candidates...)
	}
	return bestPerItem(all, cfg.PathBTopK)
}

func (uc *GroundingUseCase) queryPhrase(ctx context.Context, phrase string, cfg domain.GroundingConfig) (out []domain.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("phrase_query_panic", "phrase", phrase, "panic", fmt.Sprint(r))
			out = nil
		}
	}()

	hits, err := uc.index.Query(ctx, phrase, cfg.PathBTopK)
	if err != nil {
		slog.Warn("phrase_query_failed", "phrase", phrase, "error", err)
		return nil
	}
	return candidatesFromHits(hits, cfg.ItemNameKey, domain.SourcePathBPrefix+phrase)
}

func candidatesFromHits(hits []domain.IndexHit, itemNameKey, source string) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		out = append(out, domain.Candidate{
			ItemName:   domain.ItemRecord(hit.Record).String(itemNameKey),
			Similarity: 1.0 - hit.Distance,
			Source:     source,
			Metadata:   hit.Record,
		})
	}
	return out
}

// bestPerItem keeps the highest-scoring candidate per item name (first seen on
// ties), sorts descending and truncates to limit.
func bestPerItem(candidates []domain.Candidate, limit int) []domain.Candidate {
	index := make(map[string]int, len(candidates))
	unique := make([]domain.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		pos, seen := index[candidate.ItemName]
		if !seen {
			index[candidate.ItemName] = len(unique)
			unique = append(unique, candidate)
			continue
		}
		if candidate.Similarity > unique[pos].Similarity {
			unique[pos] = candidate
		}
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Similarity > unique[j].Similarity
	})
	if limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

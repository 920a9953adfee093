package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
)

const longUtterance = "古くなった冷蔵庫と電子レンジを捨てたいのですがどうすればいいですか"

func TestGroundShortInputUsesPathAOnly(t *testing.T) {
	index := newItemIndexFake()
	index.hits["冷蔵庫"] = []domain.IndexHit{item("冷蔵庫", 0.2), item("冷凍庫", 0.5)}
	chat := &chatFake{response: `{"candidates":["冷蔵庫"]}`}

	uc := NewGroundingUseCase(index, chat, domain.DefaultGroundingConfig())
	result := uc.Ground(context.Background(), "冷蔵庫", ports.GroundOptions{})

	require.Equal(t, domain.PathAOnly, result.PathUsed)
	require.Equal(t, 0, chat.callCount())
	require.NotNil(t, result.PrimaryCandidate)
	require.Equal(t, "冷蔵庫", result.PrimaryCandidate.ItemName)
	require.Equal(t, domain.SourcePathA, result.PrimaryCandidate.Source)
	require.InDelta(t, 0.8, result.PrimaryCandidate.Similarity, 1e-9)
	require.Equal(t, domain.ConfidenceHigh, result.ConfidenceLevel)
	require.False(t, result.IsAmbiguous)
	require.Same(t, &result.Candidates[0], result.PrimaryCandidate)
	require.GreaterOrEqual(t, result.ExecutionTimeMS, 0.0)
}

func TestGroundLongInputMergesBothPaths(t *testing.T) {
	index := newItemIndexFake()
	index.hits[longUtterance] = []domain.IndexHit{item("冷蔵庫", 0.30), item("ラジオ", 0.60)}
	index.hits["冷蔵庫"] = []domain.IndexHit{item("冷蔵庫", 0.35)}
	index.hits["電子レンジ"] = []domain.IndexHit{item("電子レンジ", 0.35)}
	chat := &chatFake{response: `{"candidates":["冷蔵庫","電子レンジ"]}`}

	uc := NewGroundingUseCase(index, chat, domain.DefaultGroundingConfig())
	result := uc.Ground(context.Background(), longUtterance, ports.GroundOptions{})

	require.Equal(t, domain.PathBoth, result.PathUsed)
	require.Len(t, result.Candidates, 3)
	require.Equal(t, "冷蔵庫", result.Candidates[0].ItemName)
	require.Equal(t, domain.SourceBoth, result.Candidates[0].Source)
	require.InDelta(t, 0.775, result.Candidates[0].Similarity, 1e-9)
	require.Equal(t, "電子レンジ", result.Candidates[1].ItemName)
	require.Equal(t, "path_b:電子レンジ", result.Candidates[1].Source)
	require.Equal(t, "ラジオ", result.Candidates[2].ItemName)
	require.Equal(t, domain.ConfidenceHigh, result.ConfidenceLevel)
	require.False(t, result.IsAmbiguous)
}

func TestGroundForceFullPathOnShortInput(t *testing.T) {
	index := newItemIndexFake()
	index.hits["冷蔵庫"] = []domain.IndexHit{item("冷蔵庫", 0.2)}
	chat := &chatFake{response: `{"candidates":["冷蔵庫"]}`}

	uc := NewGroundingUseCase(index, chat, domain.DefaultGroundingConfig())
	result := uc.Ground(context.Background(), "冷蔵庫", ports.GroundOptions{ForceFullPath: true})

	require.Equal(t, domain.PathBoth, result.PathUsed)
	require.Equal(t, 1, chat.callCount())
	require.Len(t, result.Candidates, 1)
	require.Equal(t, domain.SourceBoth, result.Candidates[0].Source)
	require.InDelta(t, 0.9, result.Candidates[0].Similarity, 1e-9)
}

func TestGroundDegradesWhenExtractionFails(t *testing.T) {
	index := newItemIndexFake()
	index.hits[longUtterance] = []domain.IndexHit{item("冷蔵庫", 0.3)}
	chat := &chatFake{err: errors.New("llm unavailable")}

	uc := NewGroundingUseCase(index, chat, domain.DefaultGroundingConfig())
	result := uc.Ground(context.Background(), longUtterance, ports.GroundOptions{})

	require.Equal(t, domain.PathDegraded, result.PathUsed)
	require.Len(t, result.Candidates, 1)
	require.Equal(t, domain.SourcePathA, result.Candidates[0].Source)
	require.InDelta(t, 0.7, result.Candidates[0].Similarity, 1e-9)
}

func TestGroundDegradesWhenExtractionTimesOut(t *testing.T) {
	index := newItemIndexFake()
	index.hits[longUtterance] = []domain.IndexHit{item("冷蔵庫", 0.3)}
	chat := &chatFake{block: true}

	cfg := domain.DefaultGroundingConfig()
	cfg.ExtractionTimeout = 20 * time.Millisecond
	uc := NewGroundingUseCase(index, chat, cfg)
	result := uc.Ground(context.Background(), longUtterance, ports.GroundOptions{})

	require.Equal(t, domain.PathDegraded, result.PathUsed)
	require.Len(t, result.Candidates, 1)
}

func TestGroundDegradesWhenPathBPanics(t *testing.T) {
	index := newItemIndexFake()
	index.hits[longUtterance] = []domain.IndexHit{item("冷蔵庫", 0.3)}
	chat := &chatFake{panicMsg: "boom"}

	uc := NewGroundingUseCase(index, chat, domain.DefaultGroundingConfig())
	result := uc.Ground(context.Background(), longUtterance, ports.GroundOptions{})

	require.Equal(t, domain.PathDegraded, result.PathUsed)
	require.Len(t, result.Candidates, 1)
}

func TestGroundEmptyUtteranceIsSafe(t *testing.T) {
	index := newItemIndexFake()
	uc := NewGroundingUseCase(index, nil, domain.DefaultGroundingConfig())

	result := uc.Ground(context.Background(), "", ports.GroundOptions{})

	require.Equal(t, domain.PathAOnly, result.PathUsed)
	require.NotNil(t, result.Candidates)
	require.Empty(t, result.Candidates)
	require.Nil(t, result.PrimaryCandidate)
	require.Equal(t, domain.ConfidenceLow, result.ConfidenceLevel)
	require.False(t, result.IsAmbiguous)
	require.True(t, index.queried(""))
}

func TestGroundSwallowsPathAFailure(t *testing.T) {
	index := newItemIndexFake()
	index.errs["冷蔵庫"] = errIndexDown
	uc := NewGroundingUseCase(index, nil, domain.DefaultGroundingConfig())

	result := uc.Ground(context.Background(), "冷蔵庫", ports.GroundOptions{})

	require.Equal(t, domain.PathAOnly, result.PathUsed)
	require.Empty(t, result.Candidates)
	require.Equal(t, domain.ConfidenceLow, result.ConfidenceLevel)
}

func TestGroundWithoutChatGeneratorDegrades(t *testing.T) {
	index := newItemIndexFake()
	index.hits[longUtterance] = []domain.IndexHit{item("冷蔵庫", 0.3)}
	uc := NewGroundingUseCase(index, nil, domain.DefaultGroundingConfig())

	result := uc.Ground(context.Background(), longUtterance, ports.GroundOptions{})

	require.Equal(t, domain.PathDegraded, result.PathUsed)
}

func TestGroundThresholdCountsRunesNotBytes(t *testing.T) {
	index := newItemIndexFake()
	chat := &chatFake{response: `{"candidates":[]}`}
	uc := NewGroundingUseCase(index, chat, domain.DefaultGroundingConfig())

	// 19 runes, far more than 20 bytes.
	short := "ごみの出し方を教えてくださいませんか？"
	result := uc.Ground(context.Background(), short, ports.GroundOptions{})
	require.Equal(t, domain.PathAOnly, result.PathUsed)

	result = uc.Ground(context.Background(), short+"。", ports.GroundOptions{})
	require.Equal(t, domain.PathDegraded, result.PathUsed)
}

type observerFake struct {
	results []*domain.GroundingResult
}

func (f *observerFake) ObserveGrounding(result *domain.GroundingResult) {
	f.results = append(f.results, result)
}

func TestGroundNotifiesObserver(t *testing.T) {
	index := newItemIndexFake()
	observer := &observerFake{}
	uc := NewGroundingUseCase(index, nil, domain.DefaultGroundingConfig()).WithObserver(observer)

	result := uc.Ground(context.Background(), "電池", ports.GroundOptions{})

	require.Len(t, observer.results, 1)
	require.Same(t, result, observer.results[0])
}

func TestNewGroundingUseCaseNormalizesConfig(t *testing.T) {
	uc := NewGroundingUseCase(newItemIndexFake(), nil, domain.GroundingConfig{PathATopK: 7})
	cfg := uc.Config()

	require.Equal(t, 7, cfg.PathATopK)
	require.Equal(t, 20, cfg.ShortInputThreshold)
	require.Equal(t, "品名", cfg.ItemNameKey)
	require.Equal(t, 5*time.Second, cfg.ExtractionTimeout)
}

func TestGroundDegradesWhenPathAPanics(t *testing.T) {
	index := newItemIndexFake()
	index.panics[longUtterance] = true
	chat := &chatFake{err: errors.New("llm unavailable")}

	uc := NewGroundingUseCase(index, chat, domain.DefaultGroundingConfig())
	result := uc.Ground(context.Background(), longUtterance, ports.GroundOptions{})

	require.Equal(t, domain.PathDegraded, result.PathUsed)
	require.NotNil(t, result.Candidates)
	require.Empty(t, result.Candidates)
	require.Nil(t, result.PrimaryCandidate)
	require.Equal(t, domain.ConfidenceLow, result.ConfidenceLevel)
}

func TestGroundKeepsPathBWhenPathAPanics(t *testing.T) {
	index := newItemIndexFake()
	index.panics[longUtterance] = true
	index.hits["電子レンジ"] = []domain.IndexHit{item("電子レンジ", 0.4)}
	chat := &chatFake{response: `{"candidates":["電子レンジ"]}`}

	uc := NewGroundingUseCase(index, chat, domain.DefaultGroundingConfig())
	result := uc.Ground(context.Background(), longUtterance, ports.GroundOptions{})

	require.Equal(t, domain.PathBoth, result.PathUsed)
	require.Len(t, result.Candidates, 1)
	require.Equal(t, "電子レンジ", result.Candidates[0].ItemName)
}

func TestGroundShortInputSurvivesIndexPanic(t *testing.T) {
	index := newItemIndexFake()
	index.panics["冷蔵庫"] = true

	uc := NewGroundingUseCase(index, &chatFake{}, domain.DefaultGroundingConfig())
	result := uc.Ground(context.Background(), "冷蔵庫", ports.GroundOptions{})

	require.Equal(t, domain.PathAOnly, result.PathUsed)
	require.Empty(t, result.Candidates)
	require.Equal(t, domain.ConfidenceLow, result.ConfidenceLevel)
}

func TestGroundPerCallConfigAppliesToThatCallOnly(t *testing.T) {
	index := newItemIndexFake()
	index.hits["冷蔵庫"] = []domain.IndexHit{item("冷蔵庫", 0.2)}
	chat := &chatFake{response: `{"candidates":["冷蔵庫"]}`}
	uc := NewGroundingUseCase(index, chat, domain.DefaultGroundingConfig())

	override := domain.DefaultGroundingConfig()
	override.ShortInputThreshold = 2
	override.ConfidenceHigh = 0.95
	overridden := uc.Ground(context.Background(), "冷蔵庫", ports.GroundOptions{Config: &override})

	require.Equal(t, domain.PathBoth, overridden.PathUsed)
	require.Equal(t, 1, chat.callCount())
	require.InDelta(t, 0.9, overridden.Candidates[0].Similarity, 1e-9)
	require.Equal(t, domain.ConfidenceMedium, overridden.ConfidenceLevel)

	plain := uc.Ground(context.Background(), "冷蔵庫", ports.GroundOptions{})

	require.Equal(t, domain.PathAOnly, plain.PathUsed)
	require.Equal(t, 1, chat.callCount())
	require.Equal(t, domain.ConfidenceHigh, plain.ConfidenceLevel)
	require.Equal(t, 20, uc.Config().ShortInputThreshold)
}

func TestGroundPerCallConfigIsNormalized(t *testing.T) {
	index := newItemIndexFake()
	index.hits["冷蔵庫"] = []domain.IndexHit{item("冷蔵庫", 0.2), item("冷凍庫", 0.3), item("食器", 0.4), item("鍋", 0.5)}

	uc := NewGroundingUseCase(index, &chatFake{}, domain.DefaultGroundingConfig())
	result := uc.Ground(context.Background(), "冷蔵庫", ports.GroundOptions{Config: &domain.GroundingConfig{}})

	require.Equal(t, domain.PathAOnly, result.PathUsed)
	require.Len(t, result.Candidates, 3)
	require.Equal(t, []int{3}, index.topKs)
}

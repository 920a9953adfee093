package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

func TestFormatGroundingResult(t *testing.T) {
	candidates := []domain.Candidate{
		{ItemName: "冷蔵庫", Similarity: 0.8123, Source: domain.SourceBoth, Metadata: map[string]any{"出し方": "家電リサイクル"}},
		{ItemName: "冷凍庫", Similarity: 0.5, Source: domain.SourcePathA},
	}
	result := &domain.GroundingResult{
		Candidates:      candidates,
		IsAmbiguous:     false,
		ConfidenceLevel: domain.ConfidenceHigh,
		ExecutionTimeMS: 12.346,
		PathUsed:        domain.PathBoth,
	}
	result.PrimaryCandidate = &result.Candidates[0]

	out := FormatGroundingResult(result)

	require.True(t, strings.HasPrefix(out, strings.Repeat("=", 60)+"\n"))
	require.True(t, strings.HasSuffix(out, strings.Repeat("=", 60)+"\n"))
	require.Contains(t, out, "Execution time: 12.35ms")
	require.Contains(t, out, "Path used: both")
	require.Contains(t, out, "Confidence: high")
	require.Contains(t, out, "Ambiguous: false")
	require.Contains(t, out, "1. 冷蔵庫 (score: 0.812, source: both)")
	require.Contains(t, out, "2. 冷凍庫 (score: 0.500, source: path_a)")
	require.Contains(t, out, "Disposal: 家電リサイクル")
}

func TestFormatGroundingResultWithoutDisposal(t *testing.T) {
	result := &domain.GroundingResult{
		Candidates:      []domain.Candidate{{ItemName: "謎の物体", Similarity: 0.1, Source: domain.SourcePathA}},
		ConfidenceLevel: domain.ConfidenceLow,
		PathUsed:        domain.PathAOnly,
	}
	result.PrimaryCandidate = &result.Candidates[0]

	require.Contains(t, FormatGroundingResult(result), "Disposal: N/A")
}

func TestFormatGroundingResultEmpty(t *testing.T) {
	out := FormatGroundingResult(&domain.GroundingResult{
		Candidates:      []domain.Candidate{},
		ConfidenceLevel: domain.ConfidenceLow,
		PathUsed:        domain.PathDegraded,
	})

	require.Contains(t, out, "Candidates (0):")
	require.NotContains(t, out, "Primary:")
}

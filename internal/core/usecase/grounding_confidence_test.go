package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

func TestEvaluateConfidenceLevels(t *testing.T) {
	cfg := domain.DefaultGroundingConfig()
	tests := []struct {
		name  string
		top   float64
		level domain.ConfidenceLevel
	}{
		{name: "high boundary", top: 0.45, level: domain.ConfidenceHigh},
		{name: "just below high", top: 0.44999, level: domain.ConfidenceMedium},
		{name: "medium boundary", top: 0.30, level: domain.ConfidenceMedium},
		{name: "just below medium", top: 0.29999, level: domain.ConfidenceLow},
		{name: "negative", top: -0.1, level: domain.ConfidenceLow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			level, ambiguous := evaluateConfidence([]domain.Candidate{candidate("x", tc.top, domain.SourcePathA)}, cfg)
			require.Equal(t, tc.level, level)
			require.False(t, ambiguous)
		})
	}
}

func TestEvaluateConfidenceEmpty(t *testing.T) {
	level, ambiguous := evaluateConfidence(nil, domain.DefaultGroundingConfig())

	require.Equal(t, domain.ConfidenceLow, level)
	require.False(t, ambiguous)
}

func TestEvaluateConfidenceAmbiguity(t *testing.T) {
	cfg := domain.DefaultGroundingConfig()

	level, ambiguous := evaluateConfidence([]domain.Candidate{
		candidate("a", 0.50, domain.SourcePathA),
		candidate("b", 0.47, domain.SourcePathA),
	}, cfg)
	require.Equal(t, domain.ConfidenceHigh, level)
	require.True(t, ambiguous)

	_, ambiguous = evaluateConfidence([]domain.Candidate{
		candidate("a", 0.50, domain.SourcePathA),
		candidate("b", 0.40, domain.SourcePathA),
	}, cfg)
	require.False(t, ambiguous)
}

func TestEvaluateConfidenceUsesConfiguredThresholds(t *testing.T) {
	cfg := domain.DefaultGroundingConfig()
	cfg.ConfidenceHigh = 0.9
	cfg.ConfidenceLow = 0.6
	cfg.AmbiguityThreshold = 0.2

	level, ambiguous := evaluateConfidence([]domain.Candidate{
		candidate("a", 0.8, domain.SourcePathA),
		candidate("b", 0.65, domain.SourcePathA),
	}, cfg)
	require.Equal(t, domain.ConfidenceMedium, level)
	require.True(t, ambiguous)
}

package usecase

import "github.com/kirillkom/gomi-assistant/internal/core/domain"

// evaluateConfidence expects candidates sorted by descending similarity.
func evaluateConfidence(candidates []domain.Candidate, cfg domain.GroundingConfig) (domain.ConfidenceLevel, bool) {
	if len(candidates) == 0 {
		return domain.ConfidenceLow, false
	}

	top := candidates[0].Similarity
	level := domain.ConfidenceLow
	switch {
	case top >= cfg.ConfidenceHigh:
		level = domain.ConfidenceHigh
	case top >= cfg.ConfidenceLow:
		level = domain.ConfidenceMedium
	}

	ambiguous := len(candidates) >= 2 && top-candidates[1].Similarity < cfg.AmbiguityThreshold
	return level, ambiguous
}

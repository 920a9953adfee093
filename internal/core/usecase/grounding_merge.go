package usecase

import (
	"sort"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

const dualPathBonus = 0.1

type mergeEntry struct {
	candidate domain.Candidate
	scores    []float64
	sources   int
}

// mergeCandidates unions Path A and Path B candidates by item name. Items found
// by both paths get the mean of their scores plus a bonus and source "both".
// The inputs are left untouched.
func mergeCandidates(pathA, pathB []domain.Candidate) []domain.Candidate {
	entries := make(map[string]*mergeEntry, len(pathA)+len(pathB))
	order := make([]string, 0, len(pathA)+len(pathB))

	for _, candidate := range pathA {
		if _, seen := entries[candidate.ItemName]; !seen {
			order = append(order, candidate.ItemName)
		}
		// A repeated Path A item replaces the earlier one in place.
		entries[candidate.ItemName] = &mergeEntry{
			candidate: candidate,
			scores:    []float64{candidate.Similarity},
			sources:   1,
		}
	}

	for _, candidate := range pathB {
		if entry, seen := entries[candidate.ItemName]; seen {
			entry.scores = append(entry.scores, candidate.Similarity)
			entry.sources++
			continue
		}
		order = append(order, candidate.ItemName)
		entries[candidate.ItemName] = &mergeEntry{
			candidate: candidate,
			scores:    []float64{candidate.Similarity},
			sources:   1,
		}
	}

	merged := make([]domain.Candidate, 0, len(order))
	for _, name := range order {
		entry := entries[name]
		out := entry.candidate

		score := entry.scores[0]
		if entry.sources > 1 {
			score = mean(entry.scores) + dualPathBonus
			out.Source = domain.SourceBoth
		}
		if score > 1.0 {
			score = 1.0
		}
		out.Similarity = score
		merged = append(merged, out)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Similarity > merged[j].Similarity
	})
	return merged
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

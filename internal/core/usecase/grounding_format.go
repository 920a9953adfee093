package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

const (
	formatRule        = "============================================================"
	disposalMethodKey = "出し方"
	remarksKey        = "備考"
)

// FormatGroundingResult renders a result for logs and the command line.
func FormatGroundingResult(result *domain.GroundingResult) string {
	if result == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(formatRule + "\n")
	b.WriteString("Grounding result\n")
	b.WriteString(formatRule + "\n")
	fmt.Fprintf(&b, "Execution time: %.2fms\n", result.ExecutionTimeMS)
	fmt.Fprintf(&b, "Path used: %s\n", result.PathUsed)
	fmt.Fprintf(&b, "Confidence: %s\n", result.ConfidenceLevel)
	fmt.Fprintf(&b, "Ambiguous: %t\n", result.IsAmbiguous)

	fmt.Fprintf(&b, "\nCandidates (%d):\n", len(result.Candidates))
	for i, candidate := range result.Candidates {
		fmt.Fprintf(&b, "  %d. %s (score: %.3f, source: %s)\n",
			i+1, candidate.ItemName, candidate.Similarity, candidate.Source)
	}

	if primary := result.PrimaryCandidate; primary != nil {
		disposal := domain.ItemRecord(primary.Metadata).String(disposalMethodKey)
		if disposal == "" {
			disposal = "N/A"
		}
		fmt.Fprintf(&b, "\nPrimary: %s\n", primary.ItemName)
		fmt.Fprintf(&b, "Disposal: %s\n", disposal)
	}
	b.WriteString(formatRule + "\n")
	return b.String()
}

package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

// GroundingMetrics records the outcome of every grounding call.
type GroundingMetrics struct {
	service string

	groundingTotal      *prometheus.CounterVec
	groundingDuration   *prometheus.HistogramVec
	groundingCandidates *prometheus.HistogramVec
	groundingAmbiguous  *prometheus.CounterVec
	groundingTopScore   *prometheus.HistogramVec
}

func NewGroundingMetrics(registry prometheus.Registerer, service string) *GroundingMetrics {
	groundingTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gomi",
			Subsystem: "grounding",
			Name:      "requests_total",
			Help:      "Total grounding calls by path and confidence.",
		},
		[]string{"service", "path_used", "confidence"},
	)
	groundingDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gomi",
			Subsystem: "grounding",
			Name:      "duration_seconds",
			Help:      "Grounding duration in seconds by path.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"service", "path_used"},
	)
	groundingCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gomi",
			Subsystem: "grounding",
			Name:      "candidates",
			Help:      "Distribution of returned candidates per grounding call.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service", "path_used"},
	)
	groundingAmbiguous := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gomi",
			Subsystem: "grounding",
			Name:      "ambiguous_total",
			Help:      "Total grounding calls whose top two candidates were too close.",
		},
		[]string{"service"},
	)
	groundingTopScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gomi",
			Subsystem: "grounding",
			Name:      "top_similarity",
			Help:      "Similarity of the primary candidate.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.45, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service", "source"},
	)

	registry.MustRegister(
		groundingTotal,
		groundingDuration,
		groundingCandidates,
		groundingAmbiguous,
		groundingTopScore,
	)

	return &GroundingMetrics{
		service:             service,
		groundingTotal:      groundingTotal,
		groundingDuration:   groundingDuration,
		groundingCandidates: groundingCandidates,
		groundingAmbiguous:  groundingAmbiguous,
		groundingTopScore:   groundingTopScore,
	}
}

func (m *GroundingMetrics) ObserveGrounding(result *domain.GroundingResult) {
	if m == nil || result == nil {
		return
	}
	path := string(result.PathUsed)
	m.groundingTotal.WithLabelValues(m.service, path, string(result.ConfidenceLevel)).Inc()
	m.groundingDuration.WithLabelValues(m.service, path).Observe(result.ExecutionTimeMS / 1000)
	m.groundingCandidates.WithLabelValues(m.service, path).Observe(float64(len(result.Candidates)))
	if result.IsAmbiguous {
		m.groundingAmbiguous.WithLabelValues(m.service).Inc()
	}
	if primary := result.PrimaryCandidate; primary != nil {
		m.groundingTopScore.WithLabelValues(m.service, sourceLabel(primary.Source)).Observe(primary.Similarity)
	}
}

// sourceLabel folds "path_b:<phrase>" into "path_b" to bound label cardinality.
func sourceLabel(source string) string {
	if strings.HasPrefix(source, domain.SourcePathBPrefix) {
		return "path_b"
	}
	return source
}

package domain

import "time"

const (
	SourcePathA       = "path_a"
	SourcePathBPrefix = "path_b:"
	SourceBoth        = "both"
)

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

type PathUsed string

const (
	PathAOnly    PathUsed = "path_a_only"
	PathBoth     PathUsed = "both"
	PathDegraded PathUsed = "degraded"
)

// Candidate is a scored hypothesis that an utterance refers to a catalog item.
// Similarity is not clamped before merge and may fall outside [0,1].
type Candidate struct {
	ItemName   string         `json:"item_name"`
	Similarity float64        `json:"similarity"`
	Source     string         `json:"source"`
	Metadata   map[string]any `json:"metadata"`
}

type GroundingResult struct {
	Candidates       []Candidate     `json:"candidates"`
	PrimaryCandidate *Candidate      `json:"primary_candidate"`
	IsAmbiguous      bool            `json:"is_ambiguous"`
	ConfidenceLevel  ConfidenceLevel `json:"confidence_level"`
	ExecutionTimeMS  float64         `json:"execution_time_ms"`
	PathUsed         PathUsed        `json:"path_used"`
}

// IndexHit is one nearest-neighbour record returned by the item index.
type IndexHit struct {
	Record   map[string]any
	Distance float64
}

// GroundingConfig holds every tunable of the grounding engine. It is passed by
// value so a caller can override fields for a single call.
type GroundingConfig struct {
	PathATopK              int           `json:"path_a_top_k" yaml:"path_a_top_k"`
	PathBMaxCandidates     int           `json:"path_b_max_candidates" yaml:"path_b_max_candidates"`
	PathBTopK              int           `json:"path_b_top_k" yaml:"path_b_top_k"`
	ExtractionTimeout      time.Duration `json:"extraction_timeout" yaml:"extraction_timeout"`
	ExtractionTemperature  float64       `json:"extraction_temperature" yaml:"extraction_temperature"`
	ShortInputThreshold    int           `json:"short_input_threshold" yaml:"short_input_threshold"`
	ConfidenceHigh         float64       `json:"confidence_high" yaml:"confidence_high"`
	ConfidenceLow          float64       `json:"confidence_low" yaml:"confidence_low"`
	AmbiguityThreshold     float64       `json:"ambiguity_threshold" yaml:"ambiguity_threshold"`
	ItemNameKey            string        `json:"item_name_key" yaml:"item_name_key"`
	PhraseQueryConcurrency int           `json:"phrase_query_concurrency" yaml:"phrase_query_concurrency"`
}

func DefaultGroundingConfig() GroundingConfig {
	return GroundingConfig{
		PathATopK:              3,
		PathBMaxCandidates:     5,
		PathBTopK:              3,
		ExtractionTimeout:      5 * time.Second,
		ExtractionTemperature:  0.1,
		ShortInputThreshold:    20,
		ConfidenceHigh:         0.45,
		ConfidenceLow:          0.30,
		AmbiguityThreshold:     0.05,
		ItemNameKey:            "品名",
		PhraseQueryConcurrency: 4,
	}
}

// Normalized replaces unset or out-of-range fields with defaults.
func (c GroundingConfig) Normalized() GroundingConfig {
	out := c
	def := DefaultGroundingConfig()

	if out.PathATopK <= 0 {
		out.PathATopK = def.PathATopK
	}
	if out.PathBMaxCandidates <= 0 {
		out.PathBMaxCandidates = def.PathBMaxCandidates
	}
	if out.PathBTopK <= 0 {
		out.PathBTopK = def.PathBTopK
	}
	if out.ExtractionTimeout <= 0 {
		out.ExtractionTimeout = def.ExtractionTimeout
	}
	if out.ExtractionTemperature < 0 {
		out.ExtractionTemperature = def.ExtractionTemperature
	}
	if out.ShortInputThreshold <= 0 {
		out.ShortInputThreshold = def.ShortInputThreshold
	}
	if out.ConfidenceHigh <= 0 {
		out.ConfidenceHigh = def.ConfidenceHigh
	}
	if out.ConfidenceLow <= 0 {
		out.ConfidenceLow = def.ConfidenceLow
	}
	if out.ConfidenceLow > out.ConfidenceHigh {
		out.ConfidenceLow = out.ConfidenceHigh
	}
	if out.AmbiguityThreshold <= 0 {
		out.AmbiguityThreshold = def.AmbiguityThreshold
	}
	if out.ItemNameKey == "" {
		out.ItemNameKey = def.ItemNameKey
	}
	if out.PhraseQueryConcurrency <= 0 {
		out.PhraseQueryConcurrency = def.PhraseQueryConcurrency
	}
	return out
}

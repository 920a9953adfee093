package domain

// Reference points at a piece of context that was handed to the answer model.
type Reference struct {
	Type    string  `json:"type"`
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Source  string  `json:"source,omitempty"`
	Excerpt string  `json:"excerpt,omitempty"`
}

const (
	ReferenceTypeItem      = "item"
	ReferenceTypeKnowledge = "knowledge"
)

type Answer struct {
	Text        string           `json:"text"`
	References  []Reference      `json:"references"`
	Grounding   *GroundingResult `json:"grounding,omitempty"`
	RetrievalMS float64          `json:"retrieval_ms"`
}

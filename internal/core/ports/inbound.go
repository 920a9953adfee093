package ports

import (
	"context"
	"io"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

// GroundOptions carries per-call overrides for the grounding engine.
type GroundOptions struct {
	ForceFullPath bool
	// Config replaces the engine's configuration for this call only.
	Config *domain.GroundingConfig
}

// Grounder maps an utterance to ranked catalog item candidates.
type Grounder interface {
	Ground(ctx context.Context, utterance string, opts GroundOptions) *domain.GroundingResult
}

// AnswerStream receives retrieval results before the first generated token.
type AnswerStream interface {
	Begin(answer *domain.Answer) error
	Token(token string) error
}

// AnswerService is the inbound contract for question answering.
type AnswerService interface {
	Respond(ctx context.Context, question string) (*domain.Answer, error)
	RespondStream(ctx context.Context, question string, stream AnswerStream) (*domain.Answer, error)
}

// CatalogIngestor is the inbound contract for catalog upload orchestration.
type CatalogIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.CatalogUpload, error)
}

// CatalogReader is the inbound read model for upload state.
type CatalogReader interface {
	GetByID(ctx context.Context, id string) (*domain.CatalogUpload, error)
}

// CatalogProcessor is the inbound contract for asynchronous catalog processing.
type CatalogProcessor interface {
	ProcessByID(ctx context.Context, uploadID string) error
}

// InteractionReader lists recent question/answer exchanges.
type InteractionReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Interaction, error)
}

package ports

import (
	"context"
	"io"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

// ItemIndex answers nearest-neighbour queries over the item catalog.
// Hits are ordered by ascending distance.
type ItemIndex interface {
	Query(ctx context.Context, text string, k int) ([]domain.IndexHit, error)
}

// ChatGenerator runs a single system+user chat completion.
type ChatGenerator interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

// AnswerGenerator creates the final user-facing answer.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
	StreamAnswer(ctx context.Context, prompt string, onToken func(string) error) (string, error)
}

// Embedder builds vectors for stored text and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ItemCatalogStore writes catalog records into the item index.
type ItemCatalogStore interface {
	UpsertItems(ctx context.Context, records []domain.ItemRecord, vectors [][]float32) error
}

// KnowledgeStore indexes and searches free-form reference text.
type KnowledgeStore interface {
	IndexChunks(ctx context.Context, upload *domain.CatalogUpload, chunks []string, vectors [][]float32) error
	SearchKnowledge(ctx context.Context, queryVector []float32, limit int) ([]domain.KnowledgeChunk, error)
}

// CatalogRepository persists upload state.
type CatalogRepository interface {
	Create(ctx context.Context, upload *domain.CatalogUpload) error
	GetByID(ctx context.Context, id string) (*domain.CatalogUpload, error)
	UpdateStatus(ctx context.Context, id string, status domain.CatalogStatus, itemCount int, errMessage string) error
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes catalog upload events.
type MessageQueue interface {
	PublishCatalogUploaded(ctx context.Context, uploadID string) error
	SubscribeCatalogUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// InteractionLog persists question/answer history.
type InteractionLog interface {
	Save(ctx context.Context, interaction domain.Interaction) error
	ListRecent(ctx context.Context, limit int) ([]domain.Interaction, error)
}

// TextExtractor extracts plain text from a stored knowledge file.
type TextExtractor interface {
	Extract(ctx context.Context, upload *domain.CatalogUpload) (string, error)
}

// CatalogParser decodes a stored catalog file into item records.
type CatalogParser interface {
	Parse(ctx context.Context, upload *domain.CatalogUpload) ([]domain.ItemRecord, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}

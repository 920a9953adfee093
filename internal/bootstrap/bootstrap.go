package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/gomi-assistant/internal/config"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
	"github.com/kirillkom/gomi-assistant/internal/core/usecase"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/catalog"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/vector/qdrant"
)

// Options carry observability hooks from the cmd that owns the metrics registry.
type Options struct {
	BreakerObserver   resilience.StateObserver
	GroundingObserver usecase.GroundingObserver
	OnQueueLag        func(time.Duration)
}

type App struct {
	Config config.Config

	Queue        *nats.Queue
	Catalogs     ports.CatalogReader
	Interactions ports.InteractionReader

	Grounder  *usecase.GroundingUseCase
	Answers   *usecase.AnswerUseCase
	IngestUC  *usecase.IngestCatalogUseCase
	ProcessUC *usecase.ProcessCatalogUseCase

	closeFn func()
}

// models groups the adapters shared by the full app and the grounding CLI.
type models struct {
	executor  *resilience.Executor
	chat      *ollama.ChatModel
	embedder  *ollama.Embedder
	generator *ollama.Generator
	items     *qdrant.ItemsClient
	knowledge *qdrant.KnowledgeClient
}

func newModels(cfg config.Config, opts Options) models {
	var execOpts []resilience.Option
	if opts.BreakerObserver != nil {
		execOpts = append(execOpts, resilience.WithStateObserver(opts.BreakerObserver))
	}
	executor := resilience.NewExecutor(cfg.Resilience, execOpts...)

	client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	return models{
		executor:  executor,
		chat:      ollama.NewChatModel(client),
		embedder:  ollama.NewEmbedder(client),
		generator: ollama.NewGenerator(client),
		items:     qdrant.NewItemsClient(cfg.QdrantURL, cfg.QdrantItemsCollection, cfg.Grounding.ItemNameKey, executor),
		knowledge: qdrant.NewKnowledgeClient(cfg.QdrantURL, cfg.QdrantKnowledgeCollection, executor),
	}
}

func (m models) grounder(cfg config.Config, observer usecase.GroundingObserver) *usecase.GroundingUseCase {
	index := qdrant.NewItemIndex(m.embedder, m.items)
	uc := usecase.NewGroundingUseCase(index, m.chat, cfg.Grounding)
	if observer != nil {
		uc.WithObserver(observer)
	}
	return uc
}

// NewGrounder builds only the grounding engine. It needs Ollama and Qdrant but
// neither Postgres nor NATS.
func NewGrounder(cfg config.Config, opts Options) *usecase.GroundingUseCase {
	return newModels(cfg, opts).grounder(cfg, opts.GroundingObserver)
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	catalogRepo := postgres.NewCatalogRepository(db)
	interactionRepo := postgres.NewInteractionRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	m := newModels(cfg, opts)

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Executor:   m.executor,
		OnQueueLag: opts.OnQueueLag,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	grounder := m.grounder(cfg, opts.GroundingObserver)
	answers := usecase.NewAnswerUseCase(grounder, m.embedder, m.knowledge, m.generator, interactionRepo, usecase.AnswerOptions{
		ContextItems:  cfg.AnswerContextItems,
		KnowledgeTopK: cfg.KnowledgeTopK,
	})

	textExtractor := plaintext.NewExtractor(storage)
	extractors := extractor.NewRouter(map[string]ports.TextExtractor{
		".txt": textExtractor,
		".md":  textExtractor,
		".pdf": pdftext.NewExtractor(storage),
	})
	processUC := usecase.NewProcessCatalogUseCase(
		catalogRepo,
		catalog.NewParser(storage),
		extractors,
		chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		m.embedder,
		m.items,
		m.knowledge,
		cfg.Grounding.ItemNameKey,
	)

	return &App{
		Config:       cfg,
		Queue:        queue,
		Catalogs:     catalogRepo,
		Interactions: interactionRepo,

		Grounder:  grounder,
		Answers:   answers,
		IngestUC:  usecase.NewIngestCatalogUseCase(catalogRepo, storage, queue),
		ProcessUC: processUC,

		closeFn: closer(queue, db),
	}, nil
}

func closer(queue *nats.Queue, db *sql.DB) func() {
	return func() {
		queue.Close()
		_ = db.Close()
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

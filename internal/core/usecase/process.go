package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
)

const embedBatchSize = 64

type ProcessCatalogUseCase struct {
	repo        ports.CatalogRepository
	parser      ports.CatalogParser
	extractor   ports.TextExtractor
	chunker     ports.Chunker
	embedder    ports.Embedder
	items       ports.ItemCatalogStore
	knowledge   ports.KnowledgeStore
	itemNameKey string
}

func NewProcessCatalogUseCase(
	repo ports.CatalogRepository,
	parser ports.CatalogParser,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	items ports.ItemCatalogStore,
	knowledge ports.KnowledgeStore,
	itemNameKey string,
) *ProcessCatalogUseCase {
	if itemNameKey == "" {
		itemNameKey = domain.DefaultGroundingConfig().ItemNameKey
	}
	return &ProcessCatalogUseCase{
		repo:        repo,
		parser:      parser,
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		items:       items,
		knowledge:   knowledge,
		itemNameKey: itemNameKey,
	}
}

func (uc *ProcessCatalogUseCase) ProcessByID(ctx context.Context, uploadID string) error {
	if err := uc.repo.UpdateStatus(ctx, uploadID, domain.CatalogStatusProcessing, 0, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	count, err := uc.processPipeline(ctx, uploadID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, uploadID, domain.CatalogStatusFailed, 0, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, uploadID, domain.CatalogStatusReady, count, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	slog.Info("catalog_processed", "upload_id", uploadID, "count", count)
	return nil
}

func (uc *ProcessCatalogUseCase) processPipeline(ctx context.Context, uploadID string) (int, error) {
	upload, err := uc.repo.GetByID(ctx, uploadID)
	if err != nil {
		return 0, fmt.Errorf("fetch catalog upload by id: %w", err)
	}

	kind, ok := domain.KindForFilename(upload.Filename)
	if !ok {
		return 0, domain.WrapError(domain.ErrInvalidInput, "process catalog", fmt.Errorf("unsupported file %q", upload.Filename))
	}

	switch kind {
	case domain.CatalogKindItems:
		return uc.processItems(ctx, upload)
	default:
		return uc.processKnowledge(ctx, upload)
	}
}

func (uc *ProcessCatalogUseCase) processItems(ctx context.Context, upload *domain.CatalogUpload) (int, error) {
	records, err := uc.parser.Parse(ctx, upload)
	if err != nil {
		return 0, fmt.Errorf("parse catalog: %w", err)
	}

	usable := make([]domain.ItemRecord, 0, len(records))
	names := make([]string, 0, len(records))
	for _, record := range records {
		name := record.String(uc.itemNameKey)
		if name == "" {
			continue
		}
		usable = append(usable, record)
		names = append(names, name)
	}
	if len(usable) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse catalog", fmt.Errorf("no records with %q", uc.itemNameKey))
	}
	if skipped := len(records) - len(usable); skipped > 0 {
		slog.Warn("catalog_records_skipped", "upload_id", upload.ID, "skipped", skipped)
	}

	vectors, err := uc.embed(ctx, names)
	if err != nil {
		return 0, err
	}
	if err := uc.items.UpsertItems(ctx, usable, vectors); err != nil {
		return 0, fmt.Errorf("upsert items: %w", err)
	}
	return len(usable), nil
}

func (uc *ProcessCatalogUseCase) processKnowledge(ctx context.Context, upload *domain.CatalogUpload) (int, error) {
	text, err := uc.extractor.Extract(ctx, upload)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk text", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return 0, err
	}
	if err := uc.knowledge.IndexChunks(ctx, upload, chunks, vectors); err != nil {
		return 0, fmt.Errorf("index knowledge chunks: %w", err)
	}
	return len(chunks), nil
}

func (uc *ProcessCatalogUseCase) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch, err := uc.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed texts: %w", err)
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed texts",
			fmt.Errorf("vectors/texts mismatch: %d/%d", len(vectors), len(texts)),
		)
	}
	return vectors, nil
}

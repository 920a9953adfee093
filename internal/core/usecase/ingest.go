package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
)

type IngestCatalogUseCase struct {
	repo    ports.CatalogRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestCatalogUseCase(
	repo ports.CatalogRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestCatalogUseCase {
	return &IngestCatalogUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestCatalogUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.CatalogUpload, error) {
	if _, ok := domain.KindForFilename(filename); !ok {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"upload catalog",
			fmt.Errorf("unsupported file type %q", filepath.Ext(filename)),
		)
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	upload := &domain.CatalogUpload{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.CatalogStatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, upload); err != nil {
		return nil, fmt.Errorf("create catalog upload: %w", err)
	}

	if err := uc.queue.PublishCatalogUploaded(ctx, upload.ID); err != nil {
		return nil, fmt.Errorf("publish catalog uploaded event: %w", err)
	}

	return upload, nil
}

// sanitizeFilename keeps letters (including kana and kanji), digits and . - _.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "catalog.bin"
	}
	return base
}

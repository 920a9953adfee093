package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

type CatalogRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db, now: time.Now}
}

func (r *CatalogRepository) Create(ctx context.Context, upload *domain.CatalogUpload) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO catalog_uploads (
	id, filename, mime_type, storage_path, status, item_count, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		upload.ID, upload.Filename, upload.MimeType, upload.StoragePath, string(upload.Status),
		upload.ItemCount, upload.Error, upload.CreatedAt, upload.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert catalog upload: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*domain.CatalogUpload, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, status, item_count, error_message, created_at, updated_at
FROM catalog_uploads
WHERE id = $1
`, id)

	var upload domain.CatalogUpload
	var status string
	err := row.Scan(
		&upload.ID, &upload.Filename, &upload.MimeType, &upload.StoragePath, &status,
		&upload.ItemCount, &upload.Error, &upload.CreatedAt, &upload.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCatalogNotFound, "get catalog upload", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan catalog upload: %w", err)
	}
	upload.Status = domain.CatalogStatus(status)
	return &upload, nil
}

func (r *CatalogRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.CatalogStatus,
	itemCount int,
	errMessage string,
) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE catalog_uploads
SET status = $2, item_count = $3, error_message = $4, updated_at = $5
WHERE id = $1
`, id, string(status), itemCount, errMessage, r.now().UTC())
	if err != nil {
		return fmt.Errorf("update catalog status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update catalog status rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrCatalogNotFound, "update catalog status", fmt.Errorf("id %s", id))
	}
	return nil
}

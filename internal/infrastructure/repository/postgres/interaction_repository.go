package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

const maxInteractionPage = 200

// InteractionRepository stores the question/answer history shown in the admin log view.
type InteractionRepository struct {
	db *sql.DB
}

func NewInteractionRepository(db *sql.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

func (r *InteractionRepository) Save(ctx context.Context, interaction domain.Interaction) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO interactions (created_at, mode, user_text, assistant_text, total_seconds)
VALUES ($1,$2,$3,$4,$5)
`,
		interaction.Timestamp.UTC(), interaction.Mode, interaction.User,
		interaction.Assistant, interaction.TotalSeconds,
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// ListRecent returns the newest interactions first.
func (r *InteractionRepository) ListRecent(ctx context.Context, limit int) ([]domain.Interaction, error) {
	if limit <= 0 || limit > maxInteractionPage {
		limit = maxInteractionPage
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, created_at, mode, user_text, assistant_text, total_seconds
FROM interactions
ORDER BY created_at DESC, id DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Interaction, 0, limit)
	for rows.Next() {
		var item domain.Interaction
		if err := rows.Scan(&item.ID, &item.Timestamp, &item.Mode, &item.User, &item.Assistant, &item.TotalSeconds); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return out, nil
}

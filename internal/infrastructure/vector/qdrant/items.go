package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/resilience"
)

// itemNamespace derives stable point ids from item names so that re-importing
// a catalog replaces rows instead of duplicating them.
var itemNamespace = uuid.MustParse("6f1c5a0e-3c1b-4e0a-9a57-3f5f2a8d7c11")

// ItemsClient stores one point per catalog item; the payload is the full record.
type ItemsClient struct {
	coll        *collection
	itemNameKey string
}

func NewItemsClient(baseURL, collectionName, itemNameKey string, exec *resilience.Executor) *ItemsClient {
	return &ItemsClient{
		coll:        newCollection(baseURL, collectionName, exec),
		itemNameKey: itemNameKey,
	}
}

func (c *ItemsClient) UpsertItems(ctx context.Context, records []domain.ItemRecord, vectors [][]float32) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) != len(vectors) {
		return fmt.Errorf("records/vectors mismatch: %d/%d", len(records), len(vectors))
	}

	points := make([]point, 0, len(records))
	for i, record := range records {
		name := record.String(c.itemNameKey)
		points = append(points, point{
			ID:      uuid.NewSHA1(itemNamespace, []byte(name)).String(),
			Vector:  vectors[i],
			Payload: map[string]any(record),
		})
	}
	return c.coll.upsert(ctx, points)
}

// Search returns the nearest items. Qdrant reports cosine similarity; it is
// converted to a distance so that 1 - distance gives the score back.
func (c *ItemsClient) Search(ctx context.Context, vector []float32, limit int) ([]domain.IndexHit, error) {
	points, err := c.coll.query(ctx, vector, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.IndexHit, 0, len(points))
	for _, p := range points {
		record := p.Payload
		if record == nil {
			record = map[string]any{}
		}
		hits = append(hits, domain.IndexHit{
			Record:   record,
			Distance: 1.0 - p.Score,
		})
	}
	return hits, nil
}

// ItemIndex answers text queries by embedding them and searching the items collection.
type ItemIndex struct {
	embedder ports.Embedder
	items    *ItemsClient
}

func NewItemIndex(embedder ports.Embedder, items *ItemsClient) *ItemIndex {
	return &ItemIndex{embedder: embedder, items: items}
}

func (i *ItemIndex) Query(ctx context.Context, text string, k int) ([]domain.IndexHit, error) {
	vector, err := i.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed item query: %w", err)
	}
	hits, err := i.items.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return hits, nil
}

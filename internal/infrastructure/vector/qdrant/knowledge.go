package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/infrastructure/resilience"
)

type KnowledgeClient struct {
	coll *collection
}

func NewKnowledgeClient(baseURL, collectionName string, exec *resilience.Executor) *KnowledgeClient {
	return &KnowledgeClient{coll: newCollection(baseURL, collectionName, exec)}
}

func (c *KnowledgeClient) IndexChunks(ctx context.Context, upload *domain.CatalogUpload, chunks []string, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	points := make([]point, 0, len(chunks))
	for i := range chunks {
		id := uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s/%d", upload.ID, i))
		points = append(points, point{
			ID:     id.String(),
			Vector: vectors[i],
			Payload: map[string]any{
				"upload_id":   upload.ID,
				"source":      upload.Filename,
				"chunk_index": i,
				"text":        chunks[i],
			},
		})
	}
	return c.coll.upsert(ctx, points)
}

func (c *KnowledgeClient) SearchKnowledge(ctx context.Context, queryVector []float32, limit int) ([]domain.KnowledgeChunk, error) {
	if len(queryVector) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 2
	}

	points, err := c.coll.query(ctx, queryVector, limit)
	if err != nil {
		var statusErr *StatusError
		// Nothing has been uploaded yet.
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	out := make([]domain.KnowledgeChunk, 0, len(points))
	for _, p := range points {
		out = append(out, domain.KnowledgeChunk{
			UploadID: getStringPayload(p.Payload, "upload_id"),
			Source:   getStringPayload(p.Payload, "source"),
			Index:    getIntPayload(p.Payload, "chunk_index"),
			Text:     getStringPayload(p.Payload, "text"),
			Score:    p.Score,
		})
	}
	return out, nil
}

package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/gomi-assistant/internal/infrastructure/resilience"
)

// collection is the HTTP plumbing shared by the item and knowledge clients.
type collection struct {
	baseURL    string
	name       string
	httpClient *http.Client
	exec       *resilience.Executor

	ensureMu    sync.Mutex
	ensuredSize int
}

func newCollection(baseURL, name string, exec *resilience.Executor) *collection {
	return &collection{
		baseURL:    strings.TrimRight(baseURL, "/"),
		name:       name,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		exec:       exec,
	}
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// ensure creates the collection with cosine distance once per vector size.
func (c *collection) ensure(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if c.ensuredSize == vectorSize {
		return nil
	}

	payload := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err := c.do(ctx, http.MethodPut, "/collections/"+c.name, payload, nil, "ensure_collection")
	var statusErr *StatusError
	if err != nil && !(errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict) {
		return err
	}
	c.ensuredSize = vectorSize
	return nil
}

func (c *collection) upsert(ctx context.Context, points []point) error {
	if len(points) == 0 {
		return nil
	}
	if err := c.ensure(ctx, len(points[0].Vector)); err != nil {
		return err
	}
	path := fmt.Sprintf("/collections/%s/points?wait=true", c.name)
	return c.do(ctx, http.MethodPut, path, map[string]any{"points": points}, nil, "upsert")
}

func (c *collection) query(ctx context.Context, vector []float32, limit int) ([]scoredPoint, error) {
	payload := map[string]any{
		"query":        vector,
		"limit":        limit,
		"with_payload": true,
	}
	var response struct {
		Result struct {
			Points []scoredPoint `json:"points"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/query", c.name)
	if err := c.do(ctx, http.MethodPost, path, payload, &response, "query"); err != nil {
		return nil, err
	}
	return response.Result.Points, nil
}

func (c *collection) do(ctx context.Context, method, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal qdrant %s body: %w", operation, err)
	}

	err = c.exec.Execute(ctx, "qdrant_"+operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create qdrant %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &StatusError{
				Operation:  operation,
				Collection: c.name,
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       strings.TrimSpace(string(raw)),
			}
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode qdrant %s response: %w", operation, err)
		}
		return nil
	}, classifyQdrantError)
	return wrapTemporaryIfNeeded("qdrant "+operation, err)
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

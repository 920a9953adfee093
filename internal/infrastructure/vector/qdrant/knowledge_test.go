package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

func TestKnowledgeIndexChunksPayload(t *testing.T) {
	var ensureCalled bool
	var upsertBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/knowledge":
			ensureCalled = true
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/knowledge/points":
			if err := json.NewDecoder(r.Body).Decode(&upsertBody); err != nil {
				t.Errorf("decode upsert body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewKnowledgeClient(server.URL, "knowledge", testExecutor())
	upload := &domain.CatalogUpload{ID: "up-1", Filename: "guide.pdf"}
	err := client.IndexChunks(context.Background(), upload, []string{"a", "b"}, [][]float32{{0.1}, {0.2}})
	if err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
	if !ensureCalled {
		t.Fatalf("expected ensure collection call")
	}
	points, ok := upsertBody["points"].([]any)
	if !ok || len(points) != 2 {
		t.Fatalf("unexpected upsert points: %#v", upsertBody["points"])
	}
	payload := points[1].(map[string]any)["payload"].(map[string]any)
	if payload["upload_id"] != "up-1" || payload["source"] != "guide.pdf" || payload["chunk_index"] != float64(1) || payload["text"] != "b" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestKnowledgeSearchDecodesPoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/knowledge/points/query" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"points":[{"id":"x","score":0.7,"payload":{"upload_id":"up-1","source":"guide.pdf","chunk_index":3,"text":"粗大ごみは予約制"}}]}}`))
	}))
	defer server.Close()

	client := NewKnowledgeClient(server.URL, "knowledge", testExecutor())
	chunks, err := client.SearchKnowledge(context.Background(), []float32{0.1}, 2)
	if err != nil {
		t.Fatalf("SearchKnowledge() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	got := chunks[0]
	if got.UploadID != "up-1" || got.Source != "guide.pdf" || got.Index != 3 || got.Text != "粗大ごみは予約制" || got.Score != 0.7 {
		t.Fatalf("unexpected chunk %+v", got)
	}
}

func TestKnowledgeSearchMissingCollectionIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error":"Collection knowledge not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewKnowledgeClient(server.URL, "knowledge", testExecutor())
	chunks, err := client.SearchKnowledge(context.Background(), []float32{0.1}, 2)
	if err != nil {
		t.Fatalf("expected missing collection to be tolerated, got %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

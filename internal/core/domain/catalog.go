package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type CatalogStatus string

const (
	CatalogStatusUploaded   CatalogStatus = "uploaded"
	CatalogStatusProcessing CatalogStatus = "processing"
	CatalogStatusReady      CatalogStatus = "ready"
	CatalogStatusFailed     CatalogStatus = "failed"
)

// CatalogUpload tracks one uploaded catalog or knowledge file through the worker.
type CatalogUpload struct {
	ID          string        `json:"id"`
	Filename    string        `json:"filename"`
	MimeType    string        `json:"mime_type"`
	StoragePath string        `json:"storage_path"`
	Status      CatalogStatus `json:"status"`
	ItemCount   int           `json:"item_count"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ItemRecord is one catalog row. Keys are the catalog's column names (品名, 出し方, 備考, ...).
type ItemRecord map[string]any

// String returns the value under key as text, or "" when absent.
func (r ItemRecord) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// KnowledgeChunk is a piece of free-form reference text (leaflets, rule books).
type KnowledgeChunk struct {
	UploadID string  `json:"upload_id"`
	Source   string  `json:"source"`
	Index    int     `json:"index"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

type CatalogKind string

const (
	CatalogKindItems     CatalogKind = "items"
	CatalogKindKnowledge CatalogKind = "knowledge"
)

// KindForFilename reports which pipeline handles a file, by extension.
func KindForFilename(filename string) (CatalogKind, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jsonl", ".csv", ".xlsx":
		return CatalogKindItems, true
	case ".txt", ".md", ".pdf":
		return CatalogKindKnowledge, true
	default:
		return "", false
	}
}

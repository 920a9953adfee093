package plaintext

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

type storageFake struct {
	files map[string][]byte
}

func (s *storageFake) Save(context.Context, string, io.Reader) error { return nil }

func (s *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := s.files[key]
	if !ok {
		return nil, domain.ErrCatalogNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func TestExtractStripsBOMAndNormalizesNewlines(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"rules.txt": append([]byte{0xEF, 0xBB, 0xBF}, []byte("燃えるごみ\r\n月・木\r\n")...),
	}}
	text, err := NewExtractor(storage).Extract(context.Background(), &domain.CatalogUpload{Filename: "rules.txt", StoragePath: "rules.txt"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "燃えるごみ\n月・木" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractRejectsBinary(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{"blob.txt": {0xff, 0xfe, 0x00}}}
	_, err := NewExtractor(storage).Extract(context.Background(), &domain.CatalogUpload{Filename: "blob.txt", StoragePath: "blob.txt"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("Extract() error = %v, want invalid input", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := NewExtractor(&storageFake{}).Extract(context.Background(), &domain.CatalogUpload{StoragePath: "nope.md"})
	if !domain.IsKind(err, domain.ErrCatalogNotFound) {
		t.Fatalf("Extract() error = %v, want not found", err)
	}
}

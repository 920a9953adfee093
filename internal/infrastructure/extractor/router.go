package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
)

// Router dispatches knowledge files to an extractor by file extension.
type Router struct {
	byExt map[string]ports.TextExtractor
}

func NewRouter(byExt map[string]ports.TextExtractor) *Router {
	normalized := make(map[string]ports.TextExtractor, len(byExt))
	for ext, ex := range byExt {
		normalized[strings.ToLower(ext)] = ex
	}
	return &Router{byExt: normalized}
}

func (r *Router) Extract(ctx context.Context, upload *domain.CatalogUpload) (string, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	ex, ok := r.byExt[ext]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("no extractor for %q", ext))
	}
	return ex.Extract(ctx, upload)
}

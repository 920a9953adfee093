package catalog

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
)

// Parser reads item catalogs (.jsonl, .csv, .xlsx) from object storage.
type Parser struct {
	storage ports.ObjectStorage
}

func NewParser(storage ports.ObjectStorage) *Parser {
	return &Parser{storage: storage}
}

func (p *Parser) Parse(ctx context.Context, upload *domain.CatalogUpload) ([]domain.ItemRecord, error) {
	reader, err := p.storage.Open(ctx, upload.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(upload.Filename)); ext {
	case ".jsonl":
		return parseJSONL(raw)
	case ".csv":
		return parseCSV(raw)
	case ".xlsx":
		return parseXLSX(raw)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse catalog", fmt.Errorf("unsupported catalog format %q", ext))
	}
}

// recordsFromTable turns a header row plus data rows into records. Blank
// cells and columns without a header are left out of the record.
func recordsFromTable(rows [][]string) []domain.ItemRecord {
	if len(rows) == 0 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(name)
	}

	out := make([]domain.ItemRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := domain.ItemRecord{}
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				record[header[i]] = cell
			}
		}
		if len(record) > 0 {
			out = append(out, record)
		}
	}
	return out
}

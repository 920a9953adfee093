package catalog

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/xuri/excelize/v2"
)

// parseXLSX reads the first sheet of a workbook as a header-first table.
func parseXLSX(raw []byte) ([]domain.ItemRecord, error) {
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse xlsx", err)
	}
	defer func() {
		if err := book.Close(); err != nil {
			slog.Warn("xlsx_close_failed", "error", err)
		}
	}()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse xlsx", fmt.Errorf("workbook has no sheets"))
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse xlsx", fmt.Errorf("read sheet %q: %w", sheets[0], err))
	}
	return recordsFromTable(rows), nil
}

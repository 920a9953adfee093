package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseCSV reads a header-first CSV. Files that are not valid UTF-8 are
// decoded as Shift_JIS, the usual encoding of municipal open-data exports.
func parseCSV(raw []byte) ([]domain.ItemRecord, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var src io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		src = transform.NewReader(src, japanese.ShiftJIS.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse csv", fmt.Errorf("read rows: %w", err))
	}
	return recordsFromTable(rows), nil
}

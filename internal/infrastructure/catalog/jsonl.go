package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

const maxJSONLLine = 1 << 20

func parseJSONL(raw []byte) ([]domain.ItemRecord, error) {
	scanner := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM)))
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)

	var out []domain.ItemRecord
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var record map[string]any
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse jsonl", fmt.Errorf("line %d: %w", line, err))
		}
		if record == nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse jsonl", fmt.Errorf("line %d: not an object", line))
		}
		for key, value := range record {
			if value == nil {
				delete(record, key)
			}
		}
		out = append(out, domain.ItemRecord(record))
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse jsonl", err)
	}
	return out, nil
}

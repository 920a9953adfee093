package chunking

import "strings"

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// separators are tried in order when looking for a natural chunk end.
var separators = []string{"\n\n", "\n", "。", "．", ". ", " "}

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split cuts text into windows of at most ChunkSize runes. A window ends at the
// last separator in its second half when there is one; consecutive windows
// share Overlap runes.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.ChunkSize+1)
	for start := 0; start < len(runes); {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = start + naturalEnd(runes[start:end])
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// naturalEnd returns the rune length of window up to and including the last
// separator found in its second half, or len(window) when none is found.
func naturalEnd(window []rune) int {
	half := len(window) / 2
	text := string(window)
	for _, sep := range separators {
		idx := strings.LastIndex(text, sep)
		if idx < 0 {
			continue
		}
		cut := len([]rune(text[:idx+len(sep)]))
		if cut > half {
			return cut
		}
	}
	return len(window)
}

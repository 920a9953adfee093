package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != DefaultChunkSize || s.Overlap != 0 {
		t.Fatalf("unexpected splitter: %+v", s)
	}
	s = NewSplitter(100, 100)
	if s.Overlap != 10 {
		t.Fatalf("overlap = %d, want 10", s.Overlap)
	}
}

func TestSplitEmpty(t *testing.T) {
	if got := NewSplitter(10, 2).Split("   "); len(got) != 0 {
		t.Fatalf("expected no chunks, got %v", got)
	}
	if got := NewSplitter(10, 2).Split(""); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	got := NewSplitter(500, 50).Split("  粗大ごみは事前申込制です。  ")
	if len(got) != 1 || got[0] != "粗大ごみは事前申込制です。" {
		t.Fatalf("unexpected chunks: %q", got)
	}
}

func TestSplitRespectsSizeAndOverlap(t *testing.T) {
	text := strings.Repeat("あ", 25)
	got := NewSplitter(10, 2).Split(text)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %q", len(got), got)
	}
	for _, chunk := range got {
		if n := utf8.RuneCountInString(chunk); n > 10 {
			t.Fatalf("chunk too long: %d runes", n)
		}
	}
	if utf8.RuneCountInString(got[2]) != 9 {
		t.Fatalf("last chunk = %q", got[2])
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	text := "缶は水洗いしてください。びんは色別に分けます。"
	got := NewSplitter(16, 0).Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %q", got)
	}
	if got[0] != "缶は水洗いしてください。" {
		t.Fatalf("first chunk = %q", got[0])
	}
	if got[1] != "びんは色別に分けます。" {
		t.Fatalf("second chunk = %q", got[1])
	}
}

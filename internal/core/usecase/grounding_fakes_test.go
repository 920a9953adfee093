package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

type itemIndexFake struct {
	mu      sync.Mutex
	hits    map[string][]domain.IndexHit
	errs    map[string]error
	panics  map[string]bool
	queries []string
	topKs   []int
}

func newItemIndexFake() *itemIndexFake {
	return &itemIndexFake{
		hits:   make(map[string][]domain.IndexHit),
		errs:   make(map[string]error),
		panics: make(map[string]bool),
	}
}

func (f *itemIndexFake) Query(_ context.Context, text string, k int) ([]domain.IndexHit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, text)
	f.topKs = append(f.topKs, k)
	hits := f.hits[text]
	err := f.errs[text]
	shouldPanic := f.panics[text]
	f.mu.Unlock()

	if shouldPanic {
		panic("index exploded")
	}
	if err != nil {
		return nil, err
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *itemIndexFake) queried(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.queries {
		if q == text {
			return true
		}
	}
	return false
}

func item(name string, distance float64) domain.IndexHit {
	return domain.IndexHit{
		Record:   map[string]any{"品名": name, "出し方": name + "の出し方"},
		Distance: distance,
	}
}

type chatFake struct {
	mu          sync.Mutex
	response    string
	err         error
	block       bool
	panicMsg    string
	calls       int
	system      string
	user        string
	temperature float64
}

func (f *chatFake) Chat(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	f.mu.Lock()
	f.calls++
	f.system = systemPrompt
	f.user = userPrompt
	f.temperature = temperature
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *chatFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errIndexDown = errors.New("index down")

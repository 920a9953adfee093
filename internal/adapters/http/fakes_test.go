package httpadapter

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kirillkom/gomi-assistant/internal/config"
	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
)

type grounderFake struct {
	utterance string
	opts      ports.GroundOptions
}

func (f *grounderFake) Ground(_ context.Context, utterance string, opts ports.GroundOptions) *domain.GroundingResult {
	f.utterance = utterance
	f.opts = opts
	primary := domain.Candidate{ItemName: "冷蔵庫", Similarity: 0.82, Source: domain.SourceBoth}
	return &domain.GroundingResult{
		Candidates:       []domain.Candidate{primary},
		PrimaryCandidate: &primary,
		ConfidenceLevel:  domain.ConfidenceHigh,
		ExecutionTimeMS:  42,
		PathUsed:         domain.PathBoth,
	}
}

type answersFake struct {
	answer *domain.Answer
	tokens []string
	err    error
	// streamErr is returned after all tokens were written.
	streamErr error
}

func (f *answersFake) Respond(context.Context, string) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func (f *answersFake) RespondStream(_ context.Context, _ string, stream ports.AnswerStream) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := stream.Begin(f.answer); err != nil {
		return nil, err
	}
	for _, token := range f.tokens {
		if err := stream.Token(token); err != nil {
			return nil, err
		}
	}
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.answer, nil
}

type ingestorFake struct {
	err      error
	filename string
	body     string
}

func (f *ingestorFake) Upload(_ context.Context, filename, mimeType string, body io.Reader) (*domain.CatalogUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.filename = filename
	f.body = string(raw)
	now := time.Now().UTC()
	return &domain.CatalogUpload{
		ID:          "upload-1",
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: "upload-1_" + filename,
		Status:      domain.CatalogStatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type catalogsFake struct {
	err error
}

func (f catalogsFake) GetByID(_ context.Context, id string) (*domain.CatalogUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CatalogUpload{ID: id, Status: domain.CatalogStatusReady, ItemCount: 3}, nil
}

type interactionsFake struct {
	limit int
	items []domain.Interaction
}

func (f *interactionsFake) ListRecent(_ context.Context, limit int) ([]domain.Interaction, error) {
	f.limit = limit
	return f.items, nil
}

type testRouter struct {
	grounder     *grounderFake
	answers      *answersFake
	ingestor     *ingestorFake
	interactions *interactionsFake
	cfg          config.Config
	catalogs     catalogsFake
}

func newTestRouter() *testRouter {
	return &testRouter{
		grounder: &grounderFake{},
		answers: &answersFake{answer: &domain.Answer{
			Text: "家電リサイクル法の対象です。",
			References: []domain.Reference{
				{Type: domain.ReferenceTypeItem, Name: "冷蔵庫", Score: 0.82, Source: domain.SourceBoth},
			},
			RetrievalMS: 12.5,
		}},
		ingestor:     &ingestorFake{},
		interactions: &interactionsFake{},
		cfg:          config.Config{MaxUploadBytes: 1 << 20},
	}
}

func (tr *testRouter) handler() http.Handler {
	return NewRouter(tr.cfg, Dependencies{
		Grounder:     tr.grounder,
		Answers:      tr.answers,
		Ingestor:     tr.ingestor,
		Catalogs:     tr.catalogs,
		Interactions: tr.interactions,
	}).Handler()
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
	"github.com/kirillkom/gomi-assistant/internal/core/ports"
)

const (
	answerPromptTemplate = "以下は北九州市のごみ分別ルールです：\n%s\n\n質問: %s\n日本語で答えてください:"
	noContextFound       = "該当情報が見つかりませんでした。"
	excerptRunes         = 200
)

type AnswerOptions struct {
	ContextItems  int
	KnowledgeTopK int
}

type AnswerUseCase struct {
	grounder     ports.Grounder
	embedder     ports.Embedder
	knowledge    ports.KnowledgeStore
	generator    ports.AnswerGenerator
	interactions ports.InteractionLog
	opts         AnswerOptions
}

// NewAnswerUseCase wires the answer flow. knowledge and interactions may be nil.
func NewAnswerUseCase(
	grounder ports.Grounder,
	embedder ports.Embedder,
	knowledge ports.KnowledgeStore,
	generator ports.AnswerGenerator,
	interactions ports.InteractionLog,
	opts AnswerOptions,
) *AnswerUseCase {
	if opts.ContextItems <= 0 {
		opts.ContextItems = 2
	}
	if opts.KnowledgeTopK < 0 {
		opts.KnowledgeTopK = 0
	}
	return &AnswerUseCase{
		grounder:     grounder,
		embedder:     embedder,
		knowledge:    knowledge,
		generator:    generator,
		interactions: interactions,
		opts:         opts,
	}
}

type preparedAnswer struct {
	prompt string
	answer *domain.Answer
}

func (uc *AnswerUseCase) Respond(ctx context.Context, question string) (*domain.Answer, error) {
	start := time.Now()
	prepared, err := uc.prepare(ctx, question)
	if err != nil {
		return nil, err
	}

	text, err := uc.generator.GenerateAnswer(ctx, prepared.prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	prepared.answer.Text = text

	uc.saveInteraction(ctx, domain.InteractionModeBlocking, question, text, start)
	return prepared.answer, nil
}

func (uc *AnswerUseCase) RespondStream(ctx context.Context, question string, stream ports.AnswerStream) (*domain.Answer, error) {
	if stream == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "respond stream", errors.New("stream is nil"))
	}

	start := time.Now()
	prepared, err := uc.prepare(ctx, question)
	if err != nil {
		return nil, err
	}
	if err := stream.Begin(prepared.answer); err != nil {
		return nil, fmt.Errorf("begin answer stream: %w", err)
	}

	text, err := uc.generator.StreamAnswer(ctx, prepared.prompt, stream.Token)
	if err != nil {
		return nil, fmt.Errorf("stream answer: %w", err)
	}
	prepared.answer.Text = text

	if text != "" {
		uc.saveInteraction(ctx, domain.InteractionModeStreaming, question, text, start)
	}
	return prepared.answer, nil
}

func (uc *AnswerUseCase) prepare(ctx context.Context, question string) (*preparedAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "respond", errors.New("question is empty"))
	}

	retrievalStart := time.Now()
	grounding := uc.grounder.Ground(ctx, question, ports.GroundOptions{})
	items := topCandidates(grounding, uc.opts.ContextItems)
	knowledge := uc.searchKnowledge(ctx, question)

	references := make([]domain.Reference, 0, len(items)+len(knowledge))
	for _, candidate := range items {
		references = append(references, domain.Reference{
			Type:    domain.ReferenceTypeItem,
			Name:    candidate.ItemName,
			Score:   candidate.Similarity,
			Source:  candidate.Source,
			Excerpt: domain.ItemRecord(candidate.Metadata).String(disposalMethodKey),
		})
	}
	for _, chunk := range knowledge {
		references = append(references, domain.Reference{
			Type:    domain.ReferenceTypeKnowledge,
			Name:    chunk.Source,
			Score:   chunk.Score,
			Excerpt: truncateRunes(chunk.Text, excerptRunes),
		})
	}

	prompt := fmt.Sprintf(answerPromptTemplate, buildAnswerContext(grounding, items, knowledge), question)
	retrievalMS := float64(time.Since(retrievalStart).Microseconds()) / 1000.0

	return &preparedAnswer{
		prompt: prompt,
		answer: &domain.Answer{
			References:  references,
			Grounding:   grounding,
			RetrievalMS: retrievalMS,
		},
	}, nil
}

func (uc *AnswerUseCase) searchKnowledge(ctx context.Context, question string) []domain.KnowledgeChunk {
	if uc.knowledge == nil || uc.embedder == nil || uc.opts.KnowledgeTopK == 0 {
		return nil
	}

	vector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		slog.Warn("knowledge_search_failed", "stage", "embed", "error", err)
		return nil
	}
	chunks, err := uc.knowledge.SearchKnowledge(ctx, vector, uc.opts.KnowledgeTopK)
	if err != nil {
		slog.Warn("knowledge_search_failed", "stage", "search", "error", err)
		return nil
	}
	return chunks
}

func (uc *AnswerUseCase) saveInteraction(ctx context.Context, mode, question, reply string, start time.Time) {
	if uc.interactions == nil {
		return
	}
	interaction := domain.Interaction{
		Timestamp:    time.Now().UTC(),
		Mode:         mode,
		User:         question,
		Assistant:    reply,
		TotalSeconds: time.Since(start).Seconds(),
	}
	// The reply has already been produced; a cancelled request should still be logged.
	if err := uc.interactions.Save(context.WithoutCancel(ctx), interaction); err != nil {
		slog.Warn("interaction_save_failed", "mode", mode, "error", err)
	}
}

func topCandidates(result *domain.GroundingResult, limit int) []domain.Candidate {
	if result == nil || len(result.Candidates) == 0 {
		return nil
	}
	if len(result.Candidates) <= limit {
		return result.Candidates
	}
	return result.Candidates[:limit]
}

func buildAnswerContext(grounding *domain.GroundingResult, items []domain.Candidate, knowledge []domain.KnowledgeChunk) string {
	parts := make([]string, 0, 3)

	if len(items) > 0 {
		blocks := make([]string, 0, len(items))
		for _, candidate := range items {
			record := domain.ItemRecord(candidate.Metadata)
			blocks = append(blocks, fmt.Sprintf("品名: %s\n出し方: %s\n備考: %s",
				candidate.ItemName,
				record.String(disposalMethodKey),
				record.String(remarksKey),
			))
		}
		parts = append(parts, "【ごみ分別情報】\n"+strings.Join(blocks, "\n\n"))
	}

	if len(knowledge) > 0 {
		texts := make([]string, 0, len(knowledge))
		for _, chunk := range knowledge {
			texts = append(texts, strings.TrimSpace(chunk.Text))
		}
		parts = append(parts, "【参考資料】\n"+strings.Join(texts, "\n\n"))
	}

	if grounding != nil && grounding.IsAmbiguous && len(items) > 1 {
		names := make([]string, 0, len(items))
		for _, candidate := range items {
			names = append(names, candidate.ItemName)
		}
		parts = append(parts, "【確認事項】\n質問がどの品目を指しているか明確ではありません（候補: "+
			strings.Join(names, "、")+"）。回答の最初に、どの品目のことか確認してください。")
	}

	if len(parts) == 0 {
		return noContextFound
	}
	return strings.Join(parts, "\n\n")
}

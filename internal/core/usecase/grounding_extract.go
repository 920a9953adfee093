package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/gomi-assistant/internal/core/domain"
)

const extractionSystemPrompt = "あなたは物品名抽出の専門システムです。JSON形式で回答してください。"

func buildExtractionPrompt(utterance string, maxCandidates int) string {
	return fmt.Sprintf(`あなたは北九州市のごみ分類システムです。以下のユーザー入力から、捨てたい物品の名称を抽出してください。

【重要ルール】
1. 物品名のみを抽出（説明文や動詞は含めない）
2. 最大%d個まで
3. JSON形式で出力: {"candidates": ["物品1", "物品2"]}
4. 候補がない場合: {"candidates": []}

【入力】
%s

【出力】（JSON形式のみ、説明不要）
`, maxCandidates, utterance)
}

func (uc *GroundingUseCase) extractPhrases(ctx context.Context, utterance string, cfg domain.GroundingConfig) ([]string, error) {
	if uc.chat == nil {
		return nil, errors.New("chat generator is not configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.ExtractionTimeout)
	defer cancel()

	raw, err := uc.chat.Chat(
		callCtx,
		extractionSystemPrompt,
		buildExtractionPrompt(utterance, cfg.PathBMaxCandidates),
		cfg.ExtractionTemperature,
	)
	if err != nil {
		return nil, fmt.Errorf("extract phrases: %w", err)
	}

	phrases := parseExtractionResponse(raw)
	if len(phrases) > cfg.PathBMaxCandidates {
		phrases = phrases[:cfg.PathBMaxCandidates]
	}
	return phrases, nil
}

type responseShape string

const (
	shapeRawObject    responseShape = "raw_object"
	shapeLabeledFence responseShape = "labeled_fence"
	shapeGenericFence responseShape = "generic_fence"
)

// responseAttempt recognizes one way a model wraps its JSON answer and returns
// the JSON text when the shape matches.
type responseAttempt struct {
	shape   responseShape
	extract func(content string) (string, bool)
}

// Order matters: the first matching shape decides, even if its JSON is broken.
var responseAttempts = []responseAttempt{
	{shape: shapeRawObject, extract: extractRawObject},
	{shape: shapeLabeledFence, extract: extractLabeledFence},
	{shape: shapeGenericFence, extract: extractGenericFence},
}

func extractRawObject(content string) (string, bool) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	return trimmed, true
}

func extractLabeledFence(content string) (string, bool) {
	_, after, found := strings.Cut(content, "```json")
	if !found {
		return "", false
	}
	body, _, _ := strings.Cut(after, "```")
	return strings.TrimSpace(body), true
}

// extractGenericFence takes the text between the first fence and the next
// one, or up to the end when the block is never closed.
func extractGenericFence(content string) (string, bool) {
	_, after, found := strings.Cut(content, "```")
	if !found {
		return "", false
	}
	body, _, _ := strings.Cut(after, "```")
	return strings.TrimSpace(body), true
}

type extractionPayload struct {
	Candidates []any `json:"candidates"`
}

func parseExtractionResponse(content string) []string {
	for _, attempt := range responseAttempts {
		body, ok := attempt.extract(content)
		if !ok {
			continue
		}

		var payload extractionPayload
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			slog.Warn("extraction_decode_failed", "shape", attempt.shape, "error", err)
			return []string{}
		}
		return phrasesFromPayload(payload)
	}

	slog.Warn("extraction_unrecognized", "content", truncateRunes(content, 100))
	return []string{}
}

func phrasesFromPayload(payload extractionPayload) []string {
	phrases := make([]string, 0, len(payload.Candidates))
	for _, item := range payload.Candidates {
		phrase, ok := item.(string)
		if !ok {
			continue
		}
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		phrases = append(phrases, phrase)
	}
	return phrases
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

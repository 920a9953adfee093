package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kirillkom/gomi-assistant/internal/infrastructure/resilience"
)

var tracer = otel.Tracer("github.com/kirillkom/gomi-assistant/internal/infrastructure/llm/ollama")

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	exec       *resilience.Executor
}

func New(baseURL, genModel, embedModel string, exec *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		exec:       exec,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatModel runs single-turn chat completions, used for phrase extraction.
type ChatModel struct {
	client *Client
}

func NewChatModel(client *Client) *ChatModel {
	return &ChatModel{client: client}
}

func (m *ChatModel) Chat(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	ctx, span := tracer.Start(ctx, "ollama.chat")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", m.client.genModel),
		attribute.Float64("llm.temperature", temperature),
	)

	request := map[string]any{
		"model": m.client.genModel,
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		"stream": false,
		"options": map[string]any{
			"temperature": temperature,
		},
	}

	var response struct {
		Message chatMessage `json:"message"`
	}
	if err := m.client.postJSON(ctx, "/api/chat", request, &response, "chat"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return response.Message.Content, nil
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "ollama.generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", g.client.genModel))

	request := map[string]any{
		"model":  g.client.genModel,
		"prompt": prompt,
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := g.client.postJSON(ctx, "/api/generate", request, &response, "generate"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

// StreamAnswer forwards each generated fragment to onToken and returns the
// full text. Retries only cover opening the stream.
func (g *Generator) StreamAnswer(ctx context.Context, prompt string, onToken func(string) error) (string, error) {
	ctx, span := tracer.Start(ctx, "ollama.generate_stream")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", g.client.genModel))

	request := map[string]any{
		"model":  g.client.genModel,
		"prompt": prompt,
		"stream": true,
	}

	text, err := g.client.streamJSON(ctx, "/api/generate", request, "generate_stream", func(line []byte) (string, bool, error) {
		var chunk struct {
			Response string `json:"response"`
			Done     bool   `json:"done"`
			Error    string `json:"error"`
		}
		if err := decodeLine(line, &chunk); err != nil {
			return "", false, err
		}
		if chunk.Error != "" {
			return "", true, fmt.Errorf("ollama stream error: %s", chunk.Error)
		}
		return chunk.Response, chunk.Done, nil
	}, onToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return text, err
	}
	return text, nil
}

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kirillkom/gomi-assistant/internal/infrastructure/resilience"
)

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	err = c.exec.Execute(ctx, "ollama_"+operation, func(ctx context.Context) error {
		resp, err := c.send(ctx, path, body, operation)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}, classifyOllamaError)
	return wrapTemporaryIfNeeded("ollama "+operation, err)
}

// lineDecoder turns one NDJSON line into a text fragment and a done flag.
type lineDecoder func(line []byte) (fragment string, done bool, err error)

func (c *Client) streamJSON(
	ctx context.Context,
	path string,
	payload any,
	operation string,
	decode lineDecoder,
	onFragment func(string) error,
) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s request: %w", operation, err)
	}

	resp, err := resilience.Call(ctx, c.exec, "ollama_"+operation, func(ctx context.Context) (*http.Response, error) {
		return c.send(ctx, path, body, operation)
	}, classifyOllamaError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("ollama "+operation, err)
	}
	defer resp.Body.Close()

	var collected strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		fragment, done, err := decode(line)
		if err != nil {
			return collected.String(), fmt.Errorf("decode %s chunk: %w", operation, err)
		}
		if fragment != "" {
			collected.WriteString(fragment)
			if onFragment != nil {
				if err := onFragment(fragment); err != nil {
					return collected.String(), fmt.Errorf("deliver %s chunk: %w", operation, err)
				}
			}
		}
		if done {
			return collected.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return collected.String(), fmt.Errorf("read %s stream: %w", operation, err)
	}
	return collected.String(), nil
}

func (c *Client) send(ctx context.Context, path string, body []byte, operation string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama %s request: %w", operation, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, newHTTPStatusError(operation, resp)
	}
	return resp, nil
}

func decodeLine(line []byte, out any) error {
	return json.Unmarshal(line, out)
}

func newHTTPStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaURL is the local Ollama address.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaClient uses a local Ollama instance's /api/chat endpoint.
type OllamaClient struct {
	baseURL string
	client  *http.Client
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Error   string  `json:"error,omitempty"`
}

// NewOllamaClient creates a client for Ollama at baseURL.
func NewOllamaClient(baseURL string) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// local models are slow on long prompts
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Chat implements Client.
func (c *OllamaClient) Chat(ctx context.Context, r Request) (string, error) {
	body := ollamaChatRequest{
		Model:    r.Model,
		Messages: r.Messages,
		Options:  ollamaOptions{Temperature: r.Temperature, NumPredict: r.MaxTokens},
	}
	if r.JSON {
		body.Format = "json"
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", &StatusError{Provider: "ollama", Code: resp.StatusCode, Body: string(b)}
	}

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama: %s", result.Error)
	}
	content := strings.TrimSpace(result.Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

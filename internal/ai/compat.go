package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CompatGenerator talks to OpenAI-compatible chat completion APIs.
// These have no web search tool, so responses never carry citations.
type CompatGenerator struct {
	config ProviderConfig
	client *http.Client
	log    *zap.Logger
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewCompatGenerator creates a chat-completions generator
func NewCompatGenerator(config ProviderConfig, log *zap.Logger) *CompatGenerator {
	return &CompatGenerator{
		config: config,
		client: &http.Client{Timeout: 90 * time.Second},
		log:    log.Named(strings.ToLower(config.Name)),
	}
}

func (p *CompatGenerator) Name() string {
	return p.config.Name
}

// Generate sends the prompt as a single user message
func (p *CompatGenerator) Generate(ctx context.Context, prompt string) (*Response, error) {
	reqBody := chatRequest{
		Model:       p.config.TextModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.config.Temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	p.log.Debug("response status", zap.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error: %d %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	return &Response{Text: chatResp.Choices[0].Message.Content}, nil
}

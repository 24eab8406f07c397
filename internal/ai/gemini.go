package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiGenerator calls Gemini with the Google Search tool enabled
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	log         *zap.Logger
}

// NewGeminiGenerator creates a Gemini client for the Gemini API backend
func NewGeminiGenerator(ctx context.Context, cfg ProviderConfig, log *zap.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is not set")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:      client,
		model:       cfg.TextModel,
		temperature: cfg.Temperature,
		log:         log.Named("gemini"),
	}, nil
}

func (g *GeminiGenerator) Name() string {
	return "gemini"
}

// Generate sends one grounded request. Structured output options are not
// combined with the search tool, so the prompt itself asks for fenced JSON.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (*Response, error) {
	config := &genai.GenerateContentConfig{
		Tools:       []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		Temperature: genai.Ptr(g.temperature),
	}

	g.log.Debug("sending request", zap.String("model", g.model), zap.Int("prompt_len", len(prompt)))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	out := fromGenAI(resp)
	g.log.Debug("response received",
		zap.Int("text_len", len(out.Text)),
		zap.Int("grounding_chunks", len(out.GroundingChunks())))
	return out, nil
}

// fromGenAI keeps the text of the first candidate plus every candidate's citations
func fromGenAI(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}

	for i, candidate := range resp.Candidates {
		if candidate == nil {
			out.Candidates = append(out.Candidates, Candidate{})
			continue
		}
		if i == 0 && candidate.Content != nil {
			var text strings.Builder
			for _, part := range candidate.Content.Parts {
				if part == nil || part.Thought {
					continue
				}
				text.WriteString(part.Text)
			}
			out.Text = text.String()
		}

		var c Candidate
		if meta := candidate.GroundingMetadata; meta != nil {
			c.GroundingMetadata = &GroundingMetadata{}
			for _, chunk := range meta.GroundingChunks {
				var gc GroundingChunk
				if chunk != nil && chunk.Web != nil {
					gc.Web = &WebChunk{URI: chunk.Web.URI, Title: chunk.Web.Title}
				}
				c.GroundingMetadata.GroundingChunks = append(c.GroundingMetadata.GroundingChunks, gc)
			}
		}
		out.Candidates = append(out.Candidates, c)
	}
	return out
}

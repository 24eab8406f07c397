package ai

import (
	"context"
	"fmt"

	"github.com/amityadav/trendfinder/internal/ai/models"
	"github.com/amityadav/trendfinder/internal/config"
	"go.uber.org/zap"
)

// NewGenerator creates the generator selected by AI_PROVIDER.
// Supported providers: "gemini" (default), "groq", "cerebras".
// Each provider maps to exactly one generator with no fallback.
func NewGenerator(ctx context.Context, cfg config.Config, log *zap.Logger) (Generator, error) {
	switch cfg.AIProvider {
	case "", "gemini":
		model := cfg.GeminiModel
		if model == "" {
			model = models.TaskInsightsModel
		}
		return NewGeminiGenerator(ctx, ProviderConfig{
			Name:        "Gemini",
			APIKey:      cfg.GeminiAPIKey,
			TextModel:   model,
			Temperature: cfg.GeminiTemperature,
		}, log)
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is not set")
		}
		return newGroq(cfg, log), nil
	case "cerebras":
		if cfg.CerebrasAPIKey == "" {
			return nil, fmt.Errorf("CEREBRAS_API_KEY is not set")
		}
		return newCerebras(cfg, log), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s (supported: gemini, groq, cerebras)", cfg.AIProvider)
	}
}

func newGroq(cfg config.Config, log *zap.Logger) *CompatGenerator {
	return NewCompatGenerator(ProviderConfig{
		Name:        "Groq",
		BaseURL:     models.EndpointGroq,
		APIKey:      cfg.GroqAPIKey,
		TextModel:   orDefault(cfg.CompatModel, models.TaskCompatGroqModel),
		Temperature: cfg.GeminiTemperature,
	}, log)
}

func newCerebras(cfg config.Config, log *zap.Logger) *CompatGenerator {
	return NewCompatGenerator(ProviderConfig{
		Name:        "Cerebras",
		BaseURL:     models.EndpointCerebras,
		APIKey:      cfg.CerebrasAPIKey,
		TextModel:   orDefault(cfg.CompatModel, models.TaskCompatCerebrasModel),
		Temperature: cfg.GeminiTemperature,
	}, log)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

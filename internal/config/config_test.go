package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"AI_PROVIDER", "GEMINI_API_KEY", "API_KEY", "GEMINI_MODEL", "GEMINI_TEMPERATURE",
		"REQUEST_TIMEOUT_SECONDS", "HTTP_ADDR", "GRPC_ADDR", "REFRESH_SCHEDULE", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "gemini", cfg.AIProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.InDelta(t, 0.2, cfg.GeminiTemperature, 1e-6)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Empty(t, cfg.RefreshSchedule)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadAPIKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "legacy-key")
	assert.Equal(t, "legacy-key", Load().GeminiAPIKey)

	t.Setenv("GEMINI_API_KEY", "primary-key")
	assert.Equal(t, "primary-key", Load().GeminiAPIKey)
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "soon")
	t.Setenv("GEMINI_TEMPERATURE", "warm")

	cfg := Load()
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.InDelta(t, 0.2, cfg.GeminiTemperature, 1e-6)

	t.Setenv("REQUEST_TIMEOUT_SECONDS", "15")
	t.Setenv("GEMINI_TEMPERATURE", "0.7")
	cfg = Load()
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.InDelta(t, 0.7, cfg.GeminiTemperature, 1e-6)
}

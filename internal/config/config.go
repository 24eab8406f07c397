package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	AIProvider        string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float32
	GroqAPIKey        string
	CerebrasAPIKey    string
	CompatModel       string
	RequestTimeout    time.Duration
	HTTPAddr          string
	GRPCAddr          string
	RefreshSchedule   string
	RefreshTimezone   string
	LogFormat         string
	LogLevel          string
}

// Load loads configuration from environment variables
func Load() Config {
	return Config{
		AIProvider:        getEnv("AI_PROVIDER", "gemini"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTemperature: getEnvFloat32("GEMINI_TEMPERATURE", 0.2),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		CerebrasAPIKey:    os.Getenv("CEREBRAS_API_KEY"),
		CompatModel:       os.Getenv("COMPAT_MODEL"),
		RequestTimeout:    time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 90)) * time.Second,
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:          getEnv("GRPC_ADDR", ":50051"),
		RefreshSchedule:   os.Getenv("REFRESH_SCHEDULE"),
		RefreshTimezone:   getEnv("REFRESH_TIMEZONE", "UTC"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

package models

const (
	// === Gemini Models ===
	ModelGemini2_5Flash = "gemini-2.5-flash"

	// === Groq Models ===
	ModelGroqGptOss120b = "openai/gpt-oss-120b"

	// === Cerebras Models ===
	ModelCerebrasGptOss120b = "gpt-oss-120b"
)

const (
	// TaskInsightsModel: search-grounded market insight lists.
	TaskInsightsModel = ModelGemini2_5Flash

	// TaskCompatGroqModel: ungrounded alternate provider, JSON list output.
	TaskCompatGroqModel = ModelGroqGptOss120b

	TaskCompatCerebrasModel = ModelCerebrasGptOss120b
)

const (
	EndpointGroq     = "https://api.groq.com/openai/v1/chat/completions"
	EndpointCerebras = "https://api.cerebras.ai/v1/chat/completions"
)

package ai

import "context"

// Generator defines the interface for search-augmented text generation
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (*Response, error)
}

// Response is the subset of a generation result the app reads.
// Every level of the citation metadata may be absent.
type Response struct {
	Text       string      `json:"text"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Candidate is one generated candidate
type Candidate struct {
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// GroundingMetadata carries the web citations backing a candidate
type GroundingMetadata struct {
	GroundingChunks []GroundingChunk `json:"groundingChunks,omitempty"`
}

// GroundingChunk is one raw citation record
type GroundingChunk struct {
	Web *WebChunk `json:"web,omitempty"`
}

// WebChunk is the web page a grounding chunk points at
type WebChunk struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// GroundingChunks returns the first candidate's chunks, or nil when any level is missing
func (r *Response) GroundingChunks() []GroundingChunk {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	meta := r.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	return meta.GroundingChunks
}

// ProviderConfig holds configuration for a provider
type ProviderConfig struct {
	Name        string
	BaseURL     string
	APIKey      string
	TextModel   string
	Temperature float32
}

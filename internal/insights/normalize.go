package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/amityadav/trendfinder/internal/ai"
	"go.uber.org/zap"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\r?\\n(.*?)\\r?\\n```")

var (
	errEmptyPayload = errors.New("empty payload")
	errNotArray     = errors.New("payload is not a JSON array")
)

// ParseError describes why a model response could not be read as cards
type ParseError struct {
	Payload string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse cards: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExtractPayload returns the content of the first fenced json block,
// or the whole trimmed text when there is none.
func ExtractPayload(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}

// ParseCards reads a JSON array of {title, description} objects out of a raw
// model response.
func ParseCards(text string) ([]Card, error) {
	payload := ExtractPayload(text)
	if strings.TrimSpace(payload) == "" {
		return nil, &ParseError{Payload: payload, Err: errEmptyPayload}
	}

	var raw []*Card
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, &ParseError{Payload: payload, Err: err}
	}
	if raw == nil {
		return nil, &ParseError{Payload: payload, Err: errNotArray}
	}

	cards := make([]Card, 0, len(raw))
	for i, c := range raw {
		if c == nil {
			return nil, &ParseError{Payload: payload, Err: fmt.Errorf("element %d is not an object", i)}
		}
		cards = append(cards, *c)
	}
	return cards, nil
}

// CollectSources maps the first candidate's grounding chunks to sources,
// dropping chunks without a URI and keeping the first title per URI.
func CollectSources(resp *ai.Response) []Source {
	chunks := resp.GroundingChunks()
	sources := make([]Source, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = UntitledSource
		}
		sources = append(sources, Source{URI: chunk.Web.URI, Title: title})
	}
	return DedupSources(sources)
}

// DedupSources keeps the first occurrence of every URI in first-seen order
func DedupSources(sources []Source) []Source {
	seen := make(map[string]bool, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if seen[s.URI] {
			continue
		}
		seen[s.URI] = true
		out = append(out, s)
	}
	return out
}

// Normalizer turns raw generator responses into query results
type Normalizer struct {
	log *zap.Logger
}

func NewNormalizer(log *zap.Logger) *Normalizer {
	return &Normalizer{log: log.Named("normalizer")}
}

// Normalize never fails: an unreadable payload yields an empty result and a
// diagnostic log line, so one bad response only shows up as "no results".
func (n *Normalizer) Normalize(resp *ai.Response) QueryResult {
	var text string
	if resp != nil {
		text = resp.Text
	}

	cards, err := ParseCards(text)
	if err != nil {
		n.log.Warn("failed to parse JSON response", zap.Error(err), zap.String("raw_text", text))
		return EmptyResult()
	}

	return QueryResult{Items: cards, Sources: CollectSources(resp)}
}

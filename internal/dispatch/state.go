package dispatch

import (
	"github.com/amityadav/trendfinder/internal/insights"
	"go.uber.org/zap"
)

// IntentState is one intent's entry in a snapshot
type IntentState struct {
	Intent  insights.Intent  `json:"intent"`
	Title   string           `json:"title"`
	Outcome insights.Outcome `json:"outcome"`
}

// Snapshot is a point-in-time copy of the dispatcher state.
// Results are shared, not copied; they are never mutated once published.
type Snapshot struct {
	HasSearched       bool          `json:"hasSearched"`
	ActiveCustomQuery string        `json:"activeCustomQuery"`
	DefaultsPending   bool          `json:"defaultsPending"`
	Intents           []IntentState `json:"intents"`
}

// Outcome returns the outcome recorded for intent, idle if unknown
func (s Snapshot) Outcome(intent insights.Intent) insights.Outcome {
	for _, is := range s.Intents {
		if is.Intent == intent {
			return is.Outcome
		}
	}
	return insights.Outcome{Status: insights.StatusIdle}
}

// state is owned by the dispatcher loop goroutine
type state struct {
	log         *zap.Logger
	records     map[insights.Intent]*insights.Outcome
	hasSearched bool
	customQuery string
	subs        map[int]chan Update
	nextSub     int
}

func newState(log *zap.Logger) *state {
	s := &state{
		log:     log,
		records: make(map[insights.Intent]*insights.Outcome),
		subs:    make(map[int]chan Update),
	}
	for _, intent := range insights.AllIntents() {
		s.records[intent] = &insights.Outcome{Status: insights.StatusIdle}
	}
	return s
}

// begin resets intent to pending under a fresh generation
func (s *state) begin(intent insights.Intent, query, requestID string) job {
	rec := s.records[intent]
	next := insights.Pending()
	next.Generation = rec.Generation + 1
	next.RequestID = requestID
	*rec = next

	s.publish(intent)
	return job{intent: intent, query: query, generation: next.Generation, requestID: requestID}
}

// settle applies a completion if it still belongs to the current generation
func (s *state) settle(c completion) {
	rec := s.records[c.job.intent]
	if rec.Generation != c.job.generation || rec.Status != insights.StatusPending {
		s.log.Info("dropping stale response",
			zap.String("intent", string(c.job.intent)),
			zap.String("request_id", c.job.requestID),
			zap.Uint64("generation", c.job.generation),
			zap.Uint64("current_generation", rec.Generation))
		return
	}

	next := c.outcome
	next.Generation = c.job.generation
	next.RequestID = c.job.requestID
	*rec = next

	s.publish(c.job.intent)
}

func (s *state) defaultsPending() bool {
	for _, intent := range insights.DefaultIntents() {
		if s.records[intent].Status == insights.StatusPending {
			return true
		}
	}
	return false
}

func (s *state) snapshot() Snapshot {
	snap := Snapshot{
		HasSearched:       s.hasSearched,
		ActiveCustomQuery: s.customQuery,
		DefaultsPending:   s.defaultsPending(),
		Intents:           make([]IntentState, 0, len(s.records)),
	}
	for _, intent := range insights.AllIntents() {
		snap.Intents = append(snap.Intents, IntentState{
			Intent:  intent,
			Title:   intent.Title(s.customQuery),
			Outcome: *s.records[intent],
		})
	}
	return snap
}

func (s *state) subscribe(ch chan Update) int {
	s.nextSub++
	s.subs[s.nextSub] = ch
	return s.nextSub
}

func (s *state) unsubscribe(id int) {
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *state) closeSubscribers() {
	for id := range s.subs {
		s.unsubscribe(id)
	}
}

func (s *state) publish(intent insights.Intent) {
	u := Update{Intent: intent, Outcome: *s.records[intent]}
	if intent == insights.IntentCustom {
		u.CustomQuery = s.customQuery
	}
	for id, ch := range s.subs {
		select {
		case ch <- u:
		default:
			s.log.Warn("subscriber too slow, dropping update",
				zap.Int("subscriber", id), zap.String("intent", string(intent)))
		}
	}
}

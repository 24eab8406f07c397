package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amityadav/trendfinder/internal/ai"
	"github.com/amityadav/trendfinder/internal/insights"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrDefaultsPending is returned when a default query is still in flight
	ErrDefaultsPending = errors.New("default queries are still pending")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("dispatcher is closed")
)

const subscriberBuffer = 64

// Update is published for every state transition of an intent
type Update struct {
	Intent      insights.Intent  `json:"intent"`
	Outcome     insights.Outcome `json:"outcome"`
	CustomQuery string           `json:"customQuery,omitempty"`
}

// job is one dispatched request
type job struct {
	intent     insights.Intent
	query      string
	generation uint64
	requestID  string
}

// completion carries a finished request back to the state owner
type completion struct {
	job     job
	outcome insights.Outcome
}

// Dispatcher fans out one generation request per intent and tracks each
// intent's outcome. All state lives in a single goroutine; callers and
// request goroutines talk to it over channels.
type Dispatcher struct {
	gen        ai.Generator
	normalizer *insights.Normalizer
	log        *zap.Logger
	timeout    time.Duration
	newID      func() string

	cmds    chan func(*state)
	results chan completion
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New creates a dispatcher and starts its state loop. Requests run with
// their own timeout and are never cancelled by callers.
func New(gen ai.Generator, log *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	log = log.Named("dispatch")
	d := &Dispatcher{
		gen:        gen,
		normalizer: insights.NewNormalizer(log),
		log:        log,
		timeout:    timeout,
		newID:      uuid.NewString,
		cmds:       make(chan func(*state)),
		results:    make(chan completion),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go d.loop()
	return d
}

// Close stops the state loop and closes all subscriber channels.
// Requests still in flight finish in the background and are discarded.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.done) })
	<-d.stopped
}

func (d *Dispatcher) loop() {
	defer close(d.stopped)
	s := newState(d.log)
	for {
		select {
		case fn := <-d.cmds:
			fn(s)
		case c := <-d.results:
			s.settle(c)
		case <-d.done:
			s.closeSubscribers()
			return
		}
	}
}

// do runs fn on the state goroutine and waits for it to finish
func (d *Dispatcher) do(fn func(*state)) error {
	finished := make(chan struct{})
	select {
	case d.cmds <- func(s *state) { fn(s); close(finished) }:
	case <-d.done:
		return ErrClosed
	}
	<-finished
	return nil
}

// RunDefaultQueries triggers the five canned intents and returns as soon as
// they are dispatched. It refuses while any of them is still pending.
func (d *Dispatcher) RunDefaultQueries() error {
	var jobs []job
	pending := false

	err := d.do(func(s *state) {
		if s.defaultsPending() {
			pending = true
			return
		}
		s.hasSearched = true
		for _, intent := range insights.DefaultIntents() {
			jobs = append(jobs, s.begin(intent, "", d.newID()))
		}
	})
	if err != nil {
		return err
	}
	if pending {
		return ErrDefaultsPending
	}

	d.log.Info("dispatching default queries", zap.Int("count", len(jobs)))
	for _, j := range jobs {
		go d.execute(j)
	}
	return nil
}

// RunCustomQuery dispatches a freeform query. Blank text is ignored and
// reported as not dispatched. Resubmitting while a query is in flight is
// allowed; the older response is discarded when it lands.
func (d *Dispatcher) RunCustomQuery(text string) (bool, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return false, nil
	}

	var j job
	err := d.do(func(s *state) {
		s.customQuery = query
		j = s.begin(insights.IntentCustom, query, d.newID())
	})
	if err != nil {
		return false, err
	}

	d.log.Info("dispatching custom query", zap.String("query", query), zap.String("request_id", j.requestID))
	go d.execute(j)
	return true, nil
}

// Snapshot returns a copy of every intent's current state
func (d *Dispatcher) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := d.do(func(s *state) { snap = s.snapshot() })
	return snap, err
}

// DefaultsPending reports whether any default intent is still in flight
func (d *Dispatcher) DefaultsPending() bool {
	var pending bool
	if err := d.do(func(s *state) { pending = s.defaultsPending() }); err != nil {
		return false
	}
	return pending
}

// Subscribe returns a channel receiving every subsequent update. Updates are
// dropped for subscribers that fall behind. cancel releases the channel.
func (d *Dispatcher) Subscribe() (<-chan Update, func(), error) {
	ch := make(chan Update, subscriberBuffer)
	var id int
	if err := d.do(func(s *state) { id = s.subscribe(ch) }); err != nil {
		return nil, nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = d.do(func(s *state) { s.unsubscribe(id) })
		})
	}
	return ch, cancel, nil
}

func (d *Dispatcher) execute(j job) {
	log := d.log.With(
		zap.String("intent", string(j.intent)),
		zap.String("request_id", j.requestID),
		zap.Uint64("generation", j.generation),
	)
	outcome := insights.Failed(j.intent.FailureMessage(j.query))

	defer func() {
		if r := recover(); r != nil {
			log.Error("query panicked", zap.Any("panic", r))
		}
		select {
		case d.results <- completion{job: j, outcome: outcome}:
		case <-d.done:
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	resp, err := d.generate(ctx, j)
	if err != nil {
		log.Error("query failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return
	}

	result := d.normalizer.Normalize(resp)
	outcome = insights.Succeeded(result)
	log.Info("query succeeded",
		zap.Int("items", len(result.Items)),
		zap.Int("sources", len(result.Sources)),
		zap.Duration("elapsed", time.Since(start)))
}

func (d *Dispatcher) generate(ctx context.Context, j job) (*ai.Response, error) {
	prompt, err := insights.Prompt(j.intent, j.query)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}
	resp, err := d.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.gen.Name(), err)
	}
	return resp, nil
}

package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amityadav/trendfinder/internal/ai"
	"github.com/amityadav/trendfinder/internal/insights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeGenerator struct {
	fn func(ctx context.Context, prompt string) (*ai.Response, error)
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (*ai.Response, error) {
	return f.fn(ctx, prompt)
}

func cardsResponse(titles ...string) *ai.Response {
	var b strings.Builder
	b.WriteString("```json\n[")
	for i, title := range titles {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"title":"` + title + `","description":"d"}`)
	}
	b.WriteString("]\n```")
	return &ai.Response{
		Text: b.String(),
		Candidates: []ai.Candidate{{GroundingMetadata: &ai.GroundingMetadata{
			GroundingChunks: []ai.GroundingChunk{{Web: &ai.WebChunk{URI: "https://example.com", Title: "Example"}}},
		}}},
	}
}

func mustPrompt(t *testing.T, intent insights.Intent, query string) string {
	t.Helper()
	p, err := insights.Prompt(intent, query)
	require.NoError(t, err)
	return p
}

func newTestDispatcher(t *testing.T, fn func(ctx context.Context, prompt string) (*ai.Response, error)) *Dispatcher {
	t.Helper()
	d := New(&fakeGenerator{fn: fn}, zap.NewNop(), time.Second)
	t.Cleanup(d.Close)
	return d
}

func waitFor(t *testing.T, d *Dispatcher, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		var err error
		snap, err = d.Snapshot()
		return err == nil && cond(snap)
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func defaultsSettled(s Snapshot) bool {
	for _, intent := range insights.DefaultIntents() {
		if !s.Outcome(intent).Terminal() {
			return false
		}
	}
	return true
}

func TestInitialSnapshot(t *testing.T) {
	d := newTestDispatcher(t, func(context.Context, string) (*ai.Response, error) {
		return nil, errors.New("unexpected call")
	})

	snap, err := d.Snapshot()
	require.NoError(t, err)
	assert.False(t, snap.HasSearched)
	assert.False(t, snap.DefaultsPending)
	assert.Empty(t, snap.ActiveCustomQuery)

	require.Len(t, snap.Intents, len(insights.AllIntents()))
	for i, intent := range insights.AllIntents() {
		assert.Equal(t, intent, snap.Intents[i].Intent)
		assert.Equal(t, insights.StatusIdle, snap.Intents[i].Outcome.Status)
	}
	assert.Equal(t, "Custom Search", snap.Intents[0].Title)
}

func TestRunDefaultQueriesOneFailure(t *testing.T) {
	failing := mustPrompt(t, insights.IntentTopDownloads, "")
	d := newTestDispatcher(t, func(_ context.Context, prompt string) (*ai.Response, error) {
		if prompt == failing {
			return nil, errors.New("quota exceeded")
		}
		return cardsResponse("A", "B"), nil
	})

	require.NoError(t, d.RunDefaultQueries())
	snap := waitFor(t, d, defaultsSettled)

	assert.True(t, snap.HasSearched)
	assert.False(t, snap.DefaultsPending)

	downloads := snap.Outcome(insights.IntentTopDownloads)
	assert.Equal(t, insights.StatusFailed, downloads.Status)
	assert.Equal(t, "Failed to load top downloaded apps.", downloads.Error)
	assert.Nil(t, downloads.Result)

	for _, intent := range []insights.Intent{
		insights.IntentTrendingIdeas,
		insights.IntentRecentTrends,
		insights.IntentDownloadTiers,
		insights.IntentPopularNiches,
	} {
		o := snap.Outcome(intent)
		require.Equal(t, insights.StatusSucceeded, o.Status, intent)
		require.NotNil(t, o.Result)
		assert.Len(t, o.Result.Items, 2)
		assert.Equal(t, []insights.Source{{URI: "https://example.com", Title: "Example"}}, o.Result.Sources)
		assert.Empty(t, o.Error)
		assert.NotEmpty(t, o.RequestID)
	}

	assert.Equal(t, insights.StatusIdle, snap.Outcome(insights.IntentCustom).Status)
}

func TestRunDefaultQueriesIssuedConcurrently(t *testing.T) {
	var mu sync.Mutex
	entered := 0
	allIn := make(chan struct{})

	d := newTestDispatcher(t, func(ctx context.Context, _ string) (*ai.Response, error) {
		mu.Lock()
		entered++
		if entered == len(insights.DefaultIntents()) {
			close(allIn)
		}
		mu.Unlock()

		// every request must be in flight before any of them can finish
		select {
		case <-allIn:
			return cardsResponse("A"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	require.NoError(t, d.RunDefaultQueries())
	snap := waitFor(t, d, defaultsSettled)
	for _, intent := range insights.DefaultIntents() {
		assert.Equal(t, insights.StatusSucceeded, snap.Outcome(intent).Status, intent)
	}
}

func TestFailedRequestIsNotRetried(t *testing.T) {
	var mu sync.Mutex
	calls := make(map[string]int)

	d := newTestDispatcher(t, func(_ context.Context, prompt string) (*ai.Response, error) {
		mu.Lock()
		calls[prompt]++
		mu.Unlock()
		return nil, errors.New("unauthorized")
	})

	require.NoError(t, d.RunDefaultQueries())
	snap := waitFor(t, d, defaultsSettled)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, len(insights.DefaultIntents()))
	for _, intent := range insights.DefaultIntents() {
		assert.Equal(t, insights.StatusFailed, snap.Outcome(intent).Status, intent)
		assert.Equal(t, 1, calls[mustPrompt(t, intent, "")], intent)
	}
}

func TestRunDefaultQueriesGate(t *testing.T) {
	release := make(chan struct{})
	var releaseOnce sync.Once
	t.Cleanup(func() { releaseOnce.Do(func() { close(release) }) })

	d := newTestDispatcher(t, func(ctx context.Context, prompt string) (*ai.Response, error) {
		if strings.Contains(prompt, "Query:") {
			return cardsResponse("custom"), nil
		}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return cardsResponse("A"), nil
	})

	require.NoError(t, d.RunDefaultQueries())
	assert.True(t, d.DefaultsPending())
	assert.ErrorIs(t, d.RunDefaultQueries(), ErrDefaultsPending)

	// custom queries stay available while defaults are in flight
	ok, err := d.RunCustomQuery("fitness apps")
	require.NoError(t, err)
	assert.True(t, ok)
	waitFor(t, d, func(s Snapshot) bool {
		return s.Outcome(insights.IntentCustom).Status == insights.StatusSucceeded
	})
	assert.True(t, d.DefaultsPending())

	releaseOnce.Do(func() { close(release) })
	waitFor(t, d, defaultsSettled)
	assert.False(t, d.DefaultsPending())

	require.NoError(t, d.RunDefaultQueries())
}

func TestRerunDefaultsKeepsCustomOutcome(t *testing.T) {
	d := newTestDispatcher(t, func(_ context.Context, prompt string) (*ai.Response, error) {
		if strings.Contains(prompt, "Query:") {
			return nil, errors.New("boom")
		}
		return cardsResponse("A"), nil
	})

	_, err := d.RunCustomQuery("puzzle games")
	require.NoError(t, err)
	waitFor(t, d, func(s Snapshot) bool { return s.Outcome(insights.IntentCustom).Terminal() })

	require.NoError(t, d.RunDefaultQueries())
	snap := waitFor(t, d, defaultsSettled)

	custom := snap.Outcome(insights.IntentCustom)
	assert.Equal(t, insights.StatusFailed, custom.Status)
	assert.Equal(t, `Failed to get results for "puzzle games".`, custom.Error)
}

func TestRunCustomQueryBlank(t *testing.T) {
	d := newTestDispatcher(t, func(context.Context, string) (*ai.Response, error) {
		t.Error("generator must not be called for a blank query")
		return nil, nil
	})

	for _, text := range []string{"", "   ", "\n\t"} {
		ok, err := d.RunCustomQuery(text)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	snap, err := d.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.ActiveCustomQuery)
	assert.Equal(t, insights.StatusIdle, snap.Outcome(insights.IntentCustom).Status)
}

func TestRunCustomQueryTitleAndTrim(t *testing.T) {
	var mu sync.Mutex
	var prompts []string
	d := newTestDispatcher(t, func(_ context.Context, prompt string) (*ai.Response, error) {
		mu.Lock()
		prompts = append(prompts, prompt)
		mu.Unlock()
		return cardsResponse("Idea"), nil
	})

	ok, err := d.RunCustomQuery("  fitness apps  ")
	require.NoError(t, err)
	require.True(t, ok)

	snap := waitFor(t, d, func(s Snapshot) bool { return s.Outcome(insights.IntentCustom).Terminal() })
	assert.Equal(t, "fitness apps", snap.ActiveCustomQuery)
	assert.Equal(t, `Results for "fitness apps"`, snap.Intents[0].Title)
	assert.False(t, snap.HasSearched)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, prompts, 1)
	assert.Equal(t, mustPrompt(t, insights.IntentCustom, "fitness apps"), prompts[0])
}

func TestStaleCustomResponseDropped(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	releaseFirst := make(chan struct{})
	firstPrompt := mustPrompt(t, insights.IntentCustom, "first")

	d := New(&fakeGenerator{fn: func(_ context.Context, prompt string) (*ai.Response, error) {
		if prompt == firstPrompt {
			<-releaseFirst
			return cardsResponse("stale"), nil
		}
		return cardsResponse("fresh"), nil
	}}, zap.New(core), time.Second)
	t.Cleanup(d.Close)

	_, err := d.RunCustomQuery("first")
	require.NoError(t, err)
	_, err = d.RunCustomQuery("second")
	require.NoError(t, err)

	snap := waitFor(t, d, func(s Snapshot) bool { return s.Outcome(insights.IntentCustom).Terminal() })
	custom := snap.Outcome(insights.IntentCustom)
	require.NotNil(t, custom.Result)
	assert.Equal(t, "fresh", custom.Result.Items[0].Title)
	assert.Equal(t, uint64(2), custom.Generation)

	close(releaseFirst)
	require.Eventually(t, func() bool {
		return logs.FilterMessage("dropping stale response").Len() == 1
	}, 2*time.Second, 5*time.Millisecond)

	snap, err = d.Snapshot()
	require.NoError(t, err)
	custom = snap.Outcome(insights.IntentCustom)
	assert.Equal(t, "fresh", custom.Result.Items[0].Title)
	assert.Equal(t, "second", snap.ActiveCustomQuery)
}

func TestMalformedPayloadSucceedsEmpty(t *testing.T) {
	d := newTestDispatcher(t, func(context.Context, string) (*ai.Response, error) {
		return &ai.Response{Text: "Sorry, nothing to report."}, nil
	})

	_, err := d.RunCustomQuery("anything")
	require.NoError(t, err)

	snap := waitFor(t, d, func(s Snapshot) bool { return s.Outcome(insights.IntentCustom).Terminal() })
	custom := snap.Outcome(insights.IntentCustom)
	assert.Equal(t, insights.StatusSucceeded, custom.Status)
	require.NotNil(t, custom.Result)
	assert.Equal(t, insights.EmptyResult(), *custom.Result)
}

func TestRequestTimeout(t *testing.T) {
	d := New(&fakeGenerator{fn: func(ctx context.Context, _ string) (*ai.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}, zap.NewNop(), 20*time.Millisecond)
	t.Cleanup(d.Close)

	_, err := d.RunCustomQuery("slow")
	require.NoError(t, err)

	snap := waitFor(t, d, func(s Snapshot) bool { return s.Outcome(insights.IntentCustom).Terminal() })
	assert.Equal(t, insights.StatusFailed, snap.Outcome(insights.IntentCustom).Status)
	assert.Equal(t, `Failed to get results for "slow".`, snap.Outcome(insights.IntentCustom).Error)
}

func TestGeneratorPanicBecomesFailure(t *testing.T) {
	d := newTestDispatcher(t, func(context.Context, string) (*ai.Response, error) {
		panic("kaboom")
	})

	_, err := d.RunCustomQuery("crash")
	require.NoError(t, err)

	snap := waitFor(t, d, func(s Snapshot) bool { return s.Outcome(insights.IntentCustom).Terminal() })
	assert.Equal(t, insights.StatusFailed, snap.Outcome(insights.IntentCustom).Status)
}

func TestSubscribe(t *testing.T) {
	d := newTestDispatcher(t, func(context.Context, string) (*ai.Response, error) {
		return cardsResponse("A"), nil
	})

	updates, cancel, err := d.Subscribe()
	require.NoError(t, err)
	defer cancel()

	_, err = d.RunCustomQuery("chat apps")
	require.NoError(t, err)

	recv := func() Update {
		select {
		case u := <-updates:
			return u
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for update")
			return Update{}
		}
	}

	first := recv()
	assert.Equal(t, insights.IntentCustom, first.Intent)
	assert.Equal(t, insights.StatusPending, first.Outcome.Status)
	assert.Equal(t, "chat apps", first.CustomQuery)

	second := recv()
	assert.Equal(t, insights.StatusSucceeded, second.Outcome.Status)
	assert.Equal(t, first.Outcome.RequestID, second.Outcome.RequestID)
}

func TestSubscribeCancel(t *testing.T) {
	d := newTestDispatcher(t, func(context.Context, string) (*ai.Response, error) {
		return cardsResponse("A"), nil
	})

	updates, cancel, err := d.Subscribe()
	require.NoError(t, err)
	cancel()
	cancel()

	_, open := <-updates
	assert.False(t, open)
}

func TestClose(t *testing.T) {
	d := New(&fakeGenerator{fn: func(context.Context, string) (*ai.Response, error) {
		return cardsResponse("A"), nil
	}}, zap.NewNop(), time.Second)

	updates, cancel, err := d.Subscribe()
	require.NoError(t, err)

	d.Close()
	d.Close()

	_, open := <-updates
	assert.False(t, open)
	cancel()

	assert.ErrorIs(t, d.RunDefaultQueries(), ErrClosed)
	_, err = d.RunCustomQuery("late")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = d.Snapshot()
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, d.DefaultsPending())
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/amityadav/trendfinder/internal/ai"
	"github.com/amityadav/trendfinder/internal/config"
	"github.com/amityadav/trendfinder/internal/dispatch"
	"github.com/amityadav/trendfinder/internal/insights"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newDispatcher wires config, logger and generator the same way the server does
func newDispatcher(ctx context.Context) (*dispatch.Dispatcher, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()

	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if flagVerbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}

	gen, err := ai.NewGenerator(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	d := dispatch.New(gen, log, cfg.RequestTimeout)
	return d, func() {
		d.Close()
		_ = log.Sync()
	}, nil
}

// runQueries triggers the intents and prints each section as it settles
func runQueries(d *dispatch.Dispatcher, out io.Writer, intents []insights.Intent, trigger func() error) error {
	updates, cancel, err := d.Subscribe()
	if err != nil {
		return err
	}
	defer cancel()

	if err := trigger(); err != nil {
		return err
	}

	waiting := make(map[insights.Intent]bool, len(intents))
	for _, intent := range intents {
		waiting[intent] = true
	}

	for len(waiting) > 0 {
		u, ok := <-updates
		if !ok {
			return dispatch.ErrClosed
		}
		if !waiting[u.Intent] || !u.Outcome.Terminal() {
			continue
		}
		delete(waiting, u.Intent)
		printSection(out, u.Intent.Title(u.CustomQuery), u.Outcome)
	}
	return nil
}

func printSection(w io.Writer, title string, o insights.Outcome) {
	fmt.Fprintf(w, "== %s ==\n", title)
	defer fmt.Fprintln(w)

	if o.Status == insights.StatusFailed {
		fmt.Fprintf(w, "Error: %s\n", o.Error)
		return
	}
	if o.Result == nil || len(o.Result.Items) == 0 {
		fmt.Fprintln(w, "No results found for this category.")
		return
	}

	for i, card := range o.Result.Items {
		fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, card.Title, card.Description)
	}
	if len(o.Result.Sources) > 0 {
		fmt.Fprintln(w, "Sources from Google Search:")
		for _, s := range o.Result.Sources {
			fmt.Fprintf(w, "  - %s <%s>\n", s.Title, s.URI)
		}
	}
}

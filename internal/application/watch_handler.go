package application

import (
	"context"

	"github.com/cockroachdb/errors"
)

// WatchHandler re-evaluates the report every time it is rewritten.
type WatchHandler struct {
	Summaries *SummaryHandler
}

// Watch evaluates once, then again on every change of the configured
// clover file until ctx is cancelled or the watcher closes.
func (h *WatchHandler) Watch(ctx context.Context, opts WatchOptions, watcher FileWatcher, callback WatchCallback) error {
	logger := orDiscard(h.Summaries.Logger)
	cfg, err := loadConfig(h.Summaries.ConfigLoader, opts.Summary.ConfigPath, opts.Summary.Overrides, logger)
	if err != nil {
		return err
	}

	if err := watcher.Watch(cfg.CloverFile); err != nil {
		return errors.Wrapf(err, "watch %s", cfg.CloverFile)
	}

	run := func(n int) {
		summary, err := h.Summaries.summarize(ctx, cfg, opts.Summary.Repository, logger)
		if callback != nil {
			callback(n, summary, err)
		}
	}

	runNumber := 1
	run(runNumber)

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			run(runNumber)
		}
	}
}

package application

import (
	"context"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/covermon/internal/domain"
)

// SummaryHandler evaluates the current report locally without any
// platform calls. It backs the render and watch commands.
type SummaryHandler struct {
	ConfigLoader ConfigLoader
	Parser       ReportParser
	Renderer     CommentRenderer
	LocalStore   ReportStore
	RemoteStores RemoteStoreFactory
	Logger       *log.Logger
}

// Summarize reads the current and baseline reports and compares them.
func (h *SummaryHandler) Summarize(ctx context.Context, opts SummaryOptions) (Summary, error) {
	logger := orDiscard(h.Logger)
	cfg, err := loadConfig(h.ConfigLoader, opts.ConfigPath, opts.Overrides, logger)
	if err != nil {
		return Summary{}, err
	}
	return h.summarize(ctx, cfg, opts.Repository, logger)
}

func (h *SummaryHandler) summarize(ctx context.Context, cfg Config, repository string, logger *log.Logger) (Summary, error) {
	var repo domain.Repository
	if cfg.Baseline.Remote {
		r, err := parseRepository(repository)
		if err != nil {
			return Summary{}, err
		}
		repo = r
	}

	store, key, err := baselineSource{local: h.LocalStore, remote: h.RemoteStores}.open(ctx, cfg, repo)
	if err != nil {
		return Summary{}, err
	}

	var (
		metric   domain.Metric
		baseline Baseline
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := readMetric(gctx, h.LocalStore, h.Parser, cfg.CloverFile)
		metric = m
		return err
	})
	g.Go(func() error {
		b, err := BaselineResolver{Store: store, Parser: h.Parser, Logger: logger}.Resolve(gctx, key)
		baseline = b
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	return Summary{
		Metric:           metric,
		Baseline:         baseline,
		Comparison:       domain.Evaluate(metric, baseline.Metric),
		Comment:          h.Renderer.Render(metric, cfg.CommentContext),
		ThresholdAlert:   cfg.ThresholdAlert,
		ThresholdWarning: cfg.ThresholdWarning,
	}, nil
}

package application

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/covermon/internal/domain"
)

// MonitorHandler runs the full pull request flow: evaluate the current
// report, reconcile the bot comment and publish the commit status.
type MonitorHandler struct {
	ConfigLoader ConfigLoader
	EventLoader  EventLoader
	Parser       ReportParser
	Renderer     CommentRenderer
	LocalStore   ReportStore
	RemoteStores RemoteStoreFactory
	Platforms    PlatformFactory
	Logger       *log.Logger
}

// Monitor executes one run. Collaborator failures abort the run with the
// first error; nothing is rolled back.
func (h *MonitorHandler) Monitor(ctx context.Context, opts MonitorOptions) (MonitorResult, error) {
	logger := orDiscard(h.Logger)
	cfg, err := loadConfig(h.ConfigLoader, opts.ConfigPath, opts.Overrides, logger)
	if err != nil {
		return MonitorResult{}, err
	}

	pr, err := h.pullRequest(cfg, opts)
	if err != nil {
		return MonitorResult{}, err
	}
	logger.Debug("run started", "repository", pr.Repo.FullName(), "pr", pr.Number, "sha", pr.HeadSHA)

	var platform PlatformClient
	if cfg.NeedsPlatform() {
		if h.Platforms == nil {
			return MonitorResult{}, errors.New("platform client not configured")
		}
		platform, err = h.Platforms(cfg.GitHubToken, cfg.APIURL)
		if err != nil {
			return MonitorResult{}, errors.Wrap(err, "create platform client")
		}
	}

	store, key, err := baselineSource{local: h.LocalStore, remote: h.RemoteStores}.open(ctx, cfg, pr.Repo)
	if err != nil {
		return MonitorResult{}, err
	}

	var (
		metric   domain.Metric
		baseline Baseline
		comments []domain.BotComment
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
	if cfg.Comment {
		g.Go(func() error {
			c, err := platform.ListComments(gctx, pr.Repo, pr.Number)
			if err != nil {
				return errors.Wrap(err, "list comments")
			}
			comments = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MonitorResult{}, err
	}

	comparison := domain.Evaluate(metric, baseline.Metric)
	events := domain.NewEventCollector()
	events.Record(domain.NewCoverageEvaluatedEvent(metric, comparison))
	for _, d := range comparison.Decreases {
		events.Record(domain.NewCoverageRegressedEvent(d))
		logger.Warn("coverage decreased", "category", d.Category, "baseline", d.Baseline, "current", d.Current)
	}
	logger.Info("coverage evaluated", "average", domain.FormatRate(domain.Round2(metric.AverageRate)), "state", comparison.State())

	result := MonitorResult{
		PullRequest: pr,
		Metric:      metric,
		Baseline:    baseline,
		Comparison:  comparison,
		Status:      domain.NewStatusPayload(comparison, pr.URL, cfg.StatusContext),
	}

	if cfg.Comment {
		plan, outcome, err := h.reconcile(ctx, platform, pr, cfg, metric, comments, logger)
		if err != nil {
			return MonitorResult{}, err
		}
		result.Plan = &plan
		result.Comment = outcome
		events.Record(domain.NewCommentsReconciledEvent(plan, outcome.CreatedID))
	}

	if cfg.Check {
		if err := (StatusPublisher{Platform: platform}).Publish(ctx, pr, result.Status); err != nil {
			return MonitorResult{}, err
		}
		result.StatusPublished = true
		logger.Info("status published", "context", result.Status.Context, "state", result.Status.State)
	}

	result.Events = events.Events()
	return result, nil
}

func (h *MonitorHandler) pullRequest(cfg Config, opts MonitorOptions) (domain.PullRequest, error) {
	if opts.EventPath == "" {
		if cfg.NeedsPlatform() {
			return domain.PullRequest{}, errors.New("event payload path is required to comment or publish a status")
		}
		pr := domain.PullRequest{}
		if opts.Repository != "" {
			repo, err := parseRepository(opts.Repository)
			if err != nil {
				return domain.PullRequest{}, err
			}
			pr.Repo = repo
		}
		return pr, nil
	}

	pr, err := h.EventLoader.Load(opts.EventPath)
	if err != nil {
		return domain.PullRequest{}, err
	}
	if pr.Repo.Owner == "" && opts.Repository != "" {
		repo, err := parseRepository(opts.Repository)
		if err != nil {
			return domain.PullRequest{}, err
		}
		pr.Repo = repo
	}
	return pr, nil
}

func (h *MonitorHandler) reconcile(
	ctx context.Context,
	platform PlatformClient,
	pr domain.PullRequest,
	cfg Config,
	metric domain.Metric,
	comments []domain.BotComment,
	logger *log.Logger,
) (domain.ReconcilePlan, ReconcileOutcome, error) {
	body := h.Renderer.Render(metric, cfg.CommentContext)
	rec := domain.NewReconciliation(domain.CommentMarker(cfg.CommentContext), comments)

	plan, err := rec.Plan(cfg.CommentMode, body)
	if err != nil {
		return domain.ReconcilePlan{}, ReconcileOutcome{}, err
	}
	logger.Debug("comment plan", "strategy", plan.Strategy, "owned", len(rec.Owned()), "deletes", len(plan.Deletes), "update", plan.UpdateID, "insert", plan.Insert)

	outcome, err := CommentReconciler{Platform: platform, Logger: logger}.Apply(ctx, pr, plan)
	if err != nil {
		return domain.ReconcilePlan{}, ReconcileOutcome{}, err
	}
	if err := rec.MarkApplied(); err != nil {
		return domain.ReconcilePlan{}, ReconcileOutcome{}, err
	}
	logger.Info("comment reconciled", "strategy", plan.Strategy, "comment", outcome.CommentID())
	return plan, outcome, nil
}

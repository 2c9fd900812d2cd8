package application

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/felixgeelhaar/covermon/internal/domain"
)

// BaselineResolver turns a stored report into a baseline metric. A missing or
// unparsable report is not an error: the baseline is reported as absent.
// Store transport failures are returned and abort the run.
type BaselineResolver struct {
	Store  ReportStore
	Parser ReportParser
	Logger *log.Logger
}

// Resolve loads and parses the baseline stored under key.
func (r BaselineResolver) Resolve(ctx context.Context, key string) (Baseline, error) {
	logger := orDiscard(r.Logger)
	location := r.Store.Location(key)

	data, err := r.Store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			logger.Info("no baseline report, skipping comparison", "location", location)
			return absentBaseline(location, err), nil
		}
		return Baseline{}, errors.Wrapf(err, "read baseline %s", location)
	}

	raw, err := r.Parser.Parse(data)
	if err != nil {
		logger.Warn("baseline report is unparsable, skipping comparison", "location", location, "err", err)
		return absentBaseline(location, err), nil
	}

	metric := domain.CalculateMetric(raw)
	logger.Debug("baseline resolved", "location", location, "average", metric.AverageRate)
	return Baseline{Metric: &metric, Location: location}, nil
}

func absentBaseline(location string, cause error) Baseline {
	return Baseline{
		Location:    location,
		Unavailable: errors.Mark(errors.Wrapf(cause, "baseline %s", location), domain.ErrBaselineUnavailable),
	}
}

// baselineSource selects the store and key holding the baseline for cfg.
type baselineSource struct {
	local  ReportStore
	remote RemoteStoreFactory
}

func (s baselineSource) open(ctx context.Context, cfg Config, repo domain.Repository) (ReportStore, string, error) {
	if !cfg.Baseline.Remote {
		return s.local, cfg.OriginalCloverFile, nil
	}
	if s.remote == nil {
		return nil, "", errors.New("remote baseline store not configured")
	}
	if repo.Owner == "" || repo.Name == "" {
		return nil, "", errors.New("remote baseline requires a repository (owner/name)")
	}
	store, err := s.remote(ctx, cfg.Baseline.Bucket)
	if err != nil {
		return nil, "", errors.Mark(errors.Wrap(err, "open baseline bucket"), domain.ErrCollaborator)
	}
	return store, cfg.BaselineKey(repo), nil
}

// BaselineHandler stores the current report as the baseline.
type BaselineHandler struct {
	ConfigLoader ConfigLoader
	Parser       ReportParser
	LocalStore   ReportStore
	RemoteStores RemoteStoreFactory
	Logger       *log.Logger
}

// Push validates the current report and writes it to the baseline location.
// Main-branch runs use it so later PR runs have something to compare with.
func (h *BaselineHandler) Push(ctx context.Context, opts PushOptions) (PushResult, error) {
	logger := orDiscard(h.Logger)
	cfg, err := loadConfig(h.ConfigLoader, opts.ConfigPath, opts.Overrides, logger)
	if err != nil {
		return PushResult{}, err
	}

	var repo domain.Repository
	if cfg.Baseline.Remote {
		repo, err = parseRepository(opts.Repository)
		if err != nil {
			return PushResult{}, err
		}
	}

	data, err := h.LocalStore.Load(ctx, cfg.CloverFile)
	if err != nil {
		return PushResult{}, errors.Wrapf(err, "read clover file %s", cfg.CloverFile)
	}
	if _, err := h.Parser.Parse(data); err != nil {
		return PushResult{}, errors.Wrapf(err, "refusing to store clover file %s", cfg.CloverFile)
	}

	store, key, err := baselineSource{local: h.LocalStore, remote: h.RemoteStores}.open(ctx, cfg, repo)
	if err != nil {
		return PushResult{}, err
	}
	if err := store.Save(ctx, key, data); err != nil {
		return PushResult{}, errors.Wrapf(err, "store baseline %s", store.Location(key))
	}

	logger.Info("baseline stored", "location", store.Location(key))
	return PushResult{Location: store.Location(key)}, nil
}

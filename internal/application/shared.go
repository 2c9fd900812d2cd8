package application

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/felixgeelhaar/covermon/internal/domain"
)

// loadConfig loads config from path, applies command line overrides and
// validates the result.
func loadConfig(loader ConfigLoader, configPath string, overrides Overrides, logger *log.Logger) (Config, error) {
	cfg, err := loader.Load(configPath)
	if err != nil {
		return Config{}, err
	}
	cfg = applyOverrides(cfg, overrides, logger)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyOverrides(cfg Config, o Overrides, logger *log.Logger) Config {
	if o.CloverFile != "" {
		cfg.CloverFile = o.CloverFile
	}
	if o.OriginalCloverFile != "" {
		cfg.OriginalCloverFile = o.OriginalCloverFile
	}
	if o.CommentContext != "" {
		cfg.CommentContext = o.CommentContext
	}
	if o.CommentMode != "" {
		mode, ok := domain.ParseStrategy(o.CommentMode)
		if !ok {
			logger.Warn("unknown comment mode, using replace", "comment_mode", o.CommentMode)
		}
		cfg.CommentMode = mode
	}
	return cfg
}

// parseRepository splits "owner/name".
func parseRepository(fullName string) (domain.Repository, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return domain.Repository{}, errors.Newf("invalid repository %q: expected owner/name", fullName)
	}
	return domain.Repository{Owner: parts[0], Name: parts[1]}, nil
}

// readMetric loads and parses the current report. Any failure is fatal.
func readMetric(ctx context.Context, store ReportStore, parser ReportParser, key string) (domain.Metric, error) {
	data, err := store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			return domain.Metric{}, errors.Wrapf(err, "clover file %s", key)
		}
		return domain.Metric{}, errors.Wrapf(err, "read clover file %s", key)
	}
	raw, err := parser.Parse(data)
	if err != nil {
		return domain.Metric{}, errors.Wrapf(err, "parse clover file %s", key)
	}
	return domain.CalculateMetric(raw), nil
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger != nil {
		return logger
	}
	return log.New(io.Discard)
}

package application

import (
	"context"
	"io"
	"path"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/felixgeelhaar/covermon/internal/domain"
)

type OutputFormat string

const (
	OutputText     OutputFormat = "text"
	OutputJSON     OutputFormat = "json"
	OutputBrief    OutputFormat = "brief"
	OutputMarkdown OutputFormat = "markdown"
	OutputHTML     OutputFormat = "html"
)

var (
	ErrConfigNotFound = errors.New("config not found")
	// ErrInvalidConfig marks configuration rejected by validation.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrReportNotFound is returned by a ReportStore when the key does not exist.
	ErrReportNotFound = errors.New("report not found")
)

// Defaults mirror the inputs of the published action.
const (
	DefaultThresholdAlert   = 90
	DefaultThresholdWarning = 50
	DefaultContext          = "Coverage Report"
)

// BaselinePrefix is the fixed object prefix remote baselines are stored under.
const BaselinePrefix = "covermon/baselines"

// Config represents validated, application-ready configuration.
type Config struct {
	Comment            bool
	Check              bool
	GitHubToken        string
	APIURL             string          `validate:"omitempty,url"` // empty for github.com
	CloverFile         string          `validate:"required"`
	OriginalCloverFile string          `validate:"required"`
	ThresholdAlert     int             `validate:"gte=0,lte=100"`
	ThresholdWarning   int             `validate:"gte=0,lte=100,ltefield=ThresholdAlert"`
	StatusContext      string          `validate:"required"`
	CommentContext     string          `validate:"required"`
	CommentMode        domain.Strategy `validate:"oneof=replace update insert"`
	Baseline           BaselineConfig
}

// BaselineConfig selects where the baseline report lives.
type BaselineConfig struct {
	Remote bool   // read from object storage instead of OriginalCloverFile
	Bucket string `validate:"required_if=Remote true"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		ThresholdAlert:   DefaultThresholdAlert,
		ThresholdWarning: DefaultThresholdWarning,
		StatusContext:    DefaultContext,
		CommentContext:   DefaultContext,
		CommentMode:      domain.StrategyReplace,
	}
}

// BaselineKey is the object key of the remote baseline for repo:
// BaselinePrefix/owner/name/<base name of OriginalCloverFile>.
func (c Config) BaselineKey(repo domain.Repository) string {
	return path.Join(BaselinePrefix, repo.Owner, repo.Name, filepath.Base(c.OriginalCloverFile))
}

// NeedsPlatform reports whether the run talks to the hosting platform.
func (c Config) NeedsPlatform() bool {
	return c.Comment || c.Check
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

// EventLoader reads the triggering event and extracts the pull request.
// It fails with domain.ErrUnsupportedEvent for anything but a pull request.
type EventLoader interface {
	Load(path string) (domain.PullRequest, error)
}

// ReportParser turns raw report text into counters.
// Failures are marked with domain.ErrMalformedReport.
type ReportParser interface {
	Parse(data []byte) (domain.RawCounts, error)
}

// ReportStore reads and writes report documents by key.
// Load returns ErrReportNotFound when the key does not exist.
type ReportStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	// Location renders key for logs and command output.
	Location(key string) string
}

// RemoteStoreFactory opens the object store holding remote baselines.
type RemoteStoreFactory func(ctx context.Context, bucket string) (ReportStore, error)

// PlatformClient is the hosting platform API used by a run.
// Every method is a blocking call; failures are marked with domain.ErrCollaborator.
type PlatformClient interface {
	// ListComments returns the PR conversation comments, oldest first.
	ListComments(ctx context.Context, repo domain.Repository, prNumber int) ([]domain.BotComment, error)
	CreateComment(ctx context.Context, repo domain.Repository, prNumber int, body string) (int64, error)
	UpdateComment(ctx context.Context, repo domain.Repository, commentID int64, body string) error
	DeleteComment(ctx context.Context, repo domain.Repository, commentID int64) error
	CreateStatus(ctx context.Context, repo domain.Repository, sha string, status domain.StatusPayload) error
}

// PlatformFactory builds a PlatformClient for the given token and API URL.
type PlatformFactory func(token, apiURL string) (PlatformClient, error)

// CommentRenderer generates the markdown body of the PR comment.
// The body must start with domain.CommentMarker(commentContext).
type CommentRenderer interface {
	Render(metric domain.Metric, commentContext string) string
}

// Reporter writes a summary in the requested format.
type Reporter interface {
	Write(w io.Writer, summary Summary, format OutputFormat) error
}

// FileWatcher provides file change notifications.
type FileWatcher interface {
	Watch(path string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// WatchCallback is called after every evaluation in watch mode.
type WatchCallback func(runNumber int, summary Summary, err error)

// Baseline is the outcome of baseline resolution: either a metric or an
// absence reason marked with domain.ErrBaselineUnavailable.
type Baseline struct {
	Metric      *domain.Metric `json:"metric,omitempty"`
	Location    string         `json:"location,omitempty"`
	Unavailable error          `json:"-"`
}

// Present reports whether a baseline metric was resolved.
func (b Baseline) Present() bool {
	return b.Metric != nil
}

// MonitorOptions configures a full CI run.
type MonitorOptions struct {
	ConfigPath string
	EventPath  string
	// Repository ("owner/name") is used when the event payload has none.
	Repository string
	Overrides  Overrides
}

// Overrides are explicit command line values layered over the loaded config.
type Overrides struct {
	CloverFile         string
	OriginalCloverFile string
	CommentContext     string
	CommentMode        string
}

// MonitorResult describes everything a run produced.
type MonitorResult struct {
	PullRequest     domain.PullRequest      `json:"pullRequest"`
	Metric          domain.Metric           `json:"metric"`
	Baseline        Baseline                `json:"baseline"`
	Comparison      domain.ComparisonResult `json:"comparison"`
	Status          domain.StatusPayload    `json:"status"`
	StatusPublished bool                    `json:"statusPublished"`
	Plan            *domain.ReconcilePlan   `json:"plan,omitempty"`
	Comment         ReconcileOutcome        `json:"comment"`
	Events          []domain.DomainEvent    `json:"-"`
}

// SummaryOptions configures a local evaluation without platform calls.
type SummaryOptions struct {
	ConfigPath string
	Repository string
	Overrides  Overrides
}

// Summary is a local evaluation of the current report.
type Summary struct {
	Metric           domain.Metric           `json:"metric"`
	Baseline         Baseline                `json:"baseline"`
	Comparison       domain.ComparisonResult `json:"comparison"`
	Comment          string                  `json:"comment"`
	ThresholdAlert   int                     `json:"thresholdAlert"`
	ThresholdWarning int                     `json:"thresholdWarning"`
}

// PushOptions configures storing the current report as the baseline.
type PushOptions struct {
	ConfigPath string
	Repository string
	Overrides  Overrides
}

// PushResult reports where the baseline was written.
type PushResult struct {
	Location string `json:"location"`
}

// WatchOptions configures watch mode behavior.
type WatchOptions struct {
	Summary SummaryOptions
}

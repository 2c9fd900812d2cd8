package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/felixgeelhaar/covermon/internal/application"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/comment"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/config"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/gcs"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/github"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/parsers/clover"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/report"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/reportstore"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/watcher"
)

// Exit codes returned by Run.
const (
	ExitOK         = 0
	ExitRegression = 1
	ExitUsage      = 2
	ExitFailure    = 3
)

type Service interface {
	Monitor(ctx context.Context, opts application.MonitorOptions) (application.MonitorResult, error)
	Summarize(ctx context.Context, opts application.SummaryOptions) (application.Summary, error)
	Render(ctx context.Context, opts application.SummaryOptions, format application.OutputFormat) (application.Summary, error)
	PushBaseline(ctx context.Context, opts application.PushOptions) (application.PushResult, error)
	Watch(ctx context.Context, opts application.WatchOptions, watcher application.FileWatcher, callback application.WatchCallback) error
	Log() *log.Logger
}

var newWatcher = func(logger *log.Logger) (application.FileWatcher, error) {
	return watcher.New(watcher.WithDebounce(500*time.Millisecond), watcher.WithLogger(logger))
}

var errRegression = errors.New("coverage decreased against the baseline")

// Run executes the command line and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer, svc Service) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(svc, stdout, stderr)
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	return exitCode(root.ExecuteContext(ctx), stderr)
}

func newRootCmd(svc Service, stdout, stderr io.Writer) *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "covermon",
		Short:         "Compare Clover coverage against a baseline and report it on pull requests",
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := resolveLevel(logLevel, os.Getenv("RUNNER_DEBUG"))
			if err != nil {
				return withCode(ExitUsage, err)
			}
			svc.Log().SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(stderr, cmd.UsageString())
			return &exitError{code: ExitUsage}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")

	root.AddCommand(
		newRunCmd(svc, stdout),
		newRenderCmd(svc),
		newBadgeCmd(svc, stdout),
		newBaselineCmd(svc, stdout),
		newWatchCmd(svc, stdout, stderr),
		newInitCmd(stdout),
		newVersionCmd(stdout),
	)
	return root
}

// BuildService wires the production adapters. Logs go to logOut.
func BuildService(out, logOut io.Writer) *application.Service {
	logger := log.NewWithOptions(logOut, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "covermon",
	})
	return &application.Service{
		ConfigLoader: config.Loader{},
		EventLoader:  github.EventLoader{},
		Parser:       clover.New(),
		Renderer:     comment.Renderer{},
		LocalStore:   &reportstore.FileStore{},
		RemoteStores: gcs.Factory(option.WithUserAgent("covermon/" + Version)),
		Platforms:    github.Factory,
		Reporter:     report.Writer{},
		Logger:       logger,
		Out:          out,
	}
}

// resolveLevel honours RUNNER_DEBUG=1, which the Actions runner sets when
// debug logging is enabled for a re-run.
func resolveLevel(flag, runnerDebug string) (log.Level, error) {
	if runnerDebug == "1" {
		return log.DebugLevel, nil
	}
	level, err := log.ParseLevel(strings.ToLower(flag))
	if err != nil {
		return log.InfoLevel, errors.Newf("invalid log level %q", flag)
	}
	return level, nil
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// failure classifies a service error: configuration problems are usage
// errors, everything else failed the run.
func failure(err error) error {
	if errors.Is(err, application.ErrInvalidConfig) || errors.Is(err, application.ErrConfigNotFound) {
		return withCode(ExitUsage, err)
	}
	return withCode(ExitFailure, err)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, ee.err)
		}
		return ee.code
	}
	// Unknown commands, bad flags and argument counts come from cobra.
	fmt.Fprintln(stderr, err)
	return ExitUsage
}

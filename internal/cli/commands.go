package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/covermon/internal/application"
	"github.com/felixgeelhaar/covermon/internal/domain"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/actions"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/badge"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/config"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/report"
)

// reportFlags are shared by every command that reads the reports.
type reportFlags struct {
	configPath string
	repository string
	overrides  application.Overrides
}

func (f *reportFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", config.DefaultPath, "Config file path")
	fs.StringVar(&f.repository, "repo", os.Getenv("GITHUB_REPOSITORY"), "Repository as owner/name")
	fs.StringVar(&f.overrides.CloverFile, "clover-file", "", "Current Clover report")
	fs.StringVar(&f.overrides.OriginalCloverFile, "original-clover-file", "", "Baseline Clover report")
	fs.StringVar(&f.overrides.CommentContext, "comment-context", "", "Heading and marker of the comment")
	fs.StringVar(&f.overrides.CommentMode, "comment-mode", "", "Comment mode: replace|update|insert")
}

func (f *reportFlags) summary() application.SummaryOptions {
	return application.SummaryOptions{ConfigPath: f.configPath, Repository: f.repository, Overrides: f.overrides}
}

func newRunCmd(svc Service, stdout io.Writer) *cobra.Command {
	var (
		flags     reportFlags
		eventPath string
		output    string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate coverage, reconcile the pull request comment and publish the status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(output, application.OutputText, application.OutputJSON)
			if err != nil {
				return withCode(ExitUsage, err)
			}
			result, err := svc.Monitor(cmd.Context(), application.MonitorOptions{
				ConfigPath: flags.configPath,
				EventPath:  eventPath,
				Repository: flags.repository,
				Overrides:  flags.overrides,
			})
			if err != nil {
				return failure(err)
			}

			outputs := actions.FromEnv(os.Getenv)
			if err := outputs.WriteResult(result); err != nil {
				return withCode(ExitFailure, err)
			}
			if result.Plan != nil {
				if err := outputs.WriteSummary(result.Plan.Body); err != nil {
					return withCode(ExitFailure, err)
				}
			}

			if err := printRunResult(stdout, result, format); err != nil {
				return withCode(ExitFailure, err)
			}
			if !result.Comparison.Succeeded {
				return withCode(ExitRegression, errRegression)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&eventPath, "event", os.Getenv("GITHUB_EVENT_PATH"), "Path of the triggering event payload")
	cmd.Flags().StringVarP(&output, "output", "o", string(application.OutputText), "Output format: text|json")
	return cmd
}

func newRenderCmd(svc Service) *cobra.Command {
	var (
		flags  reportFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Evaluate coverage locally and print the comment or a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseFormat(format,
				application.OutputMarkdown, application.OutputHTML, application.OutputText,
				application.OutputJSON, application.OutputBrief)
			if err != nil {
				return withCode(ExitUsage, err)
			}
			_, err = svc.Render(cmd.Context(), flags.summary(), f)
			return failure(err)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", string(application.OutputMarkdown), "Output format: markdown|html|text|json|brief")
	return cmd
}

func newBadgeCmd(svc Service, stdout io.Writer) *cobra.Command {
	var (
		flags  reportFlags
		output string
		label  string
		style  string
	)
	cmd := &cobra.Command{
		Use:   "badge",
		Short: "Generate an SVG badge for the average coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			badgeStyle, err := parseStyle(style)
			if err != nil {
				return withCode(ExitUsage, err)
			}
			summary, err := svc.Summarize(cmd.Context(), flags.summary())
			if err != nil {
				return failure(err)
			}
			opts := badge.Options{Label: label, Metric: summary.Metric, Style: badgeStyle}
			if output == "-" {
				return withCode(ExitFailure, badge.Generate(stdout, opts))
			}
			if err := writeBadgeFile(output, opts); err != nil {
				return withCode(ExitFailure, err)
			}
			fmt.Fprintf(stdout, "Badge written to %s (%s)\n", output, domain.FormatRate(domain.Round2(summary.Metric.AverageRate))+"%")
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "coverage.svg", "Output file path, - for stdout")
	cmd.Flags().StringVar(&label, "label", "coverage", "Badge label text")
	cmd.Flags().StringVar(&style, "style", string(badge.StyleFlat), "Badge style: flat|flat-square")
	return cmd
}

func newBaselineCmd(svc Service, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage the baseline report",
	}

	var flags reportFlags
	push := &cobra.Command{
		Use:   "push",
		Short: "Store the current report as the baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := svc.PushBaseline(cmd.Context(), application.PushOptions{
				ConfigPath: flags.configPath,
				Repository: flags.repository,
				Overrides:  flags.overrides,
			})
			if err != nil {
				return failure(err)
			}
			fmt.Fprintf(stdout, "Baseline stored at %s\n", result.Location)
			return nil
		},
	}
	flags.register(push)
	cmd.AddCommand(push)
	return cmd
}

func newWatchCmd(svc Service, stdout, stderr io.Writer) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate coverage whenever the report changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := newWatcher(svc.Log())
			if err != nil {
				return withCode(ExitFailure, err)
			}
			defer w.Close()

			fmt.Fprintln(stdout, "Watching for report changes... (Ctrl+C to stop)")
			callback := func(runNumber int, summary application.Summary, runErr error) {
				fmt.Fprintf(stdout, "\n--- Run #%d at %s ---\n", runNumber, time.Now().Format("15:04:05"))
				if runErr != nil {
					fmt.Fprintf(stderr, "evaluation failed: %v\n", runErr)
					return
				}
				if err := (report.Writer{}).Write(stdout, summary, application.OutputText); err != nil {
					fmt.Fprintf(stderr, "write summary: %v\n", err)
				}
			}

			err = svc.Watch(cmd.Context(), application.WatchOptions{Summary: flags.summary()}, w, callback)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(stdout, "\nStopping watch mode...")
				return nil
			}
			return failure(err)
		},
	}
	flags.register(cmd)
	return cmd
}

func newInitCmd(stdout io.Writer) *cobra.Command {
	var (
		configPath string
		force      bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := writeConfigFile(configPath, application.DefaultConfig(), stdout, force); err != nil {
				return withCode(ExitUsage, err)
			}
			if configPath != "-" {
				fmt.Fprintf(stdout, "Config written to %s\n", configPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Config file path, - for stdout")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func parseFormat(value string, allowed ...application.OutputFormat) (application.OutputFormat, error) {
	names := make([]string, 0, len(allowed))
	for _, f := range allowed {
		if string(f) == value {
			return f, nil
		}
		names = append(names, string(f))
	}
	return "", errors.Newf("invalid output format %q: expected %s", value, strings.Join(names, "|"))
}

func parseStyle(value string) (badge.Style, error) {
	switch badge.Style(value) {
	case badge.StyleFlat, badge.StyleFlatSquare:
		return badge.Style(value), nil
	default:
		return "", errors.Newf("invalid badge style %q: expected flat|flat-square", value)
	}
}

func printRunResult(w io.Writer, result application.MonitorResult, format application.OutputFormat) error {
	if format == application.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(w, "Coverage %s: %s%% average\n",
		strings.ToUpper(string(result.Comparison.State())),
		domain.FormatRate(domain.Round2(result.Metric.AverageRate)))
	fmt.Fprintln(w, result.Comparison.Description)
	if !result.Baseline.Present() {
		fmt.Fprintln(w, "Baseline: none")
	}
	if result.Plan != nil {
		c := result.Comment
		switch {
		case c.UpdatedID != 0:
			fmt.Fprintf(w, "Comment: updated %d", c.UpdatedID)
		case c.CreatedID != 0:
			fmt.Fprintf(w, "Comment: created %d", c.CreatedID)
		default:
			fmt.Fprint(w, "Comment: unchanged")
		}
		if len(c.Deleted) > 0 {
			fmt.Fprintf(w, ", deleted %d", len(c.Deleted))
		}
		fmt.Fprintln(w)
	}
	if result.StatusPublished {
		fmt.Fprintf(w, "Status: %s published for %s\n", result.Status.State, result.PullRequest.HeadSHA)
	}
	return nil
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer, force bool) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.Newf("config %s already exists (use --force to overwrite)", path)
		}
	}
	file, err := os.Create(path) // #nosec G304 - user supplied config path
	if err != nil {
		return err
	}
	defer file.Close()
	return config.Write(file, cfg)
}

func writeBadgeFile(path string, opts badge.Options) error {
	file, err := os.Create(path) // #nosec G304 - user supplied output path
	if err != nil {
		return err
	}
	defer file.Close()
	return badge.Generate(file, opts)
}

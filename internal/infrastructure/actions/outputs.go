// Package actions writes step outputs and the job summary of a GitHub
// Actions run.
package actions

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/felixgeelhaar/covermon/internal/application"
	"github.com/felixgeelhaar/covermon/internal/domain"
)

// FileOutputWriter appends to the files named by $GITHUB_OUTPUT and
// $GITHUB_STEP_SUMMARY. An empty path disables that half.
type FileOutputWriter struct {
	OutputPath  string
	SummaryPath string
}

// FromEnv returns a writer for the current runner environment.
func FromEnv(getenv func(string) string) FileOutputWriter {
	if getenv == nil {
		getenv = os.Getenv
	}
	return FileOutputWriter{
		OutputPath:  getenv("GITHUB_OUTPUT"),
		SummaryPath: getenv("GITHUB_STEP_SUMMARY"),
	}
}

// Enabled reports whether any output file is configured.
func (w FileOutputWriter) Enabled() bool {
	return w.OutputPath != "" || w.SummaryPath != ""
}

// WriteOutput appends key=value, or the heredoc form for multiline values.
func (w FileOutputWriter) WriteOutput(key, value string) error {
	if w.OutputPath == "" {
		return nil
	}
	return appendFile(w.OutputPath, formatOutput(key, value))
}

// WriteSummary appends markdown to the job summary.
func (w FileOutputWriter) WriteSummary(content string) error {
	if w.SummaryPath == "" {
		return nil
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return appendFile(w.SummaryPath, content)
}

// WriteResult publishes the outputs of a monitor run.
func (w FileOutputWriter) WriteResult(result application.MonitorResult) error {
	outputs := []struct{ key, value string }{
		{"state", string(result.Comparison.State())},
		{"description", result.Comparison.Description},
		{"average_rate", domain.FormatRate(domain.Round2(result.Metric.AverageRate))},
		{"comment_id", commentID(result.Comment)},
	}
	for _, o := range outputs {
		if err := w.WriteOutput(o.key, o.value); err != nil {
			return err
		}
	}
	return nil
}

func commentID(outcome application.ReconcileOutcome) string {
	if id := outcome.CommentID(); id != 0 {
		return strconv.FormatInt(id, 10)
	}
	return ""
}

func formatOutput(key, value string) string {
	if !strings.Contains(value, "\n") {
		return fmt.Sprintf("%s=%s\n", key, value)
	}
	delimiter := "EOF"
	for strings.Contains(value, delimiter) {
		delimiter += "_"
	}
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", key, delimiter, value, delimiter)
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G304 - path set by the runner
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

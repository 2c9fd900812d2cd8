package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/covermon/internal/application"
	"github.com/felixgeelhaar/covermon/internal/domain"
)

type Writer struct{}

var categories = []struct {
	category domain.Category
	label    string
}{
	{domain.CategoryStatements, "Statements"},
	{domain.CategoryLines, "Lines"},
	{domain.CategoryMethods, "Methods"},
	{domain.CategoryBranches, "Branches"},
}

func (Writer) Write(w io.Writer, summary application.Summary, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		payload := struct {
			application.Summary
			State       domain.StatusState `json:"state"`
			AverageRate float64            `json:"averageRate"`
		}{
			Summary:     summary,
			State:       summary.Comparison.State(),
			AverageRate: domain.Round2(summary.Metric.AverageRate),
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case application.OutputMarkdown:
		_, err := io.WriteString(w, summary.Comment)
		return err
	case application.OutputHTML:
		return writeHTML(w, summary)
	case application.OutputBrief:
		return writeBrief(w, summary)
	case application.OutputText, "":
		return writeText(w, summary)
	default:
		return errors.Newf("unsupported output format: %s", format)
	}
}

// Level grades a rate against the alert and warning thresholds.
type Level string

const (
	LevelGood Level = "good"
	LevelWarn Level = "warn"
	LevelLow  Level = "low"
)

// LevelFor returns LevelGood at or above alert, LevelWarn at or above
// warning, LevelLow otherwise.
func LevelFor(rate float64, alert, warning int) Level {
	switch {
	case rate >= float64(alert):
		return LevelGood
	case rate >= float64(warning):
		return LevelWarn
	default:
		return LevelLow
	}
}

var levelStyles = map[Level]lipgloss.Style{
	LevelGood: lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true),
	LevelWarn: lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true),
	LevelLow:  lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true),
}

func writeText(w io.Writer, s application.Summary) error {
	colorize := colorEnabled(w)
	paint := func(rate float64, text string) string {
		if !colorize {
			return text
		}
		return levelStyles[LevelFor(rate, s.ThresholdAlert, s.ThresholdWarning)].Render(text)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if s.Baseline.Present() {
		_, _ = fmt.Fprintln(tw, "Category\tCoverage\tCovered\tBaseline\tDelta")
	} else {
		_, _ = fmt.Fprintln(tw, "Category\tCoverage\tCovered")
	}
	for _, c := range categories {
		cur := s.Metric.Category(c.category)
		rate := paint(cur.Rate, domain.FormatRate(cur.Rate)+"%")
		if s.Baseline.Present() {
			was := s.Baseline.Metric.Category(c.category).Rate
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s%%\t%+.2f%%\n", c.label, rate, cur.Covered, cur.Total, domain.FormatRate(was), domain.Round2(cur.Rate-was))
		} else {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d/%d\n", c.label, rate, cur.Covered, cur.Total)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	avg := domain.Round2(s.Metric.AverageRate)
	fmt.Fprintf(w, "\nAverage: %s\n", paint(avg, domain.FormatRate(avg)+"%"))
	if !s.Baseline.Present() {
		fmt.Fprintln(w, "Baseline: none")
	}

	state := strings.ToUpper(string(s.Comparison.State()))
	if colorize {
		style := levelStyles[LevelGood]
		if !s.Comparison.Succeeded {
			style = levelStyles[LevelLow]
		}
		state = style.Render(state)
	}
	fmt.Fprintf(w, "Status: %s\n", state)
	for _, d := range s.Comparison.Decreases {
		fmt.Fprintf(w, "  - %s decreased by %s%%\n", d.Category, domain.FormatRate(d.Delta))
	}
	return nil
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// writeBrief prints one line:
// STATE | XX% average | statements XX% lines XX% methods XX% branches XX% [| decreased: cat (-X%), ...]
func writeBrief(w io.Writer, s application.Summary) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s | %s%% average |", strings.ToUpper(string(s.Comparison.State())), domain.FormatRate(domain.Round2(s.Metric.AverageRate)))
	for _, c := range categories {
		fmt.Fprintf(&sb, " %s %s%%", c.category, domain.FormatRate(s.Metric.Category(c.category).Rate))
	}
	if len(s.Comparison.Decreases) > 0 {
		sb.WriteString(" | decreased:")
		for i, d := range s.Comparison.Decreases {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, " %s (-%s%%)", d.Category, domain.FormatRate(d.Delta))
		}
	}
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

package domain

import (
	"fmt"
	"strings"
)

// StatusState is the commit status state published for a run.
type StatusState string

const (
	StateSuccess StatusState = "success"
	StateFailure StatusState = "failure"
)

// Decrease records a strict drop of one category rate against the baseline.
type Decrease struct {
	Category Category `json:"category"`
	Baseline float64  `json:"baseline"`
	Current  float64  `json:"current"`
	Delta    float64  `json:"delta"`
}

// ComparisonResult is the outcome of evaluating a metric against a baseline.
type ComparisonResult struct {
	Succeeded   bool       `json:"succeeded"`
	Description string     `json:"description"`
	Decreases   []Decrease `json:"decreases,omitempty"`
	HasBaseline bool       `json:"hasBaseline"`
}

// State maps the result to a commit status state.
func (r ComparisonResult) State() StatusState {
	if r.Succeeded {
		return StateSuccess
	}
	return StateFailure
}

// regressionOrder fixes the order in which decreases are checked and described.
var regressionOrder = []struct {
	category Category
	label    string
}{
	{CategoryBranches, "Branches Coverage"},
	{CategoryLines, "Line Coverage"},
	{CategoryMethods, "Methods Coverage"},
	{CategoryStatements, "Statements Coverage"},
}

// Evaluate compares current against baseline. A nil baseline always succeeds.
// Each category is compared only with its own baseline counterpart and only a
// strict decrease counts as a regression.
func Evaluate(current Metric, baseline *Metric) ComparisonResult {
	if baseline == nil {
		return ComparisonResult{
			Succeeded:   true,
			Description: successDescription(current),
		}
	}

	var decreases []Decrease
	for _, entry := range regressionOrder {
		was := baseline.Category(entry.category).Rate
		now := current.Category(entry.category).Rate
		if was > now {
			decreases = append(decreases, Decrease{
				Category: entry.category,
				Baseline: was,
				Current:  now,
				Delta:    Round2(was - now),
			})
		}
	}

	if len(decreases) == 0 {
		return ComparisonResult{
			Succeeded:   true,
			Description: successDescription(current),
			HasBaseline: true,
		}
	}

	return ComparisonResult{
		Succeeded:   false,
		Description: failureDescription(decreases),
		Decreases:   decreases,
		HasBaseline: true,
	}
}

func successDescription(m Metric) string {
	return fmt.Sprintf("Success: \nLine Coverage - %s%%,\nStatement Coverage - %s%%,\nMethods Coverage - %s%%,\nBranches Coverage - %s%%",
		FormatRate(m.Lines.Rate),
		FormatRate(m.Statements.Rate),
		FormatRate(m.Methods.Rate),
		FormatRate(m.Branches.Rate),
	)
}

func failureDescription(decreases []Decrease) string {
	var sb strings.Builder
	sb.WriteString("Failure: ")
	for _, d := range decreases {
		sb.WriteString(fmt.Sprintf("\n%s decrease - %s%%", labelFor(d.Category), FormatRate(d.Delta)))
	}
	return sb.String()
}

func labelFor(c Category) string {
	for _, entry := range regressionOrder {
		if entry.category == c {
			return entry.label
		}
	}
	return string(c)
}

// MaxStatusDescription is the longest description the status API accepts.
const MaxStatusDescription = 140

// StatusPayload is the commit status published for the PR head commit.
type StatusPayload struct {
	State       StatusState `json:"state"`
	Description string      `json:"description"`
	TargetURL   string      `json:"target_url"`
	Context     string      `json:"context"`
}

// NewStatusPayload maps a comparison result onto the status payload shape.
func NewStatusPayload(result ComparisonResult, targetURL, statusContext string) StatusPayload {
	return StatusPayload{
		State:       result.State(),
		Description: result.Description,
		TargetURL:   targetURL,
		Context:     statusContext,
	}
}

// Truncated returns a copy whose description fits MaxStatusDescription runes.
func (p StatusPayload) Truncated() StatusPayload {
	runes := []rune(p.Description)
	if len(runes) <= MaxStatusDescription {
		return p
	}
	p.Description = string(runes[:MaxStatusDescription-1]) + "…"
	return p
}

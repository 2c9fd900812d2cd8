// Package comment renders the pull request comment body.
package comment

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/covermon/internal/domain"
)

const badgeBase = "https://img.shields.io/static/v1"

// Renderer implements application.CommentRenderer.
type Renderer struct{}

// Render builds the markdown body. The first line is always the marker for
// commentContext so later runs can find and reconcile the comment.
func (Renderer) Render(m domain.Metric, commentContext string) string {
	var sb strings.Builder
	sb.WriteString(domain.CommentMarker(commentContext))
	sb.WriteString("\n## ")
	sb.WriteString(commentContext)
	if m.Healthy() {
		sb.WriteString(" 🎉")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "|  Totals | ![Coverage](%s) |\n", BadgeURL(m))
	sb.WriteString("| :-- | --: |\n")
	fmt.Fprintf(&sb, "| Statements: | %s |\n", m.Statements.Info())
	fmt.Fprintf(&sb, "| Methods: | %s |\n", m.Methods.Info())
	fmt.Fprintf(&sb, "| Lines: | %s |\n", m.Lines.Info())
	fmt.Fprintf(&sb, "| Branches: | %s |\n", m.Branches.Info())
	return sb.String()
}

// BadgeURL is the shields.io image for the rounded average rate.
func BadgeURL(m domain.Metric) string {
	q := url.Values{}
	q.Set("label", "coverage")
	q.Set("message", BadgeMessage(m))
	q.Set("color", m.BadgeColor())
	return badgeBase + "?" + q.Encode()
}

// BadgeMessage is the badge text, the average rounded to a whole percent.
func BadgeMessage(m domain.Metric) string {
	return fmt.Sprintf("%d%%", int(math.Round(m.AverageRate)))
}

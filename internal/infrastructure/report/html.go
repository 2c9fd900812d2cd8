package report

import (
	"bytes"
	"html/template"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/felixgeelhaar/covermon/internal/application"
	"github.com/felixgeelhaar/covermon/internal/domain"
)

var (
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	htmlSanitizer = bluemonday.UGCPolicy()
)

// RenderMarkdown converts the comment markdown to sanitized HTML, the way
// the pull request page would show it.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	// #nosec G203 -- sanitized by bluemonday
	return template.HTML(htmlSanitizer.Sanitize(buf.String())), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Coverage Report</title>
    <style>
        :root { --pass: #16A34A; --fail: #DC2626; --bg: #0f172a; --card: #1e293b; --text: #f8fafc; --muted: #94a3b8; --border: #334155; }
        * { box-sizing: border-box; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: var(--bg); color: var(--text); line-height: 1.6; padding: 2rem; }
        .container { max-width: 900px; margin: 0 auto; }
        .status { display: inline-block; padding: 0.25rem 0.5rem; border-radius: 0.25rem; font-weight: 600; }
        .status.pass { background: rgba(22, 163, 74, 0.2); color: var(--pass); }
        .status.fail { background: rgba(220, 38, 38, 0.2); color: var(--fail); }
        .comment { background: var(--card); border: 1px solid var(--border); border-radius: 0.5rem; padding: 1rem 1.5rem; }
        table { border-collapse: collapse; }
        th, td { padding: 0.5rem 1rem; border-bottom: 1px solid var(--border); }
        pre { color: var(--muted); white-space: pre-wrap; }
    </style>
</head>
<body>
    <div class="container">
        <p><span class="status {{if .Passed}}pass{{else}}fail{{end}}">{{.State}}</span></p>
        <pre>{{.Description}}</pre>
        <div class="comment">{{.Comment}}</div>
    </div>
</body>
</html>
`

var pageTemplate = template.Must(template.New("report").Parse(htmlTemplate))

type htmlData struct {
	Passed      bool
	State       domain.StatusState
	Description string
	Comment     template.HTML
}

func writeHTML(w io.Writer, s application.Summary) error {
	body, err := RenderMarkdown(s.Comment)
	if err != nil {
		return err
	}
	return pageTemplate.Execute(w, htmlData{
		Passed:      s.Comparison.Succeeded,
		State:       s.Comparison.State(),
		Description: s.Comparison.Description,
		Comment:     body,
	})
}

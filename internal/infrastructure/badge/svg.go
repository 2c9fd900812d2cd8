// Package badge draws a shields-style SVG badge for the average coverage rate.
package badge

import (
	"html/template"
	"io"

	"github.com/felixgeelhaar/covermon/internal/domain"
	"github.com/felixgeelhaar/covermon/internal/infrastructure/comment"
)

type Style string

const (
	StyleFlat       Style = "flat"
	StyleFlatSquare Style = "flat-square"
)

// Named badge colors, matching the shields.io palette the comment badge uses.
var colors = map[string]string{
	"green": "#97ca00",
	"red":   "#e05d44",
}

type Options struct {
	Label  string
	Metric domain.Metric
	Style  Style
}

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="{{.Width}}" height="20" role="img" aria-label="{{.Label}}: {{.PercentText}}">
  <title>{{.Label}}: {{.PercentText}}</title>
  <linearGradient id="s" x2="0" y2="100%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="r">
    <rect width="{{.Width}}" height="20" rx="{{.Rx}}" fill="#fff"/>
  </clipPath>
  <g clip-path="url(#r)">
    <rect width="{{.LabelWidth}}" height="20" fill="#555"/>
    <rect x="{{.LabelWidth}}" width="{{.ValueWidth}}" height="20" fill="{{.Color}}"/>
    <rect width="{{.Width}}" height="20" fill="url(#s)"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" text-rendering="geometricPrecision" font-size="110">
    <text aria-hidden="true" x="{{.LabelX}}" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)" textLength="{{.LabelTextWidth}}">{{.Label}}</text>
    <text x="{{.LabelX}}" y="140" transform="scale(.1)" fill="#fff" textLength="{{.LabelTextWidth}}">{{.Label}}</text>
    <text aria-hidden="true" x="{{.ValueX}}" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)" textLength="{{.ValueTextWidth}}">{{.PercentText}}</text>
    <text x="{{.ValueX}}" y="140" transform="scale(.1)" fill="#fff" textLength="{{.ValueTextWidth}}">{{.PercentText}}</text>
  </g>
</svg>`

var badgeTemplate = template.Must(template.New("badge").Parse(svgTemplate))

type templateData struct {
	Label          string
	PercentText    string
	Color          string
	Width          int
	LabelWidth     int
	ValueWidth     int
	LabelX         int
	ValueX         int
	LabelTextWidth int
	ValueTextWidth int
	Rx             int
}

// Generate writes the badge. Text and color follow the comment badge: the
// rounded average, green above the healthy average and red otherwise.
func Generate(w io.Writer, opts Options) error {
	if opts.Label == "" {
		opts.Label = "coverage"
	}
	text := comment.BadgeMessage(opts.Metric)

	// 7px per character plus 5px padding either side.
	labelWidth := len(opts.Label)*7 + 10
	valueWidth := len(text)*7 + 10

	rx := 3
	if opts.Style == StyleFlatSquare {
		rx = 0
	}

	return badgeTemplate.Execute(w, templateData{
		Label:          opts.Label,
		PercentText:    text,
		Color:          colors[opts.Metric.BadgeColor()],
		Width:          labelWidth + valueWidth,
		LabelWidth:     labelWidth,
		ValueWidth:     valueWidth,
		LabelX:         labelWidth * 5,
		ValueX:         (labelWidth + valueWidth/2) * 10,
		LabelTextWidth: len(opts.Label) * 70,
		ValueTextWidth: len(text) * 70,
		Rx:             rx,
	})
}

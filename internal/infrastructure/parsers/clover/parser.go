// Package clover reads the project totals of a Clover XML coverage report.
//
// Clover XML is produced by:
//   - JavaScript (istanbul / nyc / jest with the clover reporter)
//   - PHP (PHPUnit --coverage-clover)
//   - Java (OpenClover)
package clover

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/felixgeelhaar/covermon/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// coverage represents the root Clover XML element.
type coverage struct {
	XMLName  xml.Name  `xml:"coverage"`
	Projects []project `xml:"project"`
}

type project struct {
	Name    string    `xml:"name,attr"`
	Metrics []metrics `xml:"metrics"`
}

// metrics keeps attributes as text so absent and non-numeric values can be told apart.
type metrics struct {
	Elements            *string `xml:"elements,attr"`
	CoveredElements     *string `xml:"coveredelements,attr"`
	Statements          *string `xml:"statements,attr"`
	CoveredStatements   *string `xml:"coveredstatements,attr"`
	Methods             *string `xml:"methods,attr"`
	CoveredMethods      *string `xml:"coveredmethods,attr"`
	Conditionals        *string `xml:"conditionals,attr"`
	CoveredConditionals *string `xml:"coveredconditionals,attr"`
}

// Parser implements application.ReportParser for Clover XML.
type Parser struct{}

// New creates a new Clover parser.
func New() *Parser {
	return &Parser{}
}

// Parse decodes the first project's first metrics node.
// Every failure is marked with domain.ErrMalformedReport.
func (p *Parser) Parse(data []byte) (domain.RawCounts, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var cov coverage
	if err := xml.Unmarshal(data, &cov); err != nil {
		return domain.RawCounts{}, malformed(errors.Wrap(err, "decode clover xml"))
	}
	if len(cov.Projects) == 0 {
		return domain.RawCounts{}, malformed(errors.New("missing coverage/project element"))
	}
	if len(cov.Projects[0].Metrics) == 0 {
		return domain.RawCounts{}, malformed(errors.New("missing project/metrics element"))
	}
	m := cov.Projects[0].Metrics[0]

	var (
		raw  domain.RawCounts
		errs []string
	)
	fields := []struct {
		name  string
		value *string
		dst   *int
	}{
		{"elements", m.Elements, &raw.Elements},
		{"coveredelements", m.CoveredElements, &raw.CoveredElements},
		{"statements", m.Statements, &raw.StatementsTotal},
		{"coveredstatements", m.CoveredStatements, &raw.CoveredStatements},
		{"methods", m.Methods, &raw.MethodsTotal},
		{"coveredmethods", m.CoveredMethods, &raw.CoveredMethods},
		{"conditionals", m.Conditionals, &raw.ConditionalsTotal},
		{"coveredconditionals", m.CoveredConditionals, &raw.CoveredConditionals},
	}
	for _, f := range fields {
		if f.value == nil {
			errs = append(errs, f.name+" is missing")
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(*f.value))
		if err != nil || n < 0 {
			errs = append(errs, f.name+"="+strconv.Quote(*f.value)+" is not a count")
			continue
		}
		*f.dst = n
	}
	if len(errs) > 0 {
		return domain.RawCounts{}, malformed(errors.Newf("project metrics: %s", strings.Join(errs, ", ")))
	}
	return raw, nil
}

func malformed(err error) error {
	return errors.Mark(err, domain.ErrMalformedReport)
}

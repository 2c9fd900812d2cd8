package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Category names one of the four coverage dimensions reported by Clover.
type Category string

const (
	CategoryStatements Category = "statements"
	CategoryLines      Category = "lines"
	CategoryMethods    Category = "methods"
	CategoryBranches   Category = "branches"
)

// RawCounts holds the aggregate project counters read from a Clover report.
// Covered values larger than their totals are tolerated and not validated here.
type RawCounts struct {
	Elements            int `json:"elements"`
	CoveredElements     int `json:"coveredElements"`
	StatementsTotal     int `json:"statements"`
	CoveredStatements   int `json:"coveredStatements"`
	MethodsTotal        int `json:"methods"`
	CoveredMethods      int `json:"coveredMethods"`
	ConditionalsTotal   int `json:"conditionals"`
	CoveredConditionals int `json:"coveredConditionals"`
}

// CategoryMetric is the covered/total pair of one category with its derived rate.
type CategoryMetric struct {
	Total   int     `json:"total"`
	Covered int     `json:"covered"`
	Rate    float64 `json:"rate"`
}

// NewCategoryMetric derives the rate from the given counts.
func NewCategoryMetric(covered, total int) CategoryMetric {
	return CategoryMetric{
		Total:   total,
		Covered: covered,
		Rate:    Rate(covered, total),
	}
}

// Info renders the metric the way it appears in comment detail rows.
func (c CategoryMetric) Info() string {
	return fmt.Sprintf("%s%% ( %d / %d )", FormatRate(c.Rate), c.Covered, c.Total)
}

// Metric is the summary of one coverage report. It is built by CalculateMetric
// and passed around by value.
type Metric struct {
	Statements  CategoryMetric `json:"statements"`
	Lines       CategoryMetric `json:"lines"`
	Methods     CategoryMetric `json:"methods"`
	Branches    CategoryMetric `json:"branches"`
	AverageRate float64        `json:"averageRate"`
}

// CalculateMetric maps Clover counters onto the four categories.
// Clover "elements" are reported as statements and Clover "statements" as lines.
func CalculateMetric(raw RawCounts) Metric {
	m := Metric{
		Statements: NewCategoryMetric(raw.CoveredElements, raw.Elements),
		Lines:      NewCategoryMetric(raw.CoveredStatements, raw.StatementsTotal),
		Methods:    NewCategoryMetric(raw.CoveredMethods, raw.MethodsTotal),
		Branches:   NewCategoryMetric(raw.CoveredConditionals, raw.ConditionalsTotal),
	}
	m.AverageRate = (m.Statements.Rate + m.Lines.Rate + m.Methods.Rate + m.Branches.Rate) / 4
	return m
}

// Category returns the metric of the named category.
func (m Metric) Category(c Category) CategoryMetric {
	switch c {
	case CategoryStatements:
		return m.Statements
	case CategoryLines:
		return m.Lines
	case CategoryMethods:
		return m.Methods
	case CategoryBranches:
		return m.Branches
	default:
		return CategoryMetric{}
	}
}

// Rate returns covered/total as a percentage rounded to two decimals.
// A zero total yields 0.
func Rate(covered, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(covered) / float64(total) * 100)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatRate prints a rate without trailing zeros (90, 33.33, 12.5).
func FormatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// HealthyAverage is the average rate above which a report is shown as healthy.
const HealthyAverage = 50

// Healthy reports whether the average rate is above HealthyAverage.
func (m Metric) Healthy() bool {
	return m.AverageRate > HealthyAverage
}

// BadgeColor returns the badge color for the average rate.
func (m Metric) BadgeColor() string {
	if m.Healthy() {
		return "green"
	}
	return "red"
}

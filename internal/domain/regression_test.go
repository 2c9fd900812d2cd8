package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricWithRates(statements, lines, methods, branches float64) Metric {
	m := Metric{
		Statements: CategoryMetric{Total: 100, Covered: int(statements), Rate: statements},
		Lines:      CategoryMetric{Total: 100, Covered: int(lines), Rate: lines},
		Methods:    CategoryMetric{Total: 100, Covered: int(methods), Rate: methods},
		Branches:   CategoryMetric{Total: 100, Covered: int(branches), Rate: branches},
	}
	m.AverageRate = (statements + lines + methods + branches) / 4
	return m
}

func TestEvaluateWithoutBaseline(t *testing.T) {
	current := metricWithRates(90, 95, 90, 80)

	result := Evaluate(current, nil)

	assert.True(t, result.Succeeded)
	assert.False(t, result.HasBaseline)
	assert.Empty(t, result.Decreases)
	assert.Equal(t, StateSuccess, result.State())
	assert.Equal(t,
		"Success: \nLine Coverage - 95%,\nStatement Coverage - 90%,\nMethods Coverage - 90%,\nBranches Coverage - 80%",
		result.Description)
}

func TestEvaluateSingleDecrease(t *testing.T) {
	baseline := metricWithRates(90, 95, 90, 80)
	current := metricWithRates(90, 95, 90, 70)

	result := Evaluate(current, &baseline)

	require.False(t, result.Succeeded)
	assert.Equal(t, StateFailure, result.State())
	require.Len(t, result.Decreases, 1)
	assert.Equal(t, CategoryBranches, result.Decreases[0].Category)
	assert.Equal(t, 10.0, result.Decreases[0].Delta)
	assert.Equal(t, "Failure: \nBranches Coverage decrease - 10%", result.Description)
	assert.NotContains(t, result.Description, "Line")
	assert.NotContains(t, result.Description, "Methods")
	assert.NotContains(t, result.Description, "Statements")
}

func TestEvaluateAllDecreasesInFixedOrder(t *testing.T) {
	baseline := metricWithRates(80, 80, 80, 80)
	current := metricWithRates(79.5, 70, 60.25, 50)

	result := Evaluate(current, &baseline)

	require.False(t, result.Succeeded)
	lines := strings.Split(result.Description, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Failure: ", lines[0])
	assert.Equal(t, "Branches Coverage decrease - 30%", lines[1])
	assert.Equal(t, "Line Coverage decrease - 10%", lines[2])
	assert.Equal(t, "Methods Coverage decrease - 19.75%", lines[3])
	assert.Equal(t, "Statements Coverage decrease - 0.5%", lines[4])

	var order []Category
	for _, d := range result.Decreases {
		order = append(order, d.Category)
	}
	assert.Equal(t, []Category{CategoryBranches, CategoryLines, CategoryMethods, CategoryStatements}, order)
}

func TestEvaluateEqualOrImprovedSucceeds(t *testing.T) {
	cases := []struct {
		name     string
		baseline Metric
		current  Metric
	}{
		{"equal", metricWithRates(80, 80, 80, 80), metricWithRates(80, 80, 80, 80)},
		{"improved", metricWithRates(80, 80, 80, 80), metricWithRates(81, 90, 80, 100)},
		{"zero baseline", metricWithRates(0, 0, 0, 0), metricWithRates(0, 0, 0, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Evaluate(tc.current, &tc.baseline)
			assert.True(t, result.Succeeded)
			assert.True(t, result.HasBaseline)
			assert.Empty(t, result.Decreases)
			assert.True(t, strings.HasPrefix(result.Description, "Success: "))
		})
	}
}

func TestEvaluateComparesEachCategoryWithItsOwnCounterpart(t *testing.T) {
	// statements dropped while lines rose above the old statements rate
	baseline := metricWithRates(90, 50, 80, 80)
	current := metricWithRates(85, 95, 80, 80)

	result := Evaluate(current, &baseline)

	require.Len(t, result.Decreases, 1)
	assert.Equal(t, CategoryStatements, result.Decreases[0].Category)
	assert.Equal(t, 5.0, result.Decreases[0].Delta)
}

func TestEvaluateIgnoresAverageRate(t *testing.T) {
	baseline := metricWithRates(50, 50, 50, 90)
	current := metricWithRates(100, 100, 100, 89)

	result := Evaluate(current, &baseline)

	assert.Greater(t, current.AverageRate, baseline.AverageRate)
	assert.False(t, result.Succeeded)
}

func TestNewStatusPayload(t *testing.T) {
	result := ComparisonResult{Succeeded: false, Description: "Failure: \nLine Coverage decrease - 1%"}

	payload := NewStatusPayload(result, "https://github.com/o/r/pull/1", "Coverage Report")

	assert.Equal(t, StatusPayload{
		State:       StateFailure,
		Description: "Failure: \nLine Coverage decrease - 1%",
		TargetURL:   "https://github.com/o/r/pull/1",
		Context:     "Coverage Report",
	}, payload)
}

func TestStatusPayloadTruncated(t *testing.T) {
	short := StatusPayload{Description: "ok"}
	assert.Equal(t, short, short.Truncated())

	long := StatusPayload{Description: strings.Repeat("x", 200)}
	got := long.Truncated()
	assert.Len(t, []rune(got.Description), MaxStatusDescription)
	assert.True(t, strings.HasSuffix(got.Description, "…"))
	assert.Len(t, long.Description, 200)
}

package domain

import (
	"math/rand"
	"testing"
)

func TestRate(t *testing.T) {
	cases := []struct {
		name    string
		covered int
		total   int
		want    float64
	}{
		{"zero total", 0, 0, 0},
		{"half", 50, 100, 50},
		{"thirds round to two decimals", 1, 3, 33.33},
		{"two thirds round up", 2, 3, 66.67},
		{"full", 7, 7, 100},
		{"covered above total is not clamped", 12, 10, 120},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Rate(tc.covered, tc.total); got != tc.want {
				t.Errorf("Rate(%d, %d) = %v, want %v", tc.covered, tc.total, got, tc.want)
			}
		})
	}
}

func TestCalculateMetric(t *testing.T) {
	t.Run("maps clover counters onto categories", func(t *testing.T) {
		m := CalculateMetric(RawCounts{
			Elements: 100, CoveredElements: 90,
			StatementsTotal: 100, CoveredStatements: 95,
			MethodsTotal: 20, CoveredMethods: 18,
			ConditionalsTotal: 50, CoveredConditionals: 40,
		})

		if m.Statements.Rate != 90 {
			t.Errorf("statements rate = %v, want 90", m.Statements.Rate)
		}
		if m.Lines.Rate != 95 {
			t.Errorf("lines rate = %v, want 95", m.Lines.Rate)
		}
		if m.Methods.Rate != 90 {
			t.Errorf("methods rate = %v, want 90", m.Methods.Rate)
		}
		if m.Branches.Rate != 80 {
			t.Errorf("branches rate = %v, want 80", m.Branches.Rate)
		}
		if m.AverageRate != 88.75 {
			t.Errorf("average = %v, want 88.75", m.AverageRate)
		}
		if m.BadgeColor() != "green" {
			t.Errorf("badge color = %s, want green", m.BadgeColor())
		}
	})

	t.Run("empty report yields zero rates", func(t *testing.T) {
		m := CalculateMetric(RawCounts{})
		if m.AverageRate != 0 {
			t.Errorf("average = %v, want 0", m.AverageRate)
		}
		if m.BadgeColor() != "red" {
			t.Errorf("badge color = %s, want red", m.BadgeColor())
		}
	})

	t.Run("average is exactly 50 is not healthy", func(t *testing.T) {
		m := CalculateMetric(RawCounts{
			Elements: 2, CoveredElements: 1,
			StatementsTotal: 2, CoveredStatements: 1,
			MethodsTotal: 2, CoveredMethods: 1,
			ConditionalsTotal: 2, CoveredConditionals: 1,
		})
		if m.Healthy() {
			t.Error("average 50 should not be healthy")
		}
	})
}

func TestCalculateMetricAverageProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		raw := RawCounts{
			Elements: rng.Intn(1000), StatementsTotal: rng.Intn(1000),
			MethodsTotal: rng.Intn(200), ConditionalsTotal: rng.Intn(500),
		}
		raw.CoveredElements = coveredUpTo(rng, raw.Elements)
		raw.CoveredStatements = coveredUpTo(rng, raw.StatementsTotal)
		raw.CoveredMethods = coveredUpTo(rng, raw.MethodsTotal)
		raw.CoveredConditionals = coveredUpTo(rng, raw.ConditionalsTotal)

		m := CalculateMetric(raw)
		mean := (m.Statements.Rate + m.Lines.Rate + m.Methods.Rate + m.Branches.Rate) / 4
		if m.AverageRate != mean {
			t.Fatalf("average %v != mean %v for %+v", m.AverageRate, mean, raw)
		}
		for _, c := range []CategoryMetric{m.Statements, m.Lines, m.Methods, m.Branches} {
			if c.Rate < 0 || c.Rate > 100 {
				t.Fatalf("rate %v out of range for %+v", c.Rate, c)
			}
		}
		if again := CalculateMetric(raw); again != m {
			t.Fatalf("CalculateMetric is not deterministic for %+v", raw)
		}
	}
}

func TestCalculateMetricEqualRates(t *testing.T) {
	m := CalculateMetric(RawCounts{
		Elements: 10, CoveredElements: 7,
		StatementsTotal: 20, CoveredStatements: 14,
		MethodsTotal: 30, CoveredMethods: 21,
		ConditionalsTotal: 40, CoveredConditionals: 28,
	})
	if m.AverageRate != 70 {
		t.Errorf("average = %v, want 70", m.AverageRate)
	}
}

func TestCategoryMetricInfo(t *testing.T) {
	c := NewCategoryMetric(1, 3)
	if got := c.Info(); got != "33.33% ( 1 / 3 )" {
		t.Errorf("Info() = %q", got)
	}
	if got := NewCategoryMetric(0, 0).Info(); got != "0% ( 0 / 0 )" {
		t.Errorf("Info() = %q", got)
	}
}

func coveredUpTo(rng *rand.Rand, total int) int {
	if total == 0 {
		return 0
	}
	return rng.Intn(total + 1)
}

package analysis

import "math"

// ImprovementPolicy names the rule used to decide whether a change is an improvement
const ImprovementPolicy = "DirectionalImprovement"

// MetricComparison is the before/after view of one core metric.
// Change is always after minus before; Improved follows the metric's direction.
type MetricComparison struct {
	Metric        Metric      `json:"metric"`
	Name          string      `json:"name"`
	Unit          string      `json:"unit"`
	Before        float64     `json:"before"`
	After         float64     `json:"after"`
	Change        float64     `json:"change"`
	PercentChange float64     `json:"percentChange"`
	Improved      bool        `json:"improved"`
	LowerIsBetter bool        `json:"lowerIsBetter"`
	TowardIdeal   bool        `json:"towardIdeal"`
	BeforeStatus  SafetyLevel `json:"beforeStatus"`
	AfterStatus   SafetyLevel `json:"afterStatus"`
}

type comparisonSpec struct {
	metric Metric
	name   string
	unit   string
	ideal  float64
}

var comparisonSpecs = []comparisonSpec{
	{metric: MetricPH, name: "pH Level", unit: "", ideal: 7.0},
	{metric: MetricChlorine, name: "Chlorine", unit: "ppm", ideal: 1.0},
	{metric: MetricHeavyMetal, name: "Heavy Metals", unit: "/10", ideal: 2.0},
	{metric: MetricTurbidity, name: "Turbidity", unit: "NTU", ideal: 1.0},
}

// Compare computes per-metric deltas between two samples.
// A zero before value yields a percent change of 0.
func Compare(before, after WaterMetrics) []MetricComparison {
	beforeSafety := Classify(before)
	afterSafety := Classify(after)

	rows := make([]MetricComparison, 0, len(comparisonSpecs))
	for _, spec := range comparisonSpecs {
		b := before.Value(spec.metric)
		a := after.Value(spec.metric)
		change := a - b

		rows = append(rows, MetricComparison{
			Metric:        spec.metric,
			Name:          spec.name,
			Unit:          spec.unit,
			Before:        b,
			After:         a,
			Change:        change,
			PercentChange: percentChange(b, a),
			Improved:      improved(spec.metric, change),
			LowerIsBetter: spec.metric.LowerIsBetter(),
			TowardIdeal:   math.Abs(a-spec.ideal) < math.Abs(b-spec.ideal),
			BeforeStatus:  beforeSafety.Level(spec.metric),
			AfterStatus:   afterSafety.Level(spec.metric),
		})
	}

	return rows
}

func percentChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100
}

func improved(m Metric, change float64) bool {
	if m.LowerIsBetter() {
		return change < 0
	}
	return change > 0
}

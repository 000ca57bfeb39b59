// Package analysis turns a captured water-sample image into a water-quality
// report and analyses sample histories. Everything in this package is pure
// and in-memory: no I/O, no logging, no process-wide state.
package analysis

import "time"

// WaterMetrics holds the numeric readings derived for one water sample
type WaterMetrics struct {
	PH              float64 `json:"pH"`
	Chlorine        float64 `json:"chlorine"`        // ppm
	HeavyMetalScore float64 `json:"heavyMetalScore"` // 0-10 scale
	Turbidity       float64 `json:"turbidity"`       // NTU

	// Secondary readings, never used for classification
	Temperature          *float64 `json:"temperature,omitempty"`          // °C
	DissolvedOxygen      *float64 `json:"dissolvedOxygen,omitempty"`      // mg/L
	TotalDissolvedSolids *float64 `json:"totalDissolvedSolids,omitempty"` // ppm
	Bacterial            *float64 `json:"bacterial,omitempty"`            // CFU/mL
}

// Metric identifies one of the four core readings
type Metric string

const (
	MetricPH         Metric = "pH"
	MetricChlorine   Metric = "chlorine"
	MetricHeavyMetal Metric = "heavyMetal"
	MetricTurbidity  Metric = "turbidity"
)

// CoreMetrics lists the classified metrics in evaluation order
var CoreMetrics = []Metric{MetricPH, MetricChlorine, MetricHeavyMetal, MetricTurbidity}

// LowerIsBetter reports whether a decrease of the metric counts as an improvement
func (m Metric) LowerIsBetter() bool {
	return m == MetricHeavyMetal || m == MetricTurbidity
}

// Value returns the reading for the given core metric
func (w WaterMetrics) Value(m Metric) float64 {
	switch m {
	case MetricPH:
		return w.PH
	case MetricChlorine:
		return w.Chlorine
	case MetricHeavyMetal:
		return w.HeavyMetalScore
	case MetricTurbidity:
		return w.Turbidity
	default:
		return 0
	}
}

// Location is an optional capture position
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TimedMetrics is the unit consumed by the history analyses
type TimedMetrics struct {
	CreatedAt time.Time    `json:"createdAt"`
	Metrics   WaterMetrics `json:"metrics"`
}

func floatPtr(v float64) *float64 {
	return &v
}

package analysis

import (
	"math"
	"sort"
)

// Summary directions
const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionFlat = "flat"
)

// MetricStats aggregates one metric over a series
type MetricStats struct {
	Metric  Metric  `json:"metric"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	// Change is last minus first
	Change float64 `json:"change"`
	// Direction is "up" when the metric got better between the first and last
	// sample, "down" when it got worse and "flat" when it did not move
	Direction string `json:"direction"`
}

// Summary is the aggregate view of a series of samples
type Summary struct {
	SampleCount  int                 `json:"sampleCount"`
	Metrics      []MetricStats       `json:"metrics"`
	Distribution map[SafetyLevel]int `json:"distribution"`
}

// Summarize aggregates a series. An empty series yields zero stats.
func Summarize(samples []TimedMetrics) Summary {
	summary := Summary{
		SampleCount: len(samples),
		Metrics:     make([]MetricStats, 0, len(CoreMetrics)),
		Distribution: map[SafetyLevel]int{
			SafetySafe:    0,
			SafetyCaution: 0,
			SafetyUnsafe:  0,
		},
	}
	if len(samples) == 0 {
		return summary
	}

	sorted := make([]TimedMetrics, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	for _, s := range sorted {
		summary.Distribution[Classify(s.Metrics).Overall]++
	}

	for _, m := range CoreMetrics {
		stats := MetricStats{Metric: m, Min: math.Inf(1), Max: math.Inf(-1)}
		values := make([]float64, len(sorted))
		for i, s := range sorted {
			v := s.Metrics.Value(m)
			values[i] = v
			stats.Min = math.Min(stats.Min, v)
			stats.Max = math.Max(stats.Max, v)
		}
		stats.Average = round(mean(values), 2)

		first, last := values[0], values[len(values)-1]
		stats.Change = round(last-first, 2)
		better := last > first
		if m.LowerIsBetter() {
			better = last < first
		}
		switch {
		case stats.Change == 0:
			stats.Direction = DirectionFlat
		case better:
			stats.Direction = DirectionUp
		default:
			stats.Direction = DirectionDown
		}

		summary.Metrics = append(summary.Metrics, stats)
	}

	return summary
}

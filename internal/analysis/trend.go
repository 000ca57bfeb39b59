package analysis

import (
	"fmt"
	"math"
	"sort"
)

const (
	// MinTrendSamples is the smallest series the trend analysis accepts
	MinTrendSamples = 3

	recentWindow = 3

	// bucketSensitivity separates a stable series from a moving one
	bucketSensitivity = 0.1
)

// Trend is the direction of a series
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Severity grades the magnitude of a change
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// TrendInsight describes how one metric moved across the series.
// Change and Trend are expressed in the user-facing direction: for metrics where
// lower is better the sign is flipped. Bucket keeps the raw direction.
// Moved is set when the change crosses the metric's reporting threshold and
// Message names the movement; below it Message reads stable whatever Trend says.
type TrendInsight struct {
	Metric   string   `json:"metric"`
	Trend    Trend    `json:"trend"`
	Bucket   Trend    `json:"bucket"`
	Change   float64  `json:"change"`
	Severity Severity `json:"severity"`
	Moved    bool     `json:"moved"`
	Message  string   `json:"message"`
}

// TrendReport is the outcome of a trend analysis
type TrendReport struct {
	OverallTrend    Trend          `json:"overallTrend"`
	Insights        []TrendInsight `json:"insights"`
	Recommendations []string       `json:"recommendations"`
	SampleCount     int            `json:"sampleCount"`
	SpanDays        int            `json:"spanDays"`
}

// trendRule holds the reporting behaviour of one metric
type trendRule struct {
	metric Metric
	label  string
	// report is the magnitude a change must exceed for the message to name a movement
	report float64
	// gated metrics also hold their trend at stable until report is exceeded;
	// the others take the coarse bucket
	gated  bool
	high   float64
	medium float64
	moved  func(raw Trend, change float64) string
	stable string
}

var trendRules = []trendRule{
	{
		metric: MetricPH,
		label:  "pH Levels",
		report: 0.5,
		gated:  true,
		high:   1,
		medium: 0.5,
		moved: func(raw Trend, change float64) string {
			return fmt.Sprintf("pH levels have %s by %.2f units recently", increasedOrDecreased(raw), math.Abs(change))
		},
		stable: "pH levels are stable within acceptable range",
	},
	{
		metric: MetricChlorine,
		label:  "Chlorine Content",
		report: 0.2,
		high:   0.5,
		medium: 0.2,
		moved: func(raw Trend, change float64) string {
			return fmt.Sprintf("Chlorine levels %s by %.2f ppm", increasedOrDecreased(raw), math.Abs(change))
		},
		stable: "Chlorine levels are consistent",
	},
	{
		metric: MetricHeavyMetal,
		label:  "Heavy Metal Contamination",
		report: 0.5,
		high:   1,
		medium: 0.5,
		moved: func(raw Trend, _ float64) string {
			return fmt.Sprintf("Heavy metal contamination has %s recently", increasedOrDecreased(raw))
		},
		stable: "Heavy metal levels are stable",
	},
	{
		metric: MetricTurbidity,
		label:  "Water Clarity (Turbidity)",
		report: 0.5,
		high:   1,
		medium: 0.5,
		moved: func(raw Trend, change float64) string {
			verb := "decreased"
			if raw == TrendDeclining {
				verb = "improved"
			}
			return fmt.Sprintf("Water clarity has %s by %.2f NTU", verb, math.Abs(change))
		},
		stable: "Water clarity is consistent",
	},
}

// Trend recommendation copy
const (
	RecommendProfessionalTesting = "Consider professional water testing for declining metrics"
	RecommendContinueTreatment   = "Continue current water treatment practices"
	RecommendMonitorTrends       = "Monitor trends regularly with consistent testing"
	RecommendTrackSources        = "Keep track of any changes in water sources or treatment"
)

// AnalyzeTrend analyses a series of samples. The series is sorted by time
// before analysis; the input slice is not modified.
func AnalyzeTrend(samples []TimedMetrics) (*TrendReport, error) {
	if len(samples) < MinTrendSamples {
		return nil, &InsufficientDataError{Have: len(samples), Need: MinTrendSamples}
	}

	sorted := make([]TimedMetrics, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	insights := make([]TrendInsight, 0, len(trendRules))
	for _, rule := range trendRules {
		values := make([]float64, len(sorted))
		for i, s := range sorted {
			values[i] = s.Metrics.Value(rule.metric)
		}
		insights = append(insights, rule.insight(windowChange(values)))
	}

	overall := overallTrend(sorted)

	return &TrendReport{
		OverallTrend:    overall,
		Insights:        insights,
		Recommendations: trendRecommendations(overall, insights),
		SampleCount:     len(sorted),
		SpanDays:        int(sorted[len(sorted)-1].CreatedAt.Sub(sorted[0].CreatedAt).Hours() / 24),
	}, nil
}

// windowChange compares the mean of the last three values with the mean of the rest
func windowChange(values []float64) float64 {
	n := len(values)
	recent := values[max(0, n-recentWindow):]
	older := values[:max(1, n-recentWindow)]
	return mean(recent) - mean(older)
}

// bucket classifies a raw change before any inversion
func bucket(change float64) Trend {
	if math.Abs(change) < bucketSensitivity {
		return TrendStable
	}
	if change > 0 {
		return TrendImproving
	}
	return TrendDeclining
}

func (r trendRule) insight(change float64) TrendInsight {
	raw := bucket(change)
	magnitude := math.Abs(change)

	severity := SeverityLow
	switch {
	case magnitude > r.high:
		severity = SeverityHigh
	case magnitude > r.medium:
		severity = SeverityMedium
	}

	moved := magnitude > r.report
	message := r.stable
	if moved {
		message = r.moved(raw, change)
	}

	trend := raw
	if r.metric.LowerIsBetter() {
		trend = invert(raw)
	}
	if r.gated && !moved {
		trend = TrendStable
	}

	reported := change
	if r.metric.LowerIsBetter() {
		reported = -change
	}

	return TrendInsight{
		Metric:   r.label,
		Trend:    trend,
		Bucket:   raw,
		Change:   reported,
		Severity: severity,
		Moved:    moved,
		Message:  message,
	}
}

func invert(t Trend) Trend {
	switch t {
	case TrendImproving:
		return TrendDeclining
	case TrendDeclining:
		return TrendImproving
	default:
		return TrendStable
	}
}

func increasedOrDecreased(raw Trend) string {
	if raw == TrendImproving {
		return "increased"
	}
	return "decreased"
}

// safetyPoints scores a level for the overall trend: safe 3, caution 2, unsafe 1
func safetyPoints(level SafetyLevel) float64 {
	switch level {
	case SafetySafe:
		return 3
	case SafetyCaution:
		return 2
	default:
		return 1
	}
}

func overallTrend(sorted []TimedMetrics) Trend {
	scores := make([]float64, len(sorted))
	for i, s := range sorted {
		scores[i] = safetyPoints(Classify(s.Metrics).Overall)
	}

	n := len(scores)
	recentAvg := mean(scores[max(0, n-recentWindow):])
	olderAvg := recentAvg
	if older := scores[:max(0, n-recentWindow)]; len(older) > 0 {
		olderAvg = mean(older)
	}

	switch {
	case recentAvg > olderAvg:
		return TrendImproving
	case recentAvg < olderAvg:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func trendRecommendations(overall Trend, insights []TrendInsight) []string {
	recs := make([]string, 0, 4)
	for _, in := range insights {
		if in.Trend == TrendDeclining && in.Severity == SeverityHigh {
			recs = append(recs, RecommendProfessionalTesting)
			break
		}
	}
	if overall == TrendImproving {
		recs = append(recs, RecommendContinueTreatment)
	}
	return append(recs, RecommendMonitorTrends, RecommendTrackSources)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

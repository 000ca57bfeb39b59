package analysis

// SafetyLevel is the classification of a reading, ordered safe < caution < unsafe
type SafetyLevel string

const (
	SafetySafe    SafetyLevel = "safe"
	SafetyCaution SafetyLevel = "caution"
	SafetyUnsafe  SafetyLevel = "unsafe"
)

// Severity returns the rank of the level, higher is worse
func (l SafetyLevel) Severity() int {
	switch l {
	case SafetyCaution:
		return 1
	case SafetyUnsafe:
		return 2
	default:
		return 0
	}
}

// Worse returns the more severe of two levels
func Worse(a, b SafetyLevel) SafetyLevel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// SafetyAssessment is the per-parameter and overall classification of a sample
type SafetyAssessment struct {
	Overall         SafetyLevel `json:"overall"`
	PH              SafetyLevel `json:"pH"`
	Chlorine        SafetyLevel `json:"chlorine"`
	HeavyMetal      SafetyLevel `json:"heavyMetal"`
	Turbidity       SafetyLevel `json:"turbidity"`
	Recommendations []string    `json:"recommendations"`
}

// Level returns the level assigned to a core metric
func (a SafetyAssessment) Level(m Metric) SafetyLevel {
	switch m {
	case MetricPH:
		return a.PH
	case MetricChlorine:
		return a.Chlorine
	case MetricHeavyMetal:
		return a.HeavyMetal
	case MetricTurbidity:
		return a.Turbidity
	default:
		return SafetySafe
	}
}

// Recommendation copy shown to users
const (
	RecommendAcidic          = "Water is too acidic. Consider water treatment."
	RecommendAlkaline        = "Water is too alkaline. Consider water treatment."
	RecommendPHMonitor       = "pH levels are acceptable but monitor regularly."
	RecommendChlorineHigh    = "Chlorine levels too high. Avoid consumption."
	RecommendChlorineLow     = "Low chlorine may indicate insufficient disinfection."
	RecommendHeavyMetalHigh  = "High heavy metal contamination detected. Do not consume."
	RecommendHeavyMetalMid   = "Moderate heavy metal levels. Consider filtration."
	RecommendTurbidityHigh   = "High turbidity. Water needs filtration before use."
	RecommendTurbidityMid    = "Moderate turbidity. Consider filtration for drinking."
	RecommendWithinParameter = "Water quality is within safe parameters."
)

// Classify assesses a set of metrics. It is a pure function of its input.
func Classify(m WaterMetrics) SafetyAssessment {
	a := SafetyAssessment{
		Overall:         SafetySafe,
		PH:              SafetySafe,
		Chlorine:        SafetySafe,
		HeavyMetal:      SafetySafe,
		Turbidity:       SafetySafe,
		Recommendations: []string{},
	}

	switch {
	case m.PH < 6.5:
		a.PH = SafetyUnsafe
		a.Recommendations = append(a.Recommendations, RecommendAcidic)
	case m.PH > 8.5:
		a.PH = SafetyUnsafe
		a.Recommendations = append(a.Recommendations, RecommendAlkaline)
	case m.PH < 7.0 || m.PH > 8.0:
		a.PH = SafetyCaution
		a.Recommendations = append(a.Recommendations, RecommendPHMonitor)
	}

	switch {
	case m.Chlorine > 1.0:
		a.Chlorine = SafetyUnsafe
		a.Recommendations = append(a.Recommendations, RecommendChlorineHigh)
	case m.Chlorine < 0.2:
		a.Chlorine = SafetyCaution
		a.Recommendations = append(a.Recommendations, RecommendChlorineLow)
	}

	switch {
	case m.HeavyMetalScore > 7:
		a.HeavyMetal = SafetyUnsafe
		a.Recommendations = append(a.Recommendations, RecommendHeavyMetalHigh)
	case m.HeavyMetalScore > 5:
		a.HeavyMetal = SafetyCaution
		a.Recommendations = append(a.Recommendations, RecommendHeavyMetalMid)
	}

	switch {
	case m.Turbidity > 4:
		a.Turbidity = SafetyUnsafe
		a.Recommendations = append(a.Recommendations, RecommendTurbidityHigh)
	case m.Turbidity > 1:
		a.Turbidity = SafetyCaution
		a.Recommendations = append(a.Recommendations, RecommendTurbidityMid)
	}

	for _, level := range []SafetyLevel{a.PH, a.Chlorine, a.HeavyMetal, a.Turbidity} {
		a.Overall = Worse(a.Overall, level)
	}

	if a.Overall == SafetySafe {
		a.Recommendations = append(a.Recommendations, RecommendWithinParameter)
	}

	return a
}

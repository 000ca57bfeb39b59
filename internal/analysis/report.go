package analysis

import (
	"fmt"
	"math"
)

// Finding is the per-parameter line of a report
type Finding struct {
	Parameter      string      `json:"parameter"`
	Value          string      `json:"value"`
	Status         SafetyLevel `json:"status"`
	Impact         string      `json:"impact"`
	Recommendation string      `json:"recommendation"`
}

// Grade is the letter classification of a sample
type Grade struct {
	Letter      string `json:"grade"`
	Description string `json:"description"`
	Drinkable   bool   `json:"drinkable"`
}

// Report bundles the metrics of a sample with everything derived from them
type Report struct {
	Metrics     WaterMetrics     `json:"metrics"`
	Safety      SafetyAssessment `json:"safety"`
	Confidence  int              `json:"confidence"`
	SafetyScore int              `json:"safetyScore"`
	Grade       Grade            `json:"grade"`
	Findings    []Finding        `json:"findings"`
}

var impacts = map[Metric]map[SafetyLevel]string{
	MetricPH: {
		SafetySafe:    "Optimal for drinking water",
		SafetyCaution: "Slightly outside optimal range",
		SafetyUnsafe:  "May cause health issues",
	},
	MetricChlorine: {
		SafetySafe:    "Adequate disinfection level",
		SafetyCaution: "Disinfection may be insufficient",
		SafetyUnsafe:  "Risk of waterborne diseases",
	},
	MetricHeavyMetal: {
		SafetySafe:    "Safe levels detected",
		SafetyCaution: "Elevated but acceptable",
		SafetyUnsafe:  "Potentially harmful levels",
	},
	MetricTurbidity: {
		SafetySafe:    "Clear water, good filtration",
		SafetyCaution: "Slight cloudiness detected",
		SafetyUnsafe:  "Poor water clarity",
	},
}

var actions = map[Metric]map[SafetyLevel]string{
	MetricPH: {
		SafetySafe:    "Maintain current levels",
		SafetyCaution: "Monitor and consider pH adjustment",
		SafetyUnsafe:  "Immediate pH correction required",
	},
	MetricChlorine: {
		SafetySafe:    "Levels are appropriate",
		SafetyCaution: "Consider increasing chlorination",
		SafetyUnsafe:  "Urgent disinfection needed",
	},
	MetricHeavyMetal: {
		SafetySafe:    "Continue monitoring",
		SafetyCaution: "Regular testing recommended",
		SafetyUnsafe:  "Advanced filtration required",
	},
	MetricTurbidity: {
		SafetySafe:    "No action needed",
		SafetyCaution: "Consider sediment filtration",
		SafetyUnsafe:  "Immediate filtration required",
	},
}

// Impact returns the impact description for a parameter at a level
func Impact(m Metric, level SafetyLevel) string {
	if text, ok := impacts[m][level]; ok {
		return text
	}
	return "Analysis completed"
}

// Action returns the recommended action for a parameter at a level
func Action(m Metric, level SafetyLevel) string {
	if text, ok := actions[m][level]; ok {
		return text
	}
	return "Consult water quality expert"
}

// BuildReport classifies metrics and derives the descriptive report fields
func BuildReport(m WaterMetrics) *Report {
	safety := Classify(m)

	return &Report{
		Metrics:     m,
		Safety:      safety,
		Confidence:  Confidence(m),
		SafetyScore: SafetyScore(safety),
		Grade:       GradeOf(m),
		Findings: []Finding{
			finding("pH Level", fmt.Sprintf("%.1f", m.PH), MetricPH, safety.PH),
			finding("Chlorine", fmt.Sprintf("%.1f ppm", m.Chlorine), MetricChlorine, safety.Chlorine),
			finding("Heavy Metals", fmt.Sprintf("%.1f/10", m.HeavyMetalScore), MetricHeavyMetal, safety.HeavyMetal),
			finding("Turbidity", fmt.Sprintf("%.1f NTU", m.Turbidity), MetricTurbidity, safety.Turbidity),
		},
	}
}

func finding(parameter, value string, m Metric, level SafetyLevel) Finding {
	return Finding{
		Parameter:      parameter,
		Value:          value,
		Status:         level,
		Impact:         Impact(m, level),
		Recommendation: Action(m, level),
	}
}

// Confidence scores how reliable the readings look, 0-100
func Confidence(m WaterMetrics) int {
	scores := make([]float64, 0, 4)

	switch {
	case m.PH >= 6.5 && m.PH <= 8.5:
		scores = append(scores, 95)
	case m.PH >= 6.0 && m.PH <= 9.0:
		scores = append(scores, 80)
	default:
		scores = append(scores, 60)
	}

	switch {
	case m.Chlorine >= 0.2 && m.Chlorine <= 1.0:
		scores = append(scores, 90)
	case m.Chlorine >= 0.1 && m.Chlorine <= 1.5:
		scores = append(scores, 75)
	default:
		scores = append(scores, 50)
	}

	switch {
	case m.HeavyMetalScore <= 3:
		scores = append(scores, 95)
	case m.HeavyMetalScore <= 6:
		scores = append(scores, 80)
	default:
		scores = append(scores, 60)
	}

	switch {
	case m.Turbidity <= 1:
		scores = append(scores, 95)
	case m.Turbidity <= 4:
		scores = append(scores, 80)
	default:
		scores = append(scores, 60)
	}

	return int(math.Round(mean(scores)))
}

// SafetyScore deducts 30 points per unsafe and 15 per caution parameter
func SafetyScore(a SafetyAssessment) int {
	score := 100
	for _, m := range CoreMetrics {
		switch a.Level(m) {
		case SafetyUnsafe:
			score -= 30
		case SafetyCaution:
			score -= 15
		}
	}
	return max(0, score)
}

// GradeOf assigns an A-F grade from a 100 point deduction scale
func GradeOf(m WaterMetrics) Grade {
	score := 100

	if m.PH < 6.5 || m.PH > 8.5 {
		score -= 20
	} else if m.PH < 7.0 || m.PH > 8.0 {
		score -= 10
	}

	if m.Chlorine > 1.0 {
		score -= 15
	} else if m.Chlorine < 0.2 {
		score -= 10
	}

	switch {
	case m.HeavyMetalScore > 7:
		score -= 30
	case m.HeavyMetalScore > 5:
		score -= 15
	case m.HeavyMetalScore > 3:
		score -= 5
	}

	if m.Turbidity > 4 {
		score -= 20
	} else if m.Turbidity > 1 {
		score -= 10
	}

	switch {
	case score >= 90:
		return Grade{Letter: "A", Description: "Excellent water quality", Drinkable: true}
	case score >= 80:
		return Grade{Letter: "B", Description: "Good water quality", Drinkable: true}
	case score >= 70:
		return Grade{Letter: "C", Description: "Acceptable water quality", Drinkable: true}
	case score >= 60:
		return Grade{Letter: "D", Description: "Poor water quality", Drinkable: false}
	default:
		return Grade{Letter: "F", Description: "Unsafe water quality", Drinkable: false}
	}
}

package analysis

import "github.com/shopspring/decimal"

// Synthesizer maps image features to WaterMetrics. It is the only component
// that consults a random source.
type Synthesizer struct {
	rng RandomSource
}

// NewSynthesizer creates a synthesizer drawing from rng
func NewSynthesizer(rng RandomSource) *Synthesizer {
	return &Synthesizer{rng: rng}
}

// Synthesize derives metrics from features.
// Draw order: pH noise, chlorine redraw (when taken), heavy-metal noise, then
// temperature, dissolved oxygen, total dissolved solids and bacterial count.
func (s *Synthesizer) Synthesize(f ImageFeatures) WaterMetrics {
	pH := 7.0
	switch f.Tint {
	case TintBlueGreen:
		pH += 0.5
	case TintSlightlyYellow, TintBrown:
		pH -= 0.8
	}
	pH += uniform(s.rng, -0.5, 0.5)
	pH = round(clamp(pH, 5.0, 9.0), 2)

	chlorine := 0.5
	if f.Clarity > 0.8 && f.Tint == TintClear {
		chlorine = uniform(s.rng, 0.3, 0.7)
	} else if f.Tint == TintGreen {
		chlorine = uniform(s.rng, 0.1, 0.3)
	}
	chlorine = round(chlorine, 2)

	heavyMetal := 2.0
	if f.Tint == TintBrown || f.Tint == TintSlightlyYellow {
		heavyMetal += 3.0
	}
	if f.ParticleCount > 50 {
		heavyMetal += 2.0
	}
	heavyMetal += uniform(s.rng, 0, 2.0)
	heavyMetal = round(clamp(heavyMetal, 0, 10), 1)

	turbidity := (1-f.Transparency)*5.0 + (float64(f.ParticleCount)/100)*2.0
	turbidity = round(clamp(turbidity, 0.1, 10.0), 2)

	return WaterMetrics{
		PH:                   pH,
		Chlorine:             chlorine,
		HeavyMetalScore:      heavyMetal,
		Turbidity:            turbidity,
		Temperature:          floatPtr(round(uniform(s.rng, 15, 35), 1)),
		DissolvedOxygen:      floatPtr(round(uniform(s.rng, 6, 12), 1)),
		TotalDissolvedSolids: floatPtr(round(uniform(s.rng, 100, 500), 1)),
		Bacterial:            floatPtr(round(uniform(s.rng, 0, 100), 1)),
	}
}

// round rounds half away from zero to the given number of decimals
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

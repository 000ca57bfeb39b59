package testutil

import (
	"strings"

	"github.com/aquascan/backend/internal/analysis"
)

// ConstSource is a random source that always returns the same draw
type ConstSource float64

// Float64 implements analysis.RandomSource
func (c ConstSource) Float64() float64 {
	return float64(c)
}

// NewAnalyzer returns an analyzer drawing 0.5 for every random value and
// not waiting
func NewAnalyzer() *analysis.Analyzer {
	return analysis.NewAnalyzer(analysis.NewSynthesizer(ConstSource(0.5)), analysis.NoDelay)
}

// ImagePayload returns base64 text of the given length whose colour window
// [100:200] and clarity window [200:300] end with the given characters.
// Everything else is 'A'.
func ImagePayload(length int, colorWindow, clarityWindow string) string {
	pad := func(s string) string {
		return strings.Repeat("A", 100-len(s)) + s
	}
	text := strings.Repeat("A", 100) + pad(colorWindow) + pad(clarityWindow)
	if length > len(text) {
		text += strings.Repeat("A", length-len(text))
	}
	return text[:length]
}

// Images analysed with NewAnalyzer
var (
	// UnsafeImage is blue-green with low clarity: pH 7.5, chlorine 0.5,
	// heavy metal 3.0, turbidity 4.5
	UnsafeImage = ImagePayload(500, "", "")
	// SafeImage is clear with clarity 0.99: pH 7.0, chlorine 0.5,
	// heavy metal 3.0, turbidity 0.85
	SafeImage = ImagePayload(600, "E", "kz")
)

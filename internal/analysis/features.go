package analysis

import (
	"encoding/base64"
	"math"
	"strings"
)

// Feature window offsets into the normalized payload text
const (
	colorWindowStart   = 100
	colorWindowEnd     = 200
	clarityWindowStart = 200
	clarityWindowEnd   = 300

	// MinPayloadLength is the shortest payload that covers both feature windows
	MinPayloadLength = clarityWindowEnd
)

// Tint is the dominant colour cast of the sample
type Tint string

const (
	TintClear          Tint = "clear"
	TintSlightlyYellow Tint = "slightly_yellow"
	TintBlueGreen      Tint = "blue-green"
	TintBrown          Tint = "brown"
	TintCloudy         Tint = "cloudy"
	TintGreen          Tint = "green"
)

// tints is indexed by colour seed, order is significant
var tints = [...]Tint{TintClear, TintSlightlyYellow, TintBlueGreen, TintBrown, TintCloudy, TintGreen}

// SurfaceCondition describes the water surface in the capture
type SurfaceCondition string

const (
	SurfaceStill             SurfaceCondition = "still"
	SurfaceCalm              SurfaceCondition = "calm"
	SurfaceSlightlyDisturbed SurfaceCondition = "slightly_disturbed"
	SurfaceRippled           SurfaceCondition = "rippled"
)

// ImageFeatures are the coarse visual features derived from one payload
type ImageFeatures struct {
	Clarity          float64          `json:"clarity"`
	Tint             Tint             `json:"tint"`
	Saturation       float64          `json:"saturation"`
	ParticleCount    int              `json:"particleCount"`
	Transparency     float64          `json:"transparency"`
	SurfaceCondition SurfaceCondition `json:"surfaceCondition"`
}

// Payload is an image normalized to its base64 text form
type Payload struct {
	text string
	size int
}

// PayloadFromBytes wraps raw image bytes
func PayloadFromBytes(raw []byte) Payload {
	return Payload{text: base64.StdEncoding.EncodeToString(raw), size: len(raw)}
}

// PayloadFromBase64 wraps a base64 string, optionally prefixed with a data URL header.
// The header stays part of the payload text.
func PayloadFromBase64(encoded string) (Payload, error) {
	text := strings.TrimSpace(encoded)

	body := text
	if strings.HasPrefix(body, "data:") {
		idx := strings.Index(body, ",")
		if idx < 0 {
			return Payload{}, ErrInvalidPayload
		}
		body = body[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		var rawErr error
		if decoded, rawErr = base64.RawStdEncoding.DecodeString(body); rawErr != nil {
			return Payload{}, ErrInvalidPayload
		}
	}

	return Payload{text: text, size: len(decoded)}, nil
}

// Len returns the length of the normalized text
func (p Payload) Len() int {
	return len(p.text)
}

// Size returns the number of image bytes the payload encodes
func (p Payload) Size() int {
	return p.size
}

// String returns the normalized text
func (p Payload) String() string {
	return p.text
}

// ExtractFeatures derives ImageFeatures from a payload. It is deterministic:
// identical payloads always yield identical features.
func ExtractFeatures(p Payload) (ImageFeatures, error) {
	n := p.Len()
	if n < MinPayloadLength {
		return ImageFeatures{}, &InputTooShortError{Length: n, Required: MinPayloadLength}
	}

	complexity := float64(n%1000) / 1000
	colorSeed := windowSum(p.text, colorWindowStart, colorWindowEnd)
	claritySeed := windowSum(p.text, clarityWindowStart, clarityWindowEnd)

	return ImageFeatures{
		Clarity:          clamp(float64(claritySeed%100)/100, 0.1, 1.0),
		Tint:             tints[colorSeed%len(tints)],
		Saturation:       clamp(float64(colorSeed%100)/100, 0.1, 1.0),
		ParticleCount:    int(math.Floor((1 - complexity) * 100)),
		Transparency:     clamp(float64(claritySeed%100)/100, 0.3, 1.0),
		SurfaceCondition: surfaceFromComplexity(complexity),
	}, nil
}

func windowSum(text string, start, end int) int {
	sum := 0
	for i := start; i < end; i++ {
		sum += int(text[i])
	}
	return sum
}

func surfaceFromComplexity(complexity float64) SurfaceCondition {
	switch {
	case complexity > 0.8:
		return SurfaceRippled
	case complexity > 0.6:
		return SurfaceSlightlyDisturbed
	case complexity > 0.4:
		return SurfaceCalm
	default:
		return SurfaceStill
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

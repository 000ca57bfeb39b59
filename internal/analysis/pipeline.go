package analysis

import (
	"context"
	"time"
)

// Delay simulates analysis latency. Implementations must return ctx.Err()
// when the context ends first.
type Delay interface {
	Wait(ctx context.Context) error
}

// FixedDelay waits for a constant duration
type FixedDelay time.Duration

// Wait implements Delay
func (d FixedDelay) Wait(ctx context.Context) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoDelay returns as soon as it is called
var NoDelay Delay = FixedDelay(0)

// Result is the output of one image analysis
type Result struct {
	Features ImageFeatures `json:"features"`
	Metrics  WaterMetrics  `json:"metrics"`
}

// Analyzer runs feature extraction and metric synthesis behind a latency wrapper
type Analyzer struct {
	synthesizer *Synthesizer
	delay       Delay
}

// NewAnalyzer creates an analyzer. A nil delay means no delay.
func NewAnalyzer(synthesizer *Synthesizer, delay Delay) *Analyzer {
	if delay == nil {
		delay = NoDelay
	}
	return &Analyzer{synthesizer: synthesizer, delay: delay}
}

// Analyze extracts features and synthesizes metrics. It is all-or-nothing:
// a cancelled context yields no result.
func (a *Analyzer) Analyze(ctx context.Context, p Payload) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	features, err := ExtractFeatures(p)
	if err != nil {
		return nil, err
	}

	metrics := a.synthesizer.Synthesize(features)

	if err := a.delay.Wait(ctx); err != nil {
		return nil, err
	}

	return &Result{Features: features, Metrics: metrics}, nil
}

package analysis_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_Analyze(t *testing.T) {
	payload := mustPayload(t, buildPayload(300, "", ""))

	t.Run("Should analyze without delay", func(t *testing.T) {
		analyzer := analysis.NewAnalyzer(analysis.NewSynthesizer(constSource(0.5)), nil)

		result, err := analyzer.Analyze(context.Background(), payload)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, analysis.TintBlueGreen, result.Features.Tint)
		assert.Equal(t, 7.5, result.Metrics.PH)
	})

	t.Run("Should reject short payloads", func(t *testing.T) {
		analyzer := analysis.NewAnalyzer(analysis.NewSynthesizer(constSource(0.5)), analysis.NoDelay)

		result, err := analyzer.Analyze(context.Background(), mustPayload(t, strings.Repeat("A", 200)))
		assert.Nil(t, result)
		assert.ErrorIs(t, err, analysis.ErrInputTooShort)
	})

	t.Run("Should return nothing for a cancelled context", func(t *testing.T) {
		src := constSource(0.5)
		analyzer := analysis.NewAnalyzer(analysis.NewSynthesizer(src), analysis.NoDelay)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := analyzer.Analyze(ctx, payload)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, src.calls)
	})

	t.Run("Should abandon the result when the deadline passes during the delay", func(t *testing.T) {
		analyzer := analysis.NewAnalyzer(analysis.NewSynthesizer(constSource(0.5)), analysis.FixedDelay(time.Second))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		start := time.Now()
		result, err := analyzer.Analyze(ctx, payload)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("Should wait out a short delay", func(t *testing.T) {
		analyzer := analysis.NewAnalyzer(analysis.NewSynthesizer(constSource(0.5)), analysis.FixedDelay(5*time.Millisecond))

		result, err := analyzer.Analyze(context.Background(), payload)
		require.NoError(t, err)
		assert.NotNil(t, result)
	})
}

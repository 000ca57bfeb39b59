// Package cmd - history commands
package cmd

import (
	"github.com/aquascan/backend/internal/analysis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// trendCmd represents the trend command
var trendCmd = &cobra.Command{
	Use:   "trend <samples.json>",
	Short: "Analyse the trend of a sample history",
	Long: `Read a JSON array of {"createdAt", "metrics"} records and print the
trend report. At least three samples are required.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var samples []analysis.TimedMetrics
		if err := readJSONFile(args[0], &samples); err != nil {
			return err
		}

		report, err := analysis.AnalyzeTrend(samples)
		if err != nil {
			return err
		}
		logger.Debug("Trend analysed", zap.Int("samples", report.SampleCount), zap.String("overall", string(report.OverallTrend)))

		return writeJSON(cmd.OutOrStdout(), report)
	},
}

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary <samples.json>",
	Short: "Summarise a sample history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var samples []analysis.TimedMetrics
		if err := readJSONFile(args[0], &samples); err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), analysis.Summarize(samples))
	},
}

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <before.json> <after.json>",
	Short: "Compare two sets of readings",
	Long:  `Read two metrics objects ({"pH", "chlorine", "heavyMetalScore", "turbidity"}) and print per-metric changes.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var before, after analysis.WaterMetrics
		if err := readJSONFile(args[0], &before); err != nil {
			return err
		}
		if err := readJSONFile(args[1], &after); err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), analysis.Compare(before, after))
	},
}

// Package cmd - classify command
package cmd

import (
	"github.com/aquascan/backend/internal/analysis"
	"github.com/spf13/cobra"
)

var classifyMetrics analysis.WaterMetrics

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify measured readings",
	Long: `Build the safety report for readings taken with a test kit.

Example:
  aquascan classify --ph 7.2 --chlorine 0.6 --heavy-metal 2 --turbidity 0.5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeJSON(cmd.OutOrStdout(), analysis.BuildReport(classifyMetrics))
	},
}

func init() {
	classifyCmd.Flags().Float64Var(&classifyMetrics.PH, "ph", 0, "pH value")
	classifyCmd.Flags().Float64Var(&classifyMetrics.Chlorine, "chlorine", 0, "free chlorine in ppm")
	classifyCmd.Flags().Float64Var(&classifyMetrics.HeavyMetalScore, "heavy-metal", 0, "heavy metal score on a 0-10 scale")
	classifyCmd.Flags().Float64Var(&classifyMetrics.Turbidity, "turbidity", 0, "turbidity in NTU")

	for _, name := range []string{"ph", "chlorine", "heavy-metal", "turbidity"} {
		_ = classifyCmd.MarkFlagRequired(name)
	}
}

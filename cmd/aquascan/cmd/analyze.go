// Package cmd - analyze command
package cmd

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/aquascan/backend/internal/analysis"
	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	analyzeSeed   uint64
	analyzeBase64 bool
)

// AnalyzeOutput is printed by the analyze command
type AnalyzeOutput struct {
	File     string                 `json:"file"`
	Features analysis.ImageFeatures `json:"features"`
	Report   *analysis.Report       `json:"report"`
}

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <image-file>",
	Short: "Analyse an image file",
	Long: `Derive water metrics from an image and print the full report.

The file is read as raw bytes and base64 encoded, or used as is with --base64.
A fixed --seed makes the synthesized metrics reproducible.

Examples:
  aquascan analyze ./sample.jpg
  aquascan analyze --base64 --seed 42 ./sample.b64`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Uint64Var(&analyzeSeed, "seed", 0, "random seed, 0 seeds from the clock")
	analyzeCmd.Flags().BoolVar(&analyzeBase64, "base64", false, "file already holds base64 text")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	text := string(data)
	if !analyzeBase64 {
		text = base64.StdEncoding.EncodeToString(data)
	}

	payload, err := analysis.PayloadFromBase64(text)
	if err != nil {
		return err
	}

	analyzer := services.NewAnalyzer(&config.AnalysisConfig{RandomSeed: analyzeSeed})
	result, err := analyzer.Analyze(cmd.Context(), payload)
	if err != nil {
		return err
	}

	report := analysis.BuildReport(result.Metrics)
	logger.Debug("Image analysed",
		zap.String("file", path),
		zap.Int("payload_length", payload.Len()),
		zap.String("overall", string(report.Safety.Overall)),
	)

	return writeJSON(cmd.OutOrStdout(), AnalyzeOutput{
		File:     path,
		Features: result.Features,
		Report:   report,
	})
}

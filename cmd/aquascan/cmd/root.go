// Package cmd provides the CLI commands for aquascan.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquascan/backend/internal/config"
	"github.com/aquascan/backend/internal/utils"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  = utils.NewNopLogger()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aquascan",
	Short: "Analyse water samples offline",
	Long: `aquascan runs the water-quality analysis engine without a server.

Results are written to stdout as JSON, logs go to stderr.

Examples:
  aquascan analyze ./sample.jpg
  aquascan analyze --base64 --seed 42 ./sample.b64
  aquascan classify --ph 7.2 --chlorine 0.6 --heavy-metal 2 --turbidity 0.5
  aquascan trend ./history.json
  aquascan compare ./before.json ./after.json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		l, err := utils.NewLogger(&config.LogConfig{Level: level, Format: "console"})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the CLI. Interrupts cancel a running analysis.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(compareCmd)
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func readJSONFile(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

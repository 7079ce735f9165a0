package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qa-automation/e2e-notify/plugin"
)

var thresholdFlag int

func init() {
	rootCmd.Flags().IntVarP(
		&thresholdFlag,
		"threshold",
		"t",
		-1,
		"minimum flakiness percentage to report a test (defaults to FLAKY_THRESHOLD or 20)",
	)
}

var rootCmd = &cobra.Command{
	Use:          "flaky-analyzer <results-file> <output-file>",
	Short:        "Write a flaky-test analysis for a JUnit XML results file",
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var analyzeArgs plugin.AnalyzeArgs
		if err := envconfig.Process("", &analyzeArgs); err != nil {
			return fmt.Errorf("invalid environment: %w", err)
		}
		plugin.SetLogLevel(analyzeArgs.Level)

		analyzeArgs.ResultsFile = args[0]
		analyzeArgs.OutputFile = args[1]
		if thresholdFlag >= 0 {
			analyzeArgs.Threshold = thresholdFlag
		}

		analysis, err := plugin.Analyze(analyzeArgs)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d flaky of %d tests, %d at or above %d%%\n",
			analysis.Summary.Flaky, analysis.Summary.Total, len(analysis.FlakyTests), analyzeArgs.Threshold)
		return nil
	},
}

func main() {
	logrus.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qa-automation/e2e-notify/plugin"
)

var rootCmd = &cobra.Command{
	Use:   "slack-notification <workflow-name> <environment> <run-id> <results-file> [testrail-run-id] [public-report-url] [flaky-analysis-file]",
	Short: "Post an end-to-end test run summary to Slack",
	Long: "Parses a JUnit XML results file, classifies retried tests as flaky, posts a summary\n" +
		"to the Slack webhook in SLACK_WEBHOOK_URL and uploads the report PDF and failure\n" +
		"videos when SLACK_BOT_TOKEN is set.",
	Args: cobra.RangeArgs(4, 7),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pluginArgs plugin.Args
		if err := envconfig.Process("", &pluginArgs); err != nil {
			return fmt.Errorf("invalid environment: %w", err)
		}
		plugin.SetLogLevel(pluginArgs.Level)

		pluginArgs.WorkflowName = args[0]
		pluginArgs.Environment = args[1]
		pluginArgs.RunID = args[2]
		pluginArgs.ResultsFile = args[3]
		if len(args) > 4 {
			pluginArgs.TestRailRunID = args[4]
		}
		if len(args) > 5 {
			pluginArgs.PublicReportURL = args[5]
		}
		if len(args) > 6 {
			pluginArgs.FlakyAnalysisFile = args[6]
		}

		if err := plugin.ValidateInputs(pluginArgs); err != nil {
			return err
		}
		cmd.SilenceUsage = true

		return plugin.Exec(cmd.Context(), pluginArgs)
	},
}

func main() {
	logrus.SetOutput(os.Stderr)

	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("Panic", r).Error("Unexpected error while sending notification")
			os.Exit(1)
		}
	}()

	rootCmd.SetErr(os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package plugin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qa-automation/e2e-notify/internal/flaky"
	"github.com/qa-automation/e2e-notify/internal/notify"
	"github.com/qa-automation/e2e-notify/internal/results"
	"github.com/qa-automation/e2e-notify/internal/transport"
)

// ErrNotificationFailed is returned by Exec when Slack did not accept the
// webhook message.
var ErrNotificationFailed = errors.New("failed to send Slack notification")

// ValidateInputs ensures the notifier has everything it needs before any
// file is read.
func ValidateInputs(args Args) error {
	if args.WorkflowName == "" || args.Environment == "" || args.RunID == "" || args.ResultsFile == "" {
		return errors.New("missing required arguments: workflow-name, environment, run-id and results-file must be provided")
	}
	if args.WebhookURL == "" {
		return errors.New("missing required environment variable: SLACK_WEBHOOK_URL")
	}
	if args.Repository == "" {
		return errors.New("missing required environment variable: GITHUB_REPOSITORY")
	}
	return nil
}

// ValidateAnalyzeInputs checks the analyzer arguments.
func ValidateAnalyzeInputs(args AnalyzeArgs) error {
	if args.ResultsFile == "" || args.OutputFile == "" {
		return errors.New("missing required arguments: results-file and output-file must be provided")
	}
	if args.Threshold < 0 || args.Threshold > 100 {
		return fmt.Errorf("invalid threshold %d: it must be between 0 and 100", args.Threshold)
	}
	return nil
}

// SetLogLevel applies a logrus level name, keeping the current level when
// the name is unknown.
func SetLogLevel(level string) {
	if level == "" {
		return
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("Level", level).Warn("Unknown log level, keeping default")
		return
	}
	logrus.SetLevel(parsed)
}

// Exec parses the results, posts the run notification and uploads the
// artifacts. Uploads run even when the webhook fails; only the webhook
// outcome decides the returned error.
func Exec(ctx context.Context, args Args) error {
	return exec(ctx, args, transport.NewHTTPClient(), time.Now)
}

func exec(ctx context.Context, args Args, client *http.Client, now func() time.Time) error {
	if err := ValidateInputs(args); err != nil {
		return err
	}

	report, err := results.Analyze(args.ResultsFile)
	if err != nil {
		logrus.WithError(err).WithField("File", args.ResultsFile).Error("Error processing results file")
		return err
	}
	logReport(report)

	msg := notify.Compose(notify.Message{
		Metadata: notify.Metadata{
			WorkflowName:    args.WorkflowName,
			Environment:     args.Environment,
			RunID:           args.RunID,
			ServerURL:       args.ServerURL,
			Repository:      args.Repository,
			Actor:           args.Actor,
			TestRailRunID:   args.TestRailRunID,
			TestRailHost:    args.TestRailHost,
			PublicReportURL: args.PublicReportURL,
		},
		Summary:     report.Summary,
		FailedTests: report.FailedTests,
		Flaky:       flaky.Load(args.FlakyAnalysisFile),
		GeneratedAt: now(),
	})

	delivered := transport.NewWebhook(args.WebhookURL, client).Post(ctx, msg)

	uploader := transport.NewUploader(args.BotToken, args.UploadChannel, args.SlackAPIURL, client)
	uploadArtifacts(ctx, args, report.Summary, uploader)

	if !delivered {
		return ErrNotificationFailed
	}
	return nil
}

// uploadArtifacts sends the PDF report and, when something failed, the
// recorded videos. Each upload is attempted once, in sequence.
func uploadArtifacts(ctx context.Context, args Args, summary results.Summary, uploader *transport.Uploader) int {
	if !uploader.Enabled() {
		logrus.Info("SLACK_BOT_TOKEN not set, skipping artifact uploads")
		return 0
	}

	uploaded := 0
	if pdf := locateReportPDF(args.ReportsDir, args.TestRailRunID); pdf != "" {
		comment := fmt.Sprintf(":page_facing_up: Test report for %s (%s)", args.WorkflowName, args.Environment)
		if args.TestRailRunID != "" {
			comment = fmt.Sprintf(":page_facing_up: TestRail report for run %s", args.TestRailRunID)
		}
		if _, ok := uploader.Upload(ctx, pdf, filepath.Base(pdf), comment); ok {
			uploaded++
		}
	} else {
		logrus.WithField("Directory", args.ReportsDir).Info("No PDF report found, skipping report upload")
	}

	if summary.Failed == 0 {
		return uploaded
	}

	videos := locateVideos(args.TestResultsDir)
	logrus.WithField("Directory", args.TestResultsDir).Infof("Found %d failure video(s)", len(videos))
	for _, video := range videos {
		name := videoName(args.TestResultsDir, video)
		if _, ok := uploader.Upload(ctx, video, name, fmt.Sprintf(":movie_camera: Failure recording: %s", name)); ok {
			uploaded++
		}
	}
	return uploaded
}

// videoName makes per-test recordings distinguishable: Playwright writes
// every one of them as video.webm inside a per-test directory.
func videoName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "_")
}

// Analyze writes the flaky-analysis file for a results file.
func Analyze(args AnalyzeArgs) (*flaky.Analysis, error) {
	if err := ValidateAnalyzeInputs(args); err != nil {
		return nil, err
	}

	report, err := results.Analyze(args.ResultsFile)
	if err != nil {
		logrus.WithError(err).WithField("File", args.ResultsFile).Error("Error processing results file")
		return nil, err
	}

	analysis := flaky.Build(report.Groups, args.Threshold)
	if err := flaky.Write(args.OutputFile, analysis); err != nil {
		logrus.WithError(err).WithField("File", args.OutputFile).Error("Failed to write flaky analysis")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"Tests":     analysis.Summary.Total,
		"Flaky":     analysis.Summary.Flaky,
		"Reported":  len(analysis.FlakyTests),
		"Threshold": args.Threshold,
	}).Infof("Flaky analysis written to %s", args.OutputFile)
	return analysis, nil
}

// logReport logs every test group at debug level and the totals at info.
func logReport(report *results.Report) {
	for _, group := range report.Groups {
		fields := logrus.Fields{
			"Passes":  group.Passes,
			"Fails":   group.Fails,
			"Skipped": group.Skipped,
		}
		if percent, ok := group.Flakiness(); ok {
			fields["Flakiness"] = fmt.Sprintf("%d%%", percent)
		}
		logrus.WithFields(fields).Debugf("- Test: %s | Status: %s", group.String(), group.Classify())
	}

	s := report.Summary
	logrus.Infof("\n===============================================")
	logrus.Infof("\nTotal Tests: %d | Passed: %d | Failed: %d | Flaky: %d | Skipped: %d | Duration: %s",
		s.Total, s.Passed, s.Failed, s.FlakyTests, s.Skipped, s.FormatDuration())
	logrus.Infof("\n===============================================")
}

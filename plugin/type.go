package plugin

// Args represents the notifier's configuration: positional arguments bound
// by the command line plus environment settings loaded by envconfig.
type Args struct {
	WorkflowName      string `ignored:"true"`
	Environment       string `ignored:"true"`
	RunID             string `ignored:"true"`
	ResultsFile       string `ignored:"true"`
	TestRailRunID     string `ignored:"true"`
	PublicReportURL   string `ignored:"true"`
	FlakyAnalysisFile string `ignored:"true"`

	WebhookURL     string `envconfig:"SLACK_WEBHOOK_URL" required:"true"`
	Repository     string `envconfig:"GITHUB_REPOSITORY" required:"true"`
	BotToken       string `envconfig:"SLACK_BOT_TOKEN"`
	UploadChannel  string `envconfig:"SLACK_UPLOAD_CHANNEL" default:"general"`
	SlackAPIURL    string `envconfig:"SLACK_API_URL"`
	ServerURL      string `envconfig:"GITHUB_SERVER_URL" default:"https://github.com"`
	Actor          string `envconfig:"GITHUB_ACTOR" default:"unknown"`
	TestRailHost   string `envconfig:"TESTRAIL_HOST"`
	ReportsDir     string `envconfig:"REPORTS_DIR" default:"testrail-reports"`
	TestResultsDir string `envconfig:"TEST_RESULTS_DIR" default:"test-results"`
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
}

// AnalyzeArgs configures the flaky analyzer.
type AnalyzeArgs struct {
	ResultsFile string `ignored:"true"`
	OutputFile  string `ignored:"true"`

	Threshold int    `envconfig:"FLAKY_THRESHOLD" default:"20"`
	Level     string `envconfig:"LOG_LEVEL" default:"info"`
}

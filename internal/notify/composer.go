// Package notify builds the Slack Block Kit message for a test run.
package notify

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/slack-go/slack"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/qa-automation/e2e-notify/internal/flaky"
	"github.com/qa-automation/e2e-notify/internal/results"
)

const (
	passMarker  = "🟢"
	failMarker  = "🔴"
	flakyMarker = "🟡"
	skipMarker  = "⚪"

	// Slack rejects section text over 3000 characters.
	sectionLimit = 2900
	headerLimit  = 150

	maxFlakyTests = 3
)

// Metadata describes the CI run being reported.
type Metadata struct {
	WorkflowName    string
	Environment     string
	RunID           string
	ServerURL       string
	Repository      string
	Actor           string
	TestRailRunID   string
	TestRailHost    string
	PublicReportURL string
}

// Message is everything Compose needs.
type Message struct {
	Metadata
	Summary     results.Summary
	FailedTests []string
	Flaky       *flaky.Analysis
	GeneratedAt time.Time
}

// Dots renders one marker per passed execution, failed execution, flaky
// test and skipped execution, in that order.
func Dots(s results.Summary) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(passMarker, max(s.Passed, 0)))
	b.WriteString(strings.Repeat(failMarker, max(s.Failed, 0)))
	b.WriteString(strings.Repeat(flakyMarker, max(s.FlakyTests, 0)))
	b.WriteString(strings.Repeat(skipMarker, max(s.Skipped, 0)))
	return b.String()
}

// PipelineTag labels the footer after the target environment.
func PipelineTag(environment string) string {
	env := strings.ToLower(environment)
	switch {
	case strings.Contains(env, "prod"):
		return "Production Pipeline"
	case strings.Contains(env, "stag"):
		return "Staging Pipeline"
	default:
		return "Development Pipeline"
	}
}

// RunURL links to the CI run.
func (m Metadata) RunURL() string {
	return fmt.Sprintf("%s/%s/actions/runs/%s", strings.TrimRight(m.ServerURL, "/"), m.Repository, m.RunID)
}

// Compose builds the webhook payload: a single attachment colored after the
// run status, holding all blocks.
func Compose(m Message) *slack.WebhookMessage {
	status := DetermineStatus(m.Summary)
	env := capitalize(m.Environment)

	blocks := []slack.Block{
		header(fmt.Sprintf("%s %s - %s", status.Emoji, m.WorkflowName, env)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			field("Total Tests", m.Summary.Total),
			field("Passed", m.Summary.Passed),
			field("Skipped", m.Summary.Skipped),
			field("Failed", m.Summary.Failed),
			field("Duration", m.Summary.FormatDuration()),
			field("Flaky Tests", m.Summary.FlakyTests),
		}, nil),
	}

	if dots := Dots(m.Summary); dots != "" {
		blocks = append(blocks, section("*Results:* "+dots))
	}

	banner := fmt.Sprintf("%s *%s*", status.Emoji, status.Text)
	if m.Summary.Total > 0 {
		banner += fmt.Sprintf(" (%.1f%% pass rate)", m.Summary.PassRate())
	}
	blocks = append(blocks, section(banner))

	if len(m.FailedTests) > 0 {
		blocks = append(blocks, section("*Failed Tests:*\n"+bullets(m.FailedTests)))
	}

	if lines := flakyLines(m.Flaky); len(lines) > 0 {
		title := fmt.Sprintf("*Flaky Tests (%d of %d above %d%%):*\n",
			len(m.Flaky.FlakyTests), m.Flaky.Summary.Total, m.Flaky.EffectiveThreshold())
		blocks = append(blocks, section(title+bullets(lines)))
	}

	blocks = append(blocks,
		section("*Links:*\n"+strings.Join(links(m.Metadata), "\n")),
		slack.NewContextBlock("", markdown(fmt.Sprintf("Triggered by: *%s*", m.Actor))),
		slack.NewContextBlock("", markdown(fmt.Sprintf("%s | Generated at %s",
			PipelineTag(m.Environment), m.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST")))),
	)

	return &slack.WebhookMessage{
		Text: fmt.Sprintf("%s (%s): %s", m.WorkflowName, env, status.Text),
		Attachments: []slack.Attachment{
			{
				Color:  status.Color,
				Blocks: slack.Blocks{BlockSet: blocks},
			},
		},
	}
}

func links(m Metadata) []string {
	out := []string{fmt.Sprintf("<%s|GitHub Actions Run>", m.RunURL())}
	if url, ok := TestRailRunURL(m.TestRailHost, m.TestRailRunID); ok {
		out = append(out, fmt.Sprintf("<%s|TestRail Report>", url))
	}
	if m.PublicReportURL != "" {
		out = append(out, fmt.Sprintf("<%s|Test Report>", m.PublicReportURL))
	}
	return out
}

func flakyLines(a *flaky.Analysis) []string {
	if a == nil {
		return nil
	}
	var lines []string
	for i, test := range a.FlakyTests {
		if i >= maxFlakyTests {
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %d%% flaky (%dP/%dF)", test.Name, test.FlakinessPercent, test.Passes, test.Fails))
	}
	return lines
}

func bullets(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("• ")
		b.WriteString(item)
	}
	return b.String()
}

func field(label string, value any) *slack.TextBlockObject {
	return markdown(fmt.Sprintf("*%s:*\n%v", label, value))
}

func section(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(markdown(truncate(text, sectionLimit)), nil, nil)
}

func header(text string) *slack.HeaderBlock {
	if runes := []rune(text); len(runes) > headerLimit {
		text = string(runes[:headerLimit-1]) + "…"
	}
	return slack.NewHeaderBlock(plainText(text))
}

// capitalize upper-cases the first letter only: "QA" and "uat-EU" keep
// their casing.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return cases.Upper(language.English).String(string(r)) + s[size:]
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func plainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

// truncate cuts text on a rune boundary so it fits a Slack text field.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-50]) + "\n\n...(truncated due to length)"
}

package notify

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qa-automation/e2e-notify/internal/flaky"
	"github.com/qa-automation/e2e-notify/internal/results"
)

func testMetadata() Metadata {
	return Metadata{
		WorkflowName: "E2E Regression",
		Environment:  "staging",
		RunID:        "123456",
		ServerURL:    "https://github.com",
		Repository:   "acme/e2e-tests",
		Actor:        "octocat",
	}
}

// blockTexts flattens every text object of the message, block by block.
func blockTexts(t *testing.T, msg *slack.WebhookMessage) []string {
	t.Helper()
	require.Len(t, msg.Attachments, 1)

	var texts []string
	for _, block := range msg.Attachments[0].Blocks.BlockSet {
		switch b := block.(type) {
		case *slack.HeaderBlock:
			texts = append(texts, b.Text.Text)
		case *slack.SectionBlock:
			if b.Text != nil {
				texts = append(texts, b.Text.Text)
			}
			for _, f := range b.Fields {
				texts = append(texts, f.Text)
			}
		case *slack.ContextBlock:
			for _, el := range b.ContextElements.Elements {
				if obj, ok := el.(*slack.TextBlockObject); ok {
					texts = append(texts, obj.Text)
				}
			}
		}
	}
	return texts
}

func containsText(texts []string, substr string) bool {
	for _, text := range texts {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

func TestDetermineStatus(t *testing.T) {
	tests := []struct {
		name    string
		summary results.Summary
		kind    StatusKind
		color   string
	}{
		{"NoTests", results.Summary{}, NoTestsRun, "#ff0000"},
		{"NoTestsWithBogusFailures", results.Summary{Failed: 3, FailedTests: 2}, NoTestsRun, "#ff0000"},
		{"AllPassed", results.Summary{Total: 1, Passed: 1, PassedTests: 1}, AllPassed, "#36a64f"},
		{"Failed", results.Summary{Total: 3, Passed: 2, Failed: 1, PassedTests: 2, FailedTests: 1}, TestsFailed, "#ff0000"},
		{"FailedBeatsFlaky", results.Summary{Total: 2, Passed: 1, Failed: 3, FailedTests: 1, FlakyTests: 1}, TestsFailed, "#ff0000"},
		{"Flaky", results.Summary{Total: 1, Passed: 1, Failed: 1, FlakyTests: 1}, FlakyDetected, "#ffa500"},
		{"Skipped", results.Summary{Total: 2, Passed: 1, Skipped: 1, PassedTests: 1, SkippedTests: 1}, SomeSkipped, "#ffcc00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status := DetermineStatus(tc.summary)
			assert.Equal(t, tc.kind, status.Kind)
			assert.Equal(t, tc.color, status.Color)
			assert.NotEmpty(t, status.Emoji)
		})
	}
}

func TestDots(t *testing.T) {
	dots := Dots(results.Summary{Passed: 2, Failed: 1, FlakyTests: 1, Skipped: 1})

	assert.Equal(t, passMarker+passMarker+failMarker+flakyMarker+skipMarker, dots)
	assert.Equal(t, 5, utf8.RuneCountInString(dots))
	assert.Empty(t, Dots(results.Summary{}))
}

func TestTestRailRunURL(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		runID  string
		url    string
		linked bool
	}{
		{
			name:   "APIHost",
			host:   "https://x.testrail.io/api/v2",
			runID:  "42",
			url:    "https://x.testrail.io/index.php?/runs/view/42" + testRailSuffix,
			linked: true,
		},
		{
			name:   "PlainHostWithSlash",
			host:   "https://x.testrail.io/",
			runID:  "7",
			url:    "https://x.testrail.io/index.php?/runs/view/7" + testRailSuffix,
			linked: true,
		},
		{name: "NoScheme", host: "x.testrail.io", runID: "7"},
		{name: "NoHost", host: "", runID: "7"},
		{name: "NoRunID", host: "https://x.testrail.io", runID: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			url, ok := TestRailRunURL(tc.host, tc.runID)
			assert.Equal(t, tc.linked, ok)
			assert.Equal(t, tc.url, url)
		})
	}
}

func TestPipelineTag(t *testing.T) {
	assert.Equal(t, "Production Pipeline", PipelineTag("Production"))
	assert.Equal(t, "Staging Pipeline", PipelineTag("staging"))
	assert.Equal(t, "Development Pipeline", PipelineTag("dev"))
}

func TestComposeAllPassed(t *testing.T) {
	msg := Compose(Message{
		Metadata:    testMetadata(),
		Summary:     results.Summary{Total: 1, Passed: 1, PassedTests: 1, Duration: 3500 * time.Millisecond},
		GeneratedAt: time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC),
	})

	assert.Equal(t, "#36a64f", msg.Attachments[0].Color)
	assert.Equal(t, "E2E Regression (Staging): All tests passed", msg.Text)

	texts := blockTexts(t, msg)
	assert.Equal(t, ":white_check_mark: E2E Regression - Staging", texts[0])
	assert.Contains(t, texts, "*Total Tests:*\n1")
	assert.Contains(t, texts, "*Duration:*\n4s")
	assert.Contains(t, texts, "*Flaky Tests:*\n0")
	assert.Contains(t, texts, "*Results:* "+passMarker)
	assert.Contains(t, texts, ":white_check_mark: *All tests passed* (100.0% pass rate)")
	assert.Contains(t, texts, "Triggered by: *octocat*")
	assert.Contains(t, texts, "Staging Pipeline | Generated at 2026-10-16 09:30:00 UTC")
	assert.False(t, containsText(texts, "*Failed Tests:*"))
	assert.False(t, containsText(texts, "Flaky Tests ("))
}

func TestComposeLinks(t *testing.T) {
	tests := []struct {
		name       string
		host       string
		runID      string
		reportURL  string
		testRail   bool
		publicLink bool
	}{
		{name: "RunIDWithoutHost", runID: "42"},
		{name: "HostAndRunID", host: "https://x.testrail.io/api/v2", runID: "42", testRail: true},
		{name: "MalformedHost", host: "x.testrail.io", runID: "42"},
		{name: "PublicReport", reportURL: "https://reports.example.com/run/1", publicLink: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			meta := testMetadata()
			meta.TestRailHost = tc.host
			meta.TestRailRunID = tc.runID
			meta.PublicReportURL = tc.reportURL

			texts := blockTexts(t, Compose(Message{Metadata: meta, Summary: results.Summary{Total: 1, Passed: 1, PassedTests: 1}}))

			assert.True(t, containsText(texts, "<https://github.com/acme/e2e-tests/actions/runs/123456|GitHub Actions Run>"))
			assert.Equal(t, tc.testRail, containsText(texts, "|TestRail Report>"))
			if tc.testRail {
				assert.True(t, containsText(texts, "<https://x.testrail.io/index.php?/runs/view/42"))
			}
			assert.Equal(t, tc.publicLink, containsText(texts, "<https://reports.example.com/run/1|Test Report>"))
		})
	}
}

func TestComposeFailuresAndFlaky(t *testing.T) {
	threshold := 20
	analysis := &flaky.Analysis{
		Summary: flaky.Summary{Total: 10, Flaky: 2, Threshold: &threshold},
		FlakyTests: []flaky.Test{
			{Name: "X", FlakinessPercent: 33, Passes: 2, Fails: 1},
		},
	}

	msg := Compose(Message{
		Metadata: testMetadata(),
		Summary: results.Summary{
			Total: 6, Passed: 5, Failed: 3, Skipped: 1,
			PassedTests: 3, FailedTests: 1, FlakyTests: 1, SkippedTests: 1,
		},
		FailedTests: []string{"Rent Budget -> rejects empty budget", "Employment › uploads paystub"},
		Flaky:       analysis,
	})

	assert.Equal(t, "#ff0000", msg.Attachments[0].Color)

	texts := blockTexts(t, msg)
	assert.Contains(t, texts, "*Failed Tests:*\n• Rent Budget -> rejects empty budget\n• Employment › uploads paystub")
	assert.Contains(t, texts, "*Flaky Tests (1 of 10 above 20%):*\n• X: 33% flaky (2P/1F)")
	assert.Contains(t, texts, ":x: *Some tests failed* (50.0% pass rate)")
	assert.Contains(t, texts, "*Results:* "+Dots(results.Summary{Passed: 5, Failed: 3, FlakyTests: 1, Skipped: 1}))
}

func TestComposeFlakyExcerptLimitedToThree(t *testing.T) {
	analysis := &flaky.Analysis{}
	for _, name := range []string{"a", "b", "c", "d"} {
		analysis.FlakyTests = append(analysis.FlakyTests, flaky.Test{Name: name, FlakinessPercent: 50, Passes: 1, Fails: 1})
	}

	texts := blockTexts(t, Compose(Message{Metadata: testMetadata(), Summary: results.Summary{Total: 1, FlakyTests: 1, Passed: 1, Failed: 1}, Flaky: analysis}))

	assert.True(t, containsText(texts, "• c: 50% flaky (1P/1F)"))
	assert.False(t, containsText(texts, "• d:"))
}

func TestComposeEmptyFlakyAnalysis(t *testing.T) {
	texts := blockTexts(t, Compose(Message{
		Metadata: testMetadata(),
		Summary:  results.Summary{Total: 1, Passed: 1, PassedTests: 1},
		Flaky:    &flaky.Analysis{Summary: flaky.Summary{Total: 4}},
	}))
	assert.False(t, containsText(texts, "Flaky Tests ("))
}

func TestComposeNoTests(t *testing.T) {
	msg := Compose(Message{Metadata: testMetadata()})

	assert.Equal(t, "#ff0000", msg.Attachments[0].Color)
	texts := blockTexts(t, msg)
	assert.Contains(t, texts, ":warning: *No tests were executed*")
	assert.Contains(t, texts, "*Duration:*\nN/A")
	assert.False(t, containsText(texts, "*Results:*"))
}

func TestComposeWireFormat(t *testing.T) {
	data, err := json.Marshal(Compose(Message{Metadata: testMetadata(), Summary: results.Summary{Total: 1, Passed: 1, PassedTests: 1}}))
	require.NoError(t, err)

	var wire struct {
		Attachments []struct {
			Color  string `json:"color"`
			Blocks []struct {
				Type string `json:"type"`
			} `json:"blocks"`
		} `json:"attachments"`
	}
	require.NoError(t, json.Unmarshal(data, &wire))
	require.Len(t, wire.Attachments, 1)

	var types []string
	for _, b := range wire.Attachments[0].Blocks {
		types = append(types, b.Type)
	}
	assert.Equal(t, []string{"header", "section", "section", "section", "section", "context", "context"}, types)
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("é", 3500)
	out := truncate(long, sectionLimit)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), sectionLimit)
	assert.True(t, strings.HasSuffix(out, "...(truncated due to length)"))
	assert.Equal(t, "short", truncate("short", sectionLimit))
}

func TestComposeEnvironmentCasing(t *testing.T) {
	tests := []struct {
		environment string
		expected    string
	}{
		{environment: "staging", expected: "Staging"},
		{environment: "QA", expected: "QA"},
		{environment: "uat-EU", expected: "Uat-EU"},
		{environment: "", expected: ""},
	}

	for _, tc := range tests {
		t.Run(tc.environment, func(t *testing.T) {
			m := testMetadata()
			m.WorkflowName = "E2E"
			m.Environment = tc.environment

			msg := Compose(Message{Metadata: m})

			assert.Equal(t, "E2E ("+tc.expected+"): No tests were executed", msg.Text)
			assert.Equal(t, ":warning: E2E - "+tc.expected, blockTexts(t, msg)[0])
		})
	}
}

func TestComposeLongHeader(t *testing.T) {
	m := testMetadata()
	m.WorkflowName = strings.Repeat("Nightly Regression ", 20)

	msg := Compose(Message{Metadata: m})

	header := blockTexts(t, msg)[0]
	assert.Equal(t, headerLimit, utf8.RuneCountInString(header))
	assert.True(t, strings.HasPrefix(header, ":warning: Nightly Regression"))
	assert.True(t, strings.HasSuffix(header, "…"))
}

package notify

import "github.com/qa-automation/e2e-notify/internal/results"

// StatusKind is the overall verdict of a run.
type StatusKind string

const (
	NoTestsRun    StatusKind = "NO_TESTS_RUN"
	AllPassed     StatusKind = "ALL_PASSED"
	TestsFailed   StatusKind = "TESTS_FAILED"
	FlakyDetected StatusKind = "FLAKY_DETECTED"
	SomeSkipped   StatusKind = "SOME_SKIPPED"
)

// Status is the banner shown in the message and the attachment color.
type Status struct {
	Kind  StatusKind
	Color string
	Emoji string
	Text  string
}

var statuses = map[StatusKind]Status{
	NoTestsRun:    {Kind: NoTestsRun, Color: "#ff0000", Emoji: ":warning:", Text: "No tests were executed"},
	AllPassed:     {Kind: AllPassed, Color: "#36a64f", Emoji: ":white_check_mark:", Text: "All tests passed"},
	TestsFailed:   {Kind: TestsFailed, Color: "#ff0000", Emoji: ":x:", Text: "Some tests failed"},
	FlakyDetected: {Kind: FlakyDetected, Color: "#ffa500", Emoji: ":large_yellow_circle:", Text: "Flaky tests detected"},
	SomeSkipped:   {Kind: SomeSkipped, Color: "#ffcc00", Emoji: ":fast_forward:", Text: "Some tests were skipped"},
}

// DetermineStatus picks the banner from group counts, first match wins:
// no tests, every test passed, a test failed on every run, a test was
// flaky, otherwise something was skipped.
func DetermineStatus(s results.Summary) Status {
	switch {
	case s.Total <= 0:
		return statuses[NoTestsRun]
	case s.PassedTests == s.Total:
		return statuses[AllPassed]
	case s.FailedTests > 0:
		return statuses[TestsFailed]
	case s.FlakyTests > 0:
		return statuses[FlakyDetected]
	default:
		return statuses[SomeSkipped]
	}
}

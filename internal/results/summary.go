package results

import (
	"fmt"
	"time"
)

// Summary aggregates a run. Passed, Failed and Skipped count executions;
// Total and the *Tests fields count groups.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int

	PassedTests  int
	FailedTests  int
	FlakyTests   int
	SkippedTests int

	Duration time.Duration
}

// Aggregate visits every group exactly once.
func Aggregate(groups []*Group, duration time.Duration) Summary {
	summary := Summary{Duration: duration}
	for _, group := range groups {
		summary.Total++
		summary.Passed += group.Passes
		summary.Failed += group.Fails
		summary.Skipped += group.Skipped

		switch group.Classify() {
		case StablePass:
			summary.PassedTests++
		case StableFail:
			summary.FailedTests++
		case Flaky:
			summary.FlakyTests++
		case Skipped:
			summary.SkippedTests++
		}
	}
	return summary
}

// PassRate is the share of tests that passed on every execution, 0-100.
func (s Summary) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.PassedTests) / float64(s.Total) * 100
}

// FormatDuration renders the run duration for humans, "N/A" when unknown.
func (s Summary) FormatDuration() string {
	if s.Duration <= 0 {
		return "N/A"
	}
	total := int(s.Duration.Round(time.Second) / time.Second)
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

// FailedTestNames returns up to limit distinct tests with at least one
// failing execution, in file order.
func FailedTestNames(groups []*Group, limit int) []string {
	var names []string
	for _, group := range groups {
		if len(names) >= limit {
			break
		}
		if group.Fails > 0 {
			names = append(names, group.String())
		}
	}
	return names
}

// Report bundles everything derived from one results file.
type Report struct {
	Groups      []*Group
	Summary     Summary
	FailedTests []string
}

// MaxFailedTests bounds the failed-test excerpt.
const MaxFailedTests = 5

// Analyze loads path and derives groups, totals and the failed-test excerpt.
func Analyze(path string) (*Report, error) {
	run, err := Load(path)
	if err != nil {
		return nil, err
	}
	groups := GroupExecutions(run.Executions)
	return &Report{
		Groups:      groups,
		Summary:     Aggregate(groups, run.Duration),
		FailedTests: FailedTestNames(groups, MaxFailedTests),
	}, nil
}

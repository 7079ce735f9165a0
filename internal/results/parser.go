package results

import (
	"errors"
	"html"
	"io/fs"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Outcome is the result of a single <testcase> execution.
type Outcome int

const (
	Pass Outcome = iota
	Fail
	Skip
)

func (o Outcome) String() string {
	switch o {
	case Fail:
		return "FAIL"
	case Skip:
		return "SKIP"
	default:
		return "PASS"
	}
}

// Execution is one <testcase> occurrence in a results file.
type Execution struct {
	Suite   string
	Name    string
	Outcome Outcome
	Seconds float64
}

// Run holds every execution found in a results file, in file order.
type Run struct {
	Executions []Execution
	// Duration is the summed testcase time, or the suite time when no
	// testcase carries one.
	Duration time.Duration
}

var (
	suiteRegex    = regexp.MustCompile(`<testsuite\s[^>]*?\bname="([^"]*)"`)
	testcaseRegex = regexp.MustCompile(`<testcase\s[^>]*?\bname="([^"]*)"`)
	rootTimeRegex = regexp.MustCompile(`<testsuites?\s[^>]*?\btime="([0-9.]+)"`)
	timeRegex     = regexp.MustCompile(`\btime="([0-9.]+)"`)
)

// Load reads and scans the results file at path. A missing file is not an
// error: it means no run happened, so an empty Run is returned.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logrus.WithField("File", path).Info("Results file not found, assuming no tests were run")
			return &Run{}, nil
		}
		logrus.WithError(err).WithField("File", path).Error("Failed to read results file")
		return nil, errors.New("failed to read results file: " + err.Error())
	}
	return Parse(string(data)), nil
}

// Parse scans JUnit XML text line by line. It does not decode the document:
// the current suite is the last <testsuite name> seen, and a <testcase> is a
// failure (or skip) only when the very next line opens a <failure (or
// <skipped) element. Partial files from crashed runs are scanned the same way.
func Parse(text string) *Run {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	run := &Run{}
	suite := ""
	suiteSeconds := -1.0
	caseSeconds := 0.0
	for i, line := range lines {
		if suiteSeconds < 0 {
			if m := rootTimeRegex.FindStringSubmatch(line); m != nil {
				suiteSeconds, _ = strconv.ParseFloat(m[1], 64)
			}
		}
		if m := suiteRegex.FindStringSubmatch(line); m != nil {
			suite = html.UnescapeString(m[1])
			continue
		}
		m := testcaseRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		exec := Execution{
			Suite:   suite,
			Name:    html.UnescapeString(m[1]),
			Outcome: Pass,
		}
		if i+1 < len(lines) {
			next := lines[i+1]
			switch {
			case strings.Contains(next, "<failure"):
				exec.Outcome = Fail
			case strings.Contains(next, "<skipped"):
				exec.Outcome = Skip
			}
		}
		if t := timeRegex.FindStringSubmatch(line); t != nil {
			exec.Seconds, _ = strconv.ParseFloat(t[1], 64)
			caseSeconds += exec.Seconds
		}
		run.Executions = append(run.Executions, exec)
	}

	seconds := caseSeconds
	if seconds == 0 && suiteSeconds > 0 {
		seconds = suiteSeconds
	}
	run.Duration = time.Duration(math.Round(seconds*1000)) * time.Millisecond
	return run
}

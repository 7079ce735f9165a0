// Package flaky reads and writes the flaky-analysis file that sits between
// the results parser and the notifier.
package flaky

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/qa-automation/e2e-notify/internal/results"
)

// DefaultThreshold is the minimum flakiness percentage a test needs to be
// listed in an analysis.
const DefaultThreshold = 20

// Summary is the header of an analysis file.
type Summary struct {
	Total     int  `json:"total"`
	Flaky     int  `json:"flaky"`
	Threshold *int `json:"threshold,omitempty"`
}

// Test is one surfaced flaky test.
type Test struct {
	Name             string `json:"name"`
	FlakinessPercent int    `json:"flakinessPercent"`
	Passes           int    `json:"passes"`
	Fails            int    `json:"fails"`
}

// Analysis is the on-disk flaky-analysis document.
type Analysis struct {
	Summary    Summary `json:"summary"`
	FlakyTests []Test  `json:"flakyTests"`
}

// EffectiveThreshold returns the recorded threshold or DefaultThreshold.
func (a *Analysis) EffectiveThreshold() int {
	if a.Summary.Threshold == nil {
		return DefaultThreshold
	}
	return *a.Summary.Threshold
}

// Build classifies groups and keeps the flaky ones at or above threshold,
// most flaky first.
func Build(groups []*results.Group, threshold int) *Analysis {
	a := &Analysis{
		Summary: Summary{
			Total:     len(groups),
			Threshold: &threshold,
		},
		FlakyTests: []Test{},
	}

	for _, group := range groups {
		if group.Classify() != results.Flaky {
			continue
		}
		a.Summary.Flaky++

		percent, _ := group.Flakiness()
		if percent < threshold {
			continue
		}
		a.FlakyTests = append(a.FlakyTests, Test{
			Name:             group.String(),
			FlakinessPercent: percent,
			Passes:           group.Passes,
			Fails:            group.Fails,
		})
	}

	sort.SliceStable(a.FlakyTests, func(i, j int) bool {
		if a.FlakyTests[i].FlakinessPercent != a.FlakyTests[j].FlakinessPercent {
			return a.FlakyTests[i].FlakinessPercent > a.FlakyTests[j].FlakinessPercent
		}
		return a.FlakyTests[i].Name < a.FlakyTests[j].Name
	})

	return a
}

// Write stores the analysis as indented JSON.
func Write(path string, a *Analysis) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal flaky analysis")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write flaky analysis to %s", path)
	}
	return nil
}

// Load reads an analysis file. Any problem (missing, unreadable, malformed)
// is logged and reported as nil: the flaky section is an optional extra.
func Load(path string) *Analysis {
	if path == "" {
		return nil
	}
	logger := logrus.WithField("File", path)

	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).Info("Flaky analysis file not available, skipping flaky section")
		return nil
	}

	var a Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		logger.WithError(err).Warn("Failed to parse flaky analysis file, skipping flaky section")
		return nil
	}
	return &a
}

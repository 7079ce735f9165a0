package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"
	"github.com/sirupsen/logrus"
)

// locateFiles returns the sorted files matching a doublestar pattern. No
// match is not an error.
func locateFiles(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(pattern)
	if err != nil {
		logger := logrus.WithError(err).WithField("Pattern", pattern)
		logger.Error("Error occurred while searching for files")
		return nil, errors.New("failed to search for files: " + err.Error())
	}
	sort.Strings(matches)
	return matches, nil
}

// newestFile picks the most recently modified file; ties keep the first
// in sorted order.
func newestFile(files []string) string {
	newest := ""
	var newestInfo os.FileInfo
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		if newestInfo == nil || info.ModTime().After(newestInfo.ModTime()) {
			newest, newestInfo = file, info
		}
	}
	return newest
}

// locateReportPDF finds the PDF report: the newest PDF under reportsDir, or
// else a PDF next to reportsDir whose name carries the TestRail run id.
func locateReportPDF(reportsDir, testRailRunID string) string {
	pdfs, err := locateFiles(filepath.Join(reportsDir, "**", "*.pdf"))
	if err == nil {
		if pdf := newestFile(pdfs); pdf != "" {
			return pdf
		}
	}

	if testRailRunID == "" {
		return ""
	}
	pdfs, err = locateFiles(filepath.Join(filepath.Dir(filepath.Clean(reportsDir)), "*"+testRailRunID+"*.pdf"))
	if err != nil {
		return ""
	}
	return newestFile(pdfs)
}

// locateVideos lists recorded failure videos under testResultsDir.
func locateVideos(testResultsDir string) []string {
	videos, err := locateFiles(filepath.Join(testResultsDir, "**", "*.{webm,mp4}"))
	if err != nil {
		return nil
	}
	return videos
}

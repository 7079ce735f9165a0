package notify

import "strings"

const (
	testRailRunsPath = "/index.php?/runs/view/"
	testRailSuffix   = "&group_by=cases:section_id&group_order=asc&display=tree"
)

// TestRailRunURL derives the run page from a TestRail host. An API host
// such as https://x.testrail.io/api/v2 is cut at /api/. The second return
// value is false when either input is empty or the result is not an http(s)
// URL, in which case no link should be shown.
func TestRailRunURL(host, runID string) (string, bool) {
	host = strings.TrimSpace(host)
	runID = strings.TrimSpace(runID)
	if host == "" || runID == "" {
		return "", false
	}

	var base string
	if idx := strings.Index(host, "/api/"); idx >= 0 {
		base = host[:idx] + testRailRunsPath
	} else {
		base = strings.TrimRight(host, "/") + testRailRunsPath
	}

	url := base + runID + testRailSuffix
	if !strings.HasPrefix(url, "http") {
		return "", false
	}
	return url, true
}

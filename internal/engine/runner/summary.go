package runner

import (
	"regexp"
	"strconv"
	"strings"
)

const maxDiagnosticLines = 3

// Summary holds the pass/fail counts parsed from the harness summary line.
type Summary struct {
	Passed int
	Failed int
	Total  int
}

var (
	passedRe = regexp.MustCompile(`Passed:\s*(\d+)`)
	failedRe = regexp.MustCompile(`Failed:\s*(\d+)`)
	totalRe  = regexp.MustCompile(`Total:\s*(\d+)`)

	// "path/File.cs(12,3): error CS1002: ; expected" -> "; expected"
	diagnosticRe = regexp.MustCompile(`error\s+\w+\s*:\s*(.+)$`)
)

// ParseSummary scans the harness output for the fixed Passed/Failed/Total
// anchors. found is false when no anchor matched, which callers treat as a
// harness crash rather than a zero-test run.
func ParseSummary(text string) (summary Summary, found bool) {
	if m := passedRe.FindStringSubmatch(text); m != nil {
		summary.Passed, _ = strconv.Atoi(m[1])
		found = true
	}
	if m := failedRe.FindStringSubmatch(text); m != nil {
		summary.Failed, _ = strconv.Atoi(m[1])
		found = true
	}
	if m := totalRe.FindStringSubmatch(text); m != nil {
		summary.Total, _ = strconv.Atoi(m[1])
		found = true
	}
	if found && summary.Total == 0 {
		summary.Total = summary.Passed + summary.Failed
	}
	return summary, found
}

// ReduceDiagnostics strips file paths and error codes from compiler output
// and returns at most max deduplicated message lines.
func ReduceDiagnostics(text string, max int) string {
	seen := make(map[string]bool)
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := diagnosticRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		msg := strings.TrimSpace(m[1])
		// The build summary repeats every diagnostic with a project suffix.
		if idx := strings.Index(msg, " ["); idx > 0 {
			msg = msg[:idx]
		}
		if msg == "" || seen[msg] {
			continue
		}
		seen[msg] = true
		kept = append(kept, msg)
		if len(kept) == max {
			break
		}
	}
	return strings.Join(kept, "\n")
}

// noisePhrases identifies toolchain banner lines that carry no information
// for the player: versions, paths, platform banners and progress chatter.
var noisePhrases = []string{
	"Determining projects to restore",
	"Restored ",
	"Microsoft (R)",
	"Copyright (c)",
	"Test run for",
	"Starting test execution",
	"A total of",
	"Build started",
	"Build succeeded",
	"Workload updates are available",
	"Time Elapsed",
	"VSTest version",
	".dll (net",
	"warning",
}

// FilterNoise drops blocklisted toolchain lines from raw harness output.
func FilterNoise(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isNoise(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

func isNoise(line string) bool {
	for _, phrase := range noisePhrases {
		if strings.Contains(line, phrase) {
			return true
		}
	}
	return false
}

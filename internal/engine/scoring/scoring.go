// Package scoring folds the measured sub-metrics into one composite score.
package scoring

import (
	"strings"

	"testroyale/internal/engine/result"
)

// Weights of the composite formula. Deliberately unclamped: the composite can
// go negative or exceed 100, and that range is part of the scoring contract.
const (
	mutationWeight  = 0.4
	branchWeight    = 0.2
	lineWeight      = 0.2
	testLineWeight  = 0.1
	execTimePenalty = 0.1
)

// Composite combines the performance sub-metrics via the fixed weighted
// formula. Pure function, no I/O.
func Composite(perf result.Performance) float64 {
	return perf.Mutation.MutationScorePercent*mutationWeight +
		perf.Coverage.BranchRatePercent*branchWeight +
		perf.Coverage.LineRatePercent*lineWeight +
		float64(perf.TestLineCount)*testLineWeight -
		perf.TestRun.ExecutionTimeSeconds*execTimePenalty
}

// TestLineCount counts the non-blank, non-brace-only, comment-stripped lines
// of submitted test code. A cheap proxy for test effort, not a quality
// measure: it is gameable by padding with trivial statements.
func TestLineCount(code string) int {
	count := 0
	inBlockComment := false
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)

		if inBlockComment {
			if idx := strings.Index(line, "*/"); idx >= 0 {
				line = strings.TrimSpace(line[idx+2:])
				inBlockComment = false
			} else {
				continue
			}
		}
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if idx := strings.Index(line, "/*"); idx >= 0 {
			rest := line[idx+2:]
			if end := strings.Index(rest, "*/"); end >= 0 {
				line = strings.TrimSpace(line[:idx] + rest[end+2:])
			} else {
				line = strings.TrimSpace(line[:idx])
				inBlockComment = true
			}
		}

		if line == "" || isBraceOnly(line) {
			continue
		}
		count++
	}
	return count
}

func isBraceOnly(line string) bool {
	for _, r := range line {
		switch r {
		case '{', '}', ';', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

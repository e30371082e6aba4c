package service

import (
	"fmt"
	"strings"

	"testroyale/internal/game/model"
)

const (
	killRateThreshold = 80.0
	fastSuiteSeconds  = 5.0
)

// evaluateBadges awards a ranked entry its badges. Coverage badges are
// mutually exclusive: only the highest reached tier is awarded. Placement
// badges depend on entry.Rank being set.
func evaluateBadges(entry *model.PlayerGameEntry) []string {
	var badges []string

	if entry.Mutation.OK && entry.Mutation.MutationScorePercent >= killRateThreshold {
		badges = append(badges, model.BadgeKillRate)
	}

	switch line := entry.Coverage.LineRatePercent; {
	case line >= 100:
		badges = append(badges, model.BadgeCoverage100)
	case line >= 90:
		badges = append(badges, model.BadgeCoverage90)
	case line >= 80:
		badges = append(badges, model.BadgeCoverage80)
	case line >= 70:
		badges = append(badges, model.BadgeCoverage70)
	}

	if entry.HasSubmission() && entry.TestRun.Total > 0 &&
		entry.TestRun.ExecutionTimeSeconds < fastSuiteSeconds {
		badges = append(badges, model.BadgeFastSuite)
	}

	switch entry.Rank {
	case 1:
		badges = append(badges, model.BadgeFirstPlace)
	case 2:
		badges = append(badges, model.BadgeSecondPlace)
	}

	return badges
}

// buildFeedback renders a short human-readable summary for the end screen.
func buildFeedback(entry *model.PlayerGameEntry) string {
	if !entry.HasSubmission() {
		return "No test code was submitted."
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d of %d tests passed.",
		entry.TestRun.Passed, entry.TestRun.Total))

	if entry.TestRun.CompileErrorDetail != "" {
		parts = append(parts, "The test suite did not compile.")
		return strings.Join(parts, " ")
	}

	parts = append(parts, fmt.Sprintf("Line coverage %.1f%%, branch coverage %.1f%%.",
		entry.Coverage.LineRatePercent, entry.Coverage.BranchRatePercent))

	if entry.Mutation.OK {
		parts = append(parts, fmt.Sprintf("Your tests killed %d of %d mutants (%.1f%%).",
			entry.Mutation.Killed, entry.Mutation.Total, entry.Mutation.MutationScorePercent))
		if entry.Mutation.Survived > 0 {
			parts = append(parts, fmt.Sprintf("%d mutants survived; strengthen your assertions to catch them.",
				entry.Mutation.Survived))
		}
	} else {
		parts = append(parts, "Mutation analysis was unavailable for this run.")
	}

	return strings.Join(parts, " ")
}

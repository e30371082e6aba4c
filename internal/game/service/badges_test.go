package service

import (
	"strings"
	"testing"

	"testroyale/internal/engine/result"
	"testroyale/internal/game/model"
)

func hasBadge(badges []string, want string) bool {
	for _, b := range badges {
		if b == want {
			return true
		}
	}
	return false
}

func TestEvaluateBadgesCoverageTierExclusive(t *testing.T) {
	tests := []struct {
		lineRate float64
		want     string
	}{
		{100, model.BadgeCoverage100},
		{95, model.BadgeCoverage90},
		{85, model.BadgeCoverage80},
		{72.5, model.BadgeCoverage70},
	}

	coverageBadges := []string{
		model.BadgeCoverage70, model.BadgeCoverage80,
		model.BadgeCoverage90, model.BadgeCoverage100,
	}

	for _, tt := range tests {
		entry := &model.PlayerGameEntry{
			Coverage: result.CoverageReport{OK: true, LineRatePercent: tt.lineRate},
		}
		badges := evaluateBadges(entry)

		if !hasBadge(badges, tt.want) {
			t.Errorf("lineRate %v: missing %s in %v", tt.lineRate, tt.want, badges)
		}
		for _, other := range coverageBadges {
			if other != tt.want && hasBadge(badges, other) {
				t.Errorf("lineRate %v: extra coverage badge %s", tt.lineRate, other)
			}
		}
	}
}

func TestEvaluateBadgesNoCoverageBadgeBelowThreshold(t *testing.T) {
	entry := &model.PlayerGameEntry{
		Coverage: result.CoverageReport{OK: true, LineRatePercent: 69.9},
	}
	for _, b := range evaluateBadges(entry) {
		if strings.HasPrefix(b, "coverage_") {
			t.Errorf("unexpected coverage badge %s", b)
		}
	}
}

func TestEvaluateBadgesKillRate(t *testing.T) {
	entry := &model.PlayerGameEntry{
		Mutation: result.MutationReport{OK: true, MutationScorePercent: 80},
	}
	if !hasBadge(evaluateBadges(entry), model.BadgeKillRate) {
		t.Error("kill_rate not awarded at exactly 80")
	}

	entry.Mutation.MutationScorePercent = 79.9
	if hasBadge(evaluateBadges(entry), model.BadgeKillRate) {
		t.Error("kill_rate awarded below 80")
	}

	// A failed mutation run never earns the badge regardless of the number.
	entry.Mutation = result.MutationReport{OK: false, MutationScorePercent: 100}
	if hasBadge(evaluateBadges(entry), model.BadgeKillRate) {
		t.Error("kill_rate awarded on failed mutation run")
	}
}

func TestEvaluateBadgesFastSuite(t *testing.T) {
	entry := &model.PlayerGameEntry{
		SubmittedCode: "Assert.True(true);",
		TestRun:       result.TestRunResult{Passed: 1, Total: 1, ExecutionTimeSeconds: 4.9},
	}
	if !hasBadge(evaluateBadges(entry), model.BadgeFastSuite) {
		t.Error("fast_suite not awarded under 5s")
	}

	entry.TestRun.ExecutionTimeSeconds = 5
	if hasBadge(evaluateBadges(entry), model.BadgeFastSuite) {
		t.Error("fast_suite awarded at 5s")
	}

	// No tests executed means no speed to reward.
	entry.TestRun = result.TestRunResult{ExecutionTimeSeconds: 0.1}
	if hasBadge(evaluateBadges(entry), model.BadgeFastSuite) {
		t.Error("fast_suite awarded with zero tests")
	}
}

func TestEvaluateBadgesPlacement(t *testing.T) {
	first := &model.PlayerGameEntry{Rank: 1}
	if !hasBadge(evaluateBadges(first), model.BadgeFirstPlace) {
		t.Error("first_place not awarded for rank 1")
	}

	second := &model.PlayerGameEntry{Rank: 2}
	if !hasBadge(evaluateBadges(second), model.BadgeSecondPlace) {
		t.Error("second_place not awarded for rank 2")
	}

	third := &model.PlayerGameEntry{Rank: 3}
	badges := evaluateBadges(third)
	if hasBadge(badges, model.BadgeFirstPlace) || hasBadge(badges, model.BadgeSecondPlace) {
		t.Error("placement badge awarded for rank 3")
	}
}

func TestBuildFeedback(t *testing.T) {
	entry := &model.PlayerGameEntry{
		SubmittedCode: "Assert.True(true);",
		TestRun:       result.TestRunResult{Passed: 4, Failed: 1, Total: 5},
		Coverage:      result.CoverageReport{OK: true, LineRatePercent: 80, BranchRatePercent: 60},
		Mutation:      result.MutationReport{OK: true, Killed: 7, Survived: 3, Total: 10, MutationScorePercent: 70},
	}
	fb := buildFeedback(entry)
	for _, fragment := range []string{"4 of 5 tests passed", "80.0%", "7 of 10 mutants", "3 mutants survived"} {
		if !strings.Contains(fb, fragment) {
			t.Errorf("feedback %q missing %q", fb, fragment)
		}
	}
}

func TestBuildFeedbackNoSubmission(t *testing.T) {
	fb := buildFeedback(&model.PlayerGameEntry{})
	if !strings.Contains(fb, "No test code") {
		t.Errorf("feedback = %q", fb)
	}
}

func TestBuildFeedbackCompileError(t *testing.T) {
	entry := &model.PlayerGameEntry{
		SubmittedCode: "broken",
		TestRun:       result.TestRunResult{CompileErrorDetail: "; expected"},
	}
	fb := buildFeedback(entry)
	if !strings.Contains(fb, "did not compile") {
		t.Errorf("feedback = %q", fb)
	}
	if strings.Contains(fb, "coverage") {
		t.Errorf("feedback mentions coverage after compile failure: %q", fb)
	}
}

package runner

import (
	"strings"
	"testing"
)

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		want      Summary
		wantFound bool
	}{
		{
			name:      "full summary line",
			text:      "Passed!  - Failed:     0, Passed:     7, Skipped:     0, Total:     7, Duration: 42 ms",
			want:      Summary{Passed: 7, Failed: 0, Total: 7},
			wantFound: true,
		},
		{
			name:      "failures present",
			text:      "Failed!  - Failed:     2, Passed:     5, Skipped:     0, Total:     7",
			want:      Summary{Passed: 5, Failed: 2, Total: 7},
			wantFound: true,
		},
		{
			name:      "total derived when absent",
			text:      "Passed: 3\nFailed: 1",
			want:      Summary{Passed: 3, Failed: 1, Total: 4},
			wantFound: true,
		},
		{
			name:      "no anchors",
			text:      "Unhandled exception. System.NullReferenceException",
			wantFound: false,
		},
		{
			name:      "empty",
			text:      "",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ParseSummary(tt.text)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && got != tt.want {
				t.Errorf("ParseSummary() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReduceDiagnostics(t *testing.T) {
	input := strings.Join([]string{
		"Build started 10:32:01.",
		`Tests.cs(12,3): error CS1002: ; expected [TestProject.csproj]`,
		`Tests.cs(14,9): error CS0103: The name 'Addd' does not exist in the current context [TestProject.csproj]`,
		`Tests.cs(12,3): error CS1002: ; expected [TestProject.csproj]`,
		`Tests.cs(20,1): error CS1513: } expected [TestProject.csproj]`,
		`Tests.cs(25,1): error CS1022: Type or namespace definition expected [TestProject.csproj]`,
		"Build FAILED.",
	}, "\n")

	got := ReduceDiagnostics(input, 3)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("kept %d lines, want 3:\n%s", len(lines), got)
	}
	if lines[0] != "; expected" {
		t.Errorf("first line = %q, want path and code stripped", lines[0])
	}
	// The duplicate CS1002 must be collapsed, so line 3 is the CS1513 message.
	if lines[2] != "} expected" {
		t.Errorf("third line = %q, want deduplicated ordering", lines[2])
	}
}

func TestReduceDiagnosticsNoMatches(t *testing.T) {
	if got := ReduceDiagnostics("Build succeeded.\n    0 Warning(s)", 3); got != "" {
		t.Errorf("ReduceDiagnostics() = %q, want empty", got)
	}
}

func TestFilterNoise(t *testing.T) {
	input := strings.Join([]string{
		"Determining projects to restore...",
		"Microsoft (R) Test Execution Command Line Tool Version 17.8.0",
		"Copyright (c) Microsoft Corporation.  All rights reserved.",
		"Starting test execution, please wait...",
		"my program output",
		"Passed!  - Failed: 0, Passed: 3",
		"Time Elapsed 00:00:04.21",
	}, "\n")

	got := FilterNoise(input)
	if strings.Contains(got, "Microsoft") || strings.Contains(got, "Time Elapsed") {
		t.Errorf("noise survived: %q", got)
	}
	if !strings.Contains(got, "my program output") {
		t.Errorf("program output dropped: %q", got)
	}
	if !strings.Contains(got, "Passed!") {
		t.Errorf("result line dropped: %q", got)
	}
}

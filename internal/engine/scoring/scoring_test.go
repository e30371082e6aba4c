package scoring

import (
	"math"
	"testing"

	"testroyale/internal/engine/result"
)

func TestComposite(t *testing.T) {
	tests := []struct {
		name string
		perf result.Performance
		want float64
	}{
		{
			name: "typical run",
			perf: result.Performance{
				TestRun:       result.TestRunResult{ExecutionTimeSeconds: 2},
				Coverage:      result.CoverageReport{LineRatePercent: 85, BranchRatePercent: 90},
				Mutation:      result.MutationReport{MutationScorePercent: 80},
				TestLineCount: 20,
			},
			want: 68.8,
		},
		{
			name: "everything zero",
			perf: result.Performance{},
			want: 0,
		},
		{
			name: "slow empty suite goes negative",
			perf: result.Performance{
				TestRun: result.TestRunResult{ExecutionTimeSeconds: 15},
			},
			want: -1.5,
		},
		{
			name: "not capped at 100",
			perf: result.Performance{
				Coverage:      result.CoverageReport{LineRatePercent: 100, BranchRatePercent: 100},
				Mutation:      result.MutationReport{MutationScorePercent: 100},
				TestLineCount: 500,
			},
			want: 130,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Composite(tt.perf)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Composite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComposite_Deterministic(t *testing.T) {
	perf := result.Performance{
		TestRun:       result.TestRunResult{ExecutionTimeSeconds: 3.5},
		Coverage:      result.CoverageReport{LineRatePercent: 83.3, BranchRatePercent: 61.2},
		Mutation:      result.MutationReport{MutationScorePercent: 72.9},
		TestLineCount: 41,
	}

	first := Composite(perf)
	for i := 0; i < 10; i++ {
		if got := Composite(perf); got != first {
			t.Fatalf("Composite() not deterministic: %v != %v", got, first)
		}
	}
}

func TestTestLineCount(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"empty", "", 0},
		{"blank lines only", "\n\n  \n\t\n", 0},
		{"single statement", "Assert.Equal(1, Add(0, 1));", 1},
		{
			name: "braces and blanks skipped",
			code: "public void TestAdd()\n{\n    var sum = Add(2, 3);\n\n    Assert.Equal(5, sum);\n}\n",
			want: 3,
		},
		{
			name: "line comments stripped",
			code: "// header comment\nvar x = 1; // trailing\n// another\n",
			want: 1,
		},
		{
			name: "block comment spanning lines",
			code: "/*\n  all of this\n  is comment\n*/\nvar x = 1;\n",
			want: 1,
		},
		{
			name: "code after block comment end counts",
			code: "/* note */ var x = 1;\n",
			want: 1,
		},
		{
			name: "brace-only with semicolon skipped",
			code: "};\nvar y = 2;\n",
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TestLineCount(tt.code); got != tt.want {
				t.Errorf("TestLineCount() = %v, want %v", got, tt.want)
			}
		})
	}
}

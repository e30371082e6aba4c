// Package result defines the structured outputs of the submission pipeline.
package result

// TestRunResult holds the outcome of one build-and-test run.
// A run with failing tests is still a successful run; only infrastructure
// failures (restore, compile, timeout) are reported as errors by the runner.
type TestRunResult struct {
	Passed               int     `json:"passed"`
	Failed               int     `json:"failed"`
	Total                int     `json:"total"`
	ExecutionTimeSeconds float64 `json:"executionTimeSeconds"`
	ConsoleOutput        string  `json:"consoleOutput"`
	CompileErrorDetail   string  `json:"compileErrorDetail,omitempty"`
}

// LineHit records whether one line of the reference file was executed.
type LineHit struct {
	LineNumber int  `json:"lineNumber"`
	Covered    bool `json:"covered"`
}

// CoverageReport holds line and branch coverage for the reference file.
// A missing coverage artifact degrades to a zero report with OK still true;
// zero rates therefore mean "unmeasured or uncovered" without distinction.
type CoverageReport struct {
	OK                bool      `json:"ok"`
	LineRatePercent   float64   `json:"lineRatePercent"`
	BranchRatePercent float64   `json:"branchRatePercent"`
	PerLine           []LineHit `json:"perLine"`
}

// MutantStatus is the outcome of testing one mutant.
type MutantStatus string

const (
	MutantKilled       MutantStatus = "Killed"
	MutantSurvived     MutantStatus = "Survived"
	MutantNoCoverage   MutantStatus = "NoCoverage"
	MutantTimeout      MutantStatus = "Timeout"
	MutantRuntimeError MutantStatus = "RuntimeError"
	MutantCompileError MutantStatus = "CompileError"
	MutantIgnored      MutantStatus = "Ignored"
	MutantPending      MutantStatus = "Pending"
)

// Mutant describes one syntactic alteration tried by the mutation tool.
type Mutant struct {
	ID           string       `json:"id"`
	MutationKind string       `json:"mutationKind"`
	Line         int          `json:"line"`
	Status       MutantStatus `json:"status"`
}

// MutationReport aggregates the mutation tool's per-mutant results.
// OK is false when the tool or its report failed; the report is then zeroed.
type MutationReport struct {
	OK                   bool     `json:"ok"`
	Mutants              []Mutant `json:"mutants"`
	Killed               int      `json:"killed"`
	Survived             int      `json:"survived"`
	TimedOut             int      `json:"timedOut"`
	NoCoverage           int      `json:"noCoverage"`
	Total                int      `json:"total"`
	MutationScorePercent float64  `json:"mutationScorePercent"`
	Error                string   `json:"error,omitempty"`
}

// Performance is the full measured profile for one submission.
type Performance struct {
	TestRun        TestRunResult  `json:"testRun"`
	Coverage       CoverageReport `json:"coverage"`
	Mutation       MutationReport `json:"mutation"`
	CompositeScore float64        `json:"compositeScore"`
	TestLineCount  int            `json:"testLineCount"`
}

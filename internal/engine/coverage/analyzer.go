// Package coverage re-runs the test project with instrumentation and parses
// the produced coverage artifact for the reference file.
package coverage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"testroyale/internal/engine/result"
	"testroyale/internal/engine/toolchain"
	"testroyale/internal/engine/workspace"
	"testroyale/pkg/utils/logger"
)

// Separate log file so the instrumented run never collides with the
// artifact of the plain test run.
const coverageLogName = "coverage.trx"

// artifactSuffixes is the known coverage-report extension set, searched in
// order of preference.
var artifactSuffixes = []string{
	"coverage.cobertura.xml",
	".cobertura.xml",
	"coverage.xml",
}

// Analyzer measures statement and branch coverage for the reference file.
type Analyzer struct {
	exec toolchain.Executor
	cfg  toolchain.Config
}

// NewAnalyzer creates a coverage analyzer.
func NewAnalyzer(exec toolchain.Executor, cfg toolchain.Config) *Analyzer {
	cfg.ApplyDefaults()
	return &Analyzer{exec: exec, cfg: cfg}
}

// Analyze runs the instrumented test command and parses the first coverage
// artifact found under the results directory. Coverage absence is not fatal:
// the report degrades to all-zero with OK still true, so callers cannot tell
// "unmeasured" from "0% covered" (a known limitation of the measurement).
func (a *Analyzer) Analyze(ctx context.Context, ws *workspace.Workspace, refFilePath string) result.CoverageReport {
	zero := result.CoverageReport{OK: true, PerLine: []result.LineHit{}}
	if ws == nil {
		return zero
	}

	resultsDir := filepath.Join(ws.ResultsDir, "coverage")
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		logger.Warn(ctx, "create coverage results dir failed", zap.Error(err))
		return zero
	}

	cmd, err := toolchain.ExpandCommand(a.cfg.CoverageCmd, map[string]string{
		"testProj":   ws.TestProject,
		"resultsDir": resultsDir,
		"logFile":    coverageLogName,
	})
	if err != nil {
		logger.Warn(ctx, "expand coverage command failed", zap.Error(err))
		return zero
	}

	res, err := a.exec.Run(ctx, toolchain.CommandSpec{
		Cmd:            cmd,
		Dir:            ws.Root,
		Timeout:        a.cfg.CoverageTimeout,
		MaxOutputBytes: a.cfg.MaxOutputBytes,
	})
	if err != nil {
		logger.Warn(ctx, "instrumented test run failed", zap.Error(err))
		return zero
	}
	if res.TimedOut {
		logger.Warn(ctx, "instrumented test run timed out")
		return zero
	}

	artifact := findArtifact(resultsDir)
	if artifact == "" {
		logger.Info(ctx, "no coverage artifact produced", zap.String("results_dir", resultsDir))
		return zero
	}

	data, err := os.ReadFile(artifact)
	if err != nil {
		logger.Warn(ctx, "read coverage artifact failed", zap.Error(err))
		return zero
	}

	report, err := ParseCobertura(data, filepath.Base(refFilePath), physicalLineCount(refFilePath))
	if err != nil {
		logger.Warn(ctx, "parse coverage artifact failed", zap.Error(err))
		return zero
	}
	return report
}

// findArtifact recursively searches the results directory for the first file
// matching the known extension set.
func findArtifact(root string) string {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found != "" || d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, suffix := range artifactSuffixes {
			if strings.HasSuffix(name, suffix) {
				found = path
				return fs.SkipAll
			}
		}
		return nil
	})
	return found
}

func physicalLineCount(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return strings.Count(string(data), "\n") + 1
}

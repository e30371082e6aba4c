// Package runner drives the build-and-test stages of the submission pipeline:
// dependency restore, two-stage compilation and instrumented test execution.
package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"testroyale/internal/engine/result"
	"testroyale/internal/engine/toolchain"
	"testroyale/internal/engine/workspace"
	appErr "testroyale/pkg/errors"
	"testroyale/pkg/utils/logger"
)

const trxLogName = "testrun.trx"

// Runner executes the restore/compile/compile/test stage chain.
// Each stage short-circuits on failure with a stage-tagged error.
type Runner struct {
	exec toolchain.Executor
	cfg  toolchain.Config
}

// NewRunner creates a runner on top of a tool executor.
func NewRunner(exec toolchain.Executor, cfg toolchain.Config) *Runner {
	cfg.ApplyDefaults()
	return &Runner{exec: exec, cfg: cfg}
}

// Run performs the full build-and-test chain inside the workspace.
// Tests that executed but failed are a success at this level; only restore,
// compile, a timeout or a harness crash are pipeline failures.
func (r *Runner) Run(ctx context.Context, ws *workspace.Workspace) (result.TestRunResult, error) {
	if ws == nil {
		return result.TestRunResult{}, appErr.ValidationError("workspace", "required")
	}

	if err := r.restore(ctx, ws); err != nil {
		return result.TestRunResult{}, err
	}

	if detail, err := r.compile(ctx, ws.RefProject, appErr.ReferenceBuildFail); err != nil {
		return result.TestRunResult{CompileErrorDetail: detail}, err
	}
	if detail, err := r.compile(ctx, ws.TestProject, appErr.TestBuildFail); err != nil {
		return result.TestRunResult{CompileErrorDetail: detail}, err
	}

	return r.execute(ctx, ws)
}

func (r *Runner) restore(ctx context.Context, ws *workspace.Workspace) error {
	cmd, err := toolchain.ExpandCommand(r.cfg.RestoreCmd, map[string]string{
		"testProj": ws.TestProject,
		"refProj":  ws.RefProject,
	})
	if err != nil {
		return err
	}
	res, err := r.exec.Run(ctx, toolchain.CommandSpec{
		Cmd:            cmd,
		Dir:            ws.Root,
		Timeout:        r.cfg.RestoreTimeout,
		MaxOutputBytes: r.cfg.MaxOutputBytes,
	})
	if err != nil {
		return appErr.StageError("restore", appErr.RestoreFailed, err)
	}
	if res.TimedOut {
		return appErr.StageError("restore", appErr.RestoreFailed, nil).WithMessage("dependency restore timed out")
	}
	if res.ExitCode != 0 {
		// Restore diagnostics are surfaced verbatim.
		return appErr.StageError("restore", appErr.RestoreFailed, nil).
			WithMessage(pickOutput(res))
	}
	return nil
}

func (r *Runner) compile(ctx context.Context, projectDir string, code appErr.ErrorCode) (string, error) {
	project := "reference"
	if code == appErr.TestBuildFail {
		project = "tests"
	}
	cmd, err := toolchain.ExpandCommand(r.cfg.BuildCmd, map[string]string{
		"refProj":  projectDir,
		"testProj": projectDir,
	})
	if err != nil {
		return "", err
	}
	res, err := r.exec.Run(ctx, toolchain.CommandSpec{
		Cmd:            cmd,
		Dir:            projectDir,
		Timeout:        r.cfg.BuildTimeout,
		MaxOutputBytes: r.cfg.MaxOutputBytes,
	})
	if err != nil {
		return "", appErr.StageError("compile", code, err).WithDetail("project", project)
	}
	if res.TimedOut || res.ExitCode != 0 {
		detail := ReduceDiagnostics(pickOutput(res), maxDiagnosticLines)
		logger.Info(ctx, "compile failed",
			zap.String("project", project),
			zap.Int("exit_code", res.ExitCode),
		)
		return detail, appErr.StageError("compile", code, nil).
			WithMessage(fmt.Sprintf("%s project failed to build", project)).
			WithDetail("project", project).
			WithDetail("diagnostics", detail)
	}
	return "", nil
}

func (r *Runner) execute(ctx context.Context, ws *workspace.Workspace) (result.TestRunResult, error) {
	cmd, err := toolchain.ExpandCommand(r.cfg.TestCmd, map[string]string{
		"testProj":   ws.TestProject,
		"resultsDir": ws.ResultsDir,
		"logFile":    trxLogName,
	})
	if err != nil {
		return result.TestRunResult{}, err
	}
	res, err := r.exec.Run(ctx, toolchain.CommandSpec{
		Cmd:            cmd,
		Dir:            ws.Root,
		Timeout:        r.cfg.TestTimeout,
		MaxOutputBytes: r.cfg.MaxOutputBytes,
	})
	if err != nil {
		return result.TestRunResult{}, appErr.StageError("test", appErr.TestRunFailed, err)
	}
	if res.TimedOut {
		return result.TestRunResult{}, appErr.StageError("test", appErr.TestRunTimeout, nil)
	}

	summary, found := ParseSummary(res.Stdout)
	if !found {
		// Nonzero exit with no recognizable summary means the harness itself
		// crashed, not that tests failed.
		if res.ExitCode != 0 {
			return result.TestRunResult{}, appErr.StageError("test", appErr.TestRunFailed, nil).
				WithMessage("test harness produced no result summary")
		}
		summary = Summary{}
	}

	run := result.TestRunResult{
		Passed:               summary.Passed,
		Failed:               summary.Failed,
		Total:                summary.Total,
		ExecutionTimeSeconds: float64(res.DurationMs) / 1000.0,
	}
	run.ConsoleOutput = r.consoleOutput(ctx, ws, res.Stdout, run)
	return run, nil
}

// consoleOutput prefers the program's own writes captured in the structured
// results artifact; when the artifact has none it falls back to filtering the
// raw summary text against the noise blocklist.
func (r *Runner) consoleOutput(ctx context.Context, ws *workspace.Workspace, rawStdout string, run result.TestRunResult) string {
	console, err := ExtractConsoleOutput(filepath.Join(ws.ResultsDir, trxLogName))
	if err != nil {
		logger.Debug(ctx, "structured results artifact unreadable", zap.Error(err))
	}
	if console != "" {
		return console + "\n" + fmt.Sprintf("Test Results: %d passed, %d failed, %d total", run.Passed, run.Failed, run.Total)
	}
	return FilterNoise(rawStdout)
}

func pickOutput(res toolchain.ExecResult) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}

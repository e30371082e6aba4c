// Package mutation links the reference and test projects into an ephemeral
// project group, runs the mutation-testing tool against it and parses the
// per-mutant report.
package mutation

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"testroyale/internal/engine/result"
	"testroyale/internal/engine/toolchain"
	"testroyale/internal/engine/workspace"
	appErr "testroyale/pkg/errors"
	"testroyale/pkg/utils/logger"
)

const groupFileName = "mutation.sln"

// Analyzer measures the mutation kill-rate of a submission's tests.
type Analyzer struct {
	exec toolchain.Executor
	cfg  toolchain.Config
}

// NewAnalyzer creates a mutation analyzer.
func NewAnalyzer(exec toolchain.Executor, cfg toolchain.Config) *Analyzer {
	cfg.ApplyDefaults()
	return &Analyzer{exec: exec, cfg: cfg}
}

// Analyze runs the mutation tool and parses its JSON report. Any failure
// (tool missing, timeout, report absent or malformed) returns a zeroed report
// with OK false and the failure recorded in Error. This is a harder failure
// than coverage's soft degrade: the mutation score carries the largest weight
// in the composite, so callers are told explicitly that it is missing.
func (a *Analyzer) Analyze(ctx context.Context, ws *workspace.Workspace) result.MutationReport {
	if ws == nil {
		return failedReport("workspace is nil")
	}

	groupFile := filepath.Join(ws.Root, groupFileName)
	if err := a.writeGroupFile(groupFile, ws); err != nil {
		logger.Warn(ctx, "write project group file failed", zap.Error(err))
		return failedReport(err.Error())
	}

	resultsDir := filepath.Join(ws.ResultsDir, "mutation")
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return failedReport(fmt.Sprintf("create mutation results dir: %v", err))
	}

	cmd, err := toolchain.ExpandCommand(a.cfg.MutationCmd, map[string]string{
		"groupFile":  groupFile,
		"resultsDir": resultsDir,
		"testProj":   ws.TestProject,
		"refProj":    ws.RefProject,
	})
	if err != nil {
		return failedReport(err.Error())
	}

	res, err := a.exec.Run(ctx, toolchain.CommandSpec{
		Cmd:            cmd,
		Dir:            ws.Root,
		Timeout:        a.cfg.MutationTimeout,
		MaxOutputBytes: a.cfg.MaxOutputBytes,
	})
	if err != nil {
		logger.Warn(ctx, "mutation tool failed to start", zap.Error(err))
		return failedReport(appErr.MutationToolFailed.Message())
	}
	if res.TimedOut {
		logger.Warn(ctx, "mutation tool timed out")
		return failedReport(appErr.MutationTimeout.Message())
	}
	if res.ExitCode != 0 {
		logger.Warn(ctx, "mutation tool exited nonzero", zap.Int("exit_code", res.ExitCode))
		return failedReport(appErr.MutationToolFailed.Message())
	}

	reportPath := findReport(resultsDir)
	if reportPath == "" {
		return failedReport("mutation report not found")
	}
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return failedReport(fmt.Sprintf("read mutation report: %v", err))
	}

	report, err := ParseReport(data)
	if err != nil {
		logger.Warn(ctx, "parse mutation report failed", zap.Error(err))
		return failedReport(appErr.MutationReportBroken.Message())
	}
	return report
}

// writeGroupFile recreates the ephemeral project-group file from scratch.
// Any stale file from a previous invocation is deleted first.
func (a *Analyzer) writeGroupFile(path string, ws *workspace.Workspace) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	var b strings.Builder
	b.WriteString("Microsoft Visual Studio Solution File, Format Version 12.00\n")
	for _, projectDir := range []string{ws.RefProject, ws.TestProject} {
		projectFile := findProjectFile(projectDir)
		name := strings.TrimSuffix(filepath.Base(projectFile), filepath.Ext(projectFile))
		fmt.Fprintf(&b, "Project(\"{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}\") = \"%s\", \"%s\", \"{%s}\"\nEndProject\n",
			name, projectFile, strings.ToUpper(uuid.NewString()))
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

func findProjectFile(projectDir string) string {
	matches, _ := filepath.Glob(filepath.Join(projectDir, "*.csproj"))
	if len(matches) > 0 {
		return matches[0]
	}
	return filepath.Join(projectDir, filepath.Base(projectDir)+".csproj")
}

func findReport(root string) string {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found != "" || d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if strings.HasSuffix(name, "mutation-report.json") || name == "report.json" {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found
}

func failedReport(reason string) result.MutationReport {
	return result.MutationReport{
		OK:      false,
		Mutants: []result.Mutant{},
		Error:   reason,
	}
}

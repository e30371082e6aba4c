package coverage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testroyale/internal/engine/toolchain"
	"testroyale/internal/engine/workspace"
)

// execFunc adapts a function to the Executor interface.
type execFunc func(ctx context.Context, spec toolchain.CommandSpec) (toolchain.ExecResult, error)

func (f execFunc) Run(ctx context.Context, spec toolchain.CommandSpec) (toolchain.ExecResult, error) {
	return f(ctx, spec)
}

func newCoverageWorkspace(t *testing.T) (*workspace.Workspace, string) {
	t.Helper()
	root := t.TempDir()
	ws := &workspace.Workspace{
		Root:        root,
		PlayerID:    "alice",
		RefProject:  filepath.Join(root, "RefProject"),
		TestProject: filepath.Join(root, "TestProject"),
		ResultsDir:  filepath.Join(root, "results"),
	}
	require.NoError(t, os.MkdirAll(ws.RefProject, 0755))
	require.NoError(t, os.MkdirAll(ws.ResultsDir, 0755))

	refPath := filepath.Join(ws.RefProject, "Reference.cs")
	ref := "class Calculator\n{\n    public int Add(int a, int b)\n    {\n        return a + b;\n    }\n}\n"
	require.NoError(t, os.WriteFile(refPath, []byte(ref), 0644))
	return ws, refPath
}

func TestAnalyzeParsesArtifact(t *testing.T) {
	ws, refPath := newCoverageWorkspace(t)

	artifact := `<coverage line-rate="0.8" branch-rate="0.6">
  <packages><package><classes><class filename="Reference.cs">
    <lines><line number="5" hits="1"/></lines>
  </class></classes></package></packages>
</coverage>`

	exec := execFunc(func(ctx context.Context, spec toolchain.CommandSpec) (toolchain.ExecResult, error) {
		// The instrumented run drops its artifact in a nested guid directory.
		dir := filepath.Join(ws.ResultsDir, "coverage", "3fa85f64")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return toolchain.ExecResult{}, err
		}
		if err := os.WriteFile(filepath.Join(dir, "coverage.cobertura.xml"), []byte(artifact), 0644); err != nil {
			return toolchain.ExecResult{}, err
		}
		return toolchain.ExecResult{ExitCode: 0}, nil
	})

	report := NewAnalyzer(exec, toolchain.Config{}).Analyze(context.Background(), ws, refPath)
	assert.True(t, report.OK)
	assert.InDelta(t, 80.0, report.LineRatePercent, 1e-9)
	assert.InDelta(t, 60.0, report.BranchRatePercent, 1e-9)
	require.Len(t, report.PerLine, 1)
	assert.Equal(t, 5, report.PerLine[0].LineNumber)
	assert.True(t, report.PerLine[0].Covered)
}

func TestAnalyzeDegradesToZeroOnToolFailure(t *testing.T) {
	ws, refPath := newCoverageWorkspace(t)

	exec := execFunc(func(ctx context.Context, spec toolchain.CommandSpec) (toolchain.ExecResult, error) {
		return toolchain.ExecResult{}, errors.New("dotnet not found")
	})

	report := NewAnalyzer(exec, toolchain.Config{}).Analyze(context.Background(), ws, refPath)
	assert.True(t, report.OK)
	assert.Zero(t, report.LineRatePercent)
	assert.Zero(t, report.BranchRatePercent)
	assert.Empty(t, report.PerLine)
	assert.NotNil(t, report.PerLine)
}

func TestAnalyzeDegradesToZeroWithoutArtifact(t *testing.T) {
	ws, refPath := newCoverageWorkspace(t)

	exec := execFunc(func(ctx context.Context, spec toolchain.CommandSpec) (toolchain.ExecResult, error) {
		return toolchain.ExecResult{ExitCode: 0}, nil
	})

	report := NewAnalyzer(exec, toolchain.Config{}).Analyze(context.Background(), ws, refPath)
	assert.True(t, report.OK)
	assert.Zero(t, report.LineRatePercent)
	assert.Empty(t, report.PerLine)
}

func TestAnalyzeDegradesToZeroOnTimeout(t *testing.T) {
	ws, refPath := newCoverageWorkspace(t)

	exec := execFunc(func(ctx context.Context, spec toolchain.CommandSpec) (toolchain.ExecResult, error) {
		return toolchain.ExecResult{ExitCode: -1, TimedOut: true}, nil
	})

	report := NewAnalyzer(exec, toolchain.Config{}).Analyze(context.Background(), ws, refPath)
	assert.True(t, report.OK)
	assert.Zero(t, report.LineRatePercent)
}

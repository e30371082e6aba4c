package toolchain

import (
	"context"
	"strings"
	"testing"
	"time"

	appErr "testroyale/pkg/errors"
)

func TestExpandCommand(t *testing.T) {
	cmd, err := ExpandCommand("dotnet test {testProj} --results-directory {resultsDir}", map[string]string{
		"testProj":   "/work/TestProject",
		"resultsDir": "/work/results",
	})
	if err != nil {
		t.Fatalf("ExpandCommand() error = %v", err)
	}
	want := []string{"dotnet", "test", "/work/TestProject", "--results-directory", "/work/results"}
	if len(cmd) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(cmd), len(want), cmd)
	}
	for i := range want {
		if cmd[i] != want[i] {
			t.Errorf("cmd[%d] = %q, want %q", i, cmd[i], want[i])
		}
	}
}

func TestExpandCommandQuotedValues(t *testing.T) {
	cmd, err := ExpandCommand(`dotnet test --logger "trx;LogFileName={logFile}"`, map[string]string{
		"logFile": "testrun.trx",
	})
	if err != nil {
		t.Fatalf("ExpandCommand() error = %v", err)
	}
	if cmd[3] != "trx;LogFileName=testrun.trx" {
		t.Errorf("quoted argument = %q", cmd[3])
	}
}

func TestExpandCommandUnknownPlaceholderSurvives(t *testing.T) {
	cmd, err := ExpandCommand("tool {known} {unknown}", map[string]string{"known": "x"})
	if err != nil {
		t.Fatalf("ExpandCommand() error = %v", err)
	}
	if cmd[2] != "{unknown}" {
		t.Errorf("unknown placeholder = %q, want left intact", cmd[2])
	}
}

func TestExpandCommandEmpty(t *testing.T) {
	if _, err := ExpandCommand("   ", nil); err == nil {
		t.Fatal("expected error for blank template")
	}
}

func TestLocalExecutorRun(t *testing.T) {
	res, err := NewLocalExecutor().Run(context.Background(), CommandSpec{
		Cmd: []string{"sh", "-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Errorf("Stdout = %q", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("Stderr = %q", res.Stderr)
	}
}

func TestLocalExecutorNonzeroExit(t *testing.T) {
	res, err := NewLocalExecutor().Run(context.Background(), CommandSpec{
		Cmd: []string{"sh", "-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestLocalExecutorTimeout(t *testing.T) {
	res, err := NewLocalExecutor().Run(context.Background(), CommandSpec{
		Cmd:     []string{"sleep", "5"},
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if res.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", res.ExitCode)
	}
}

func TestLocalExecutorMissingBinary(t *testing.T) {
	_, err := NewLocalExecutor().Run(context.Background(), CommandSpec{
		Cmd: []string{"no-such-binary-xyz"},
	})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if appErr.GetCode(err) != appErr.ToolStartFailed {
		t.Errorf("GetCode() = %v, want ToolStartFailed", appErr.GetCode(err))
	}
}

func TestCappedBuffer(t *testing.T) {
	buf := newCappedBuffer(5)
	n, err := buf.Write([]byte("123456789"))
	if err != nil || n != 9 {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if got := buf.String(); got != "12345" {
		t.Errorf("String() = %q, want capped at 5 bytes", got)
	}

	// Further writes are accepted and dropped.
	if _, err := buf.Write([]byte("x")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := buf.String(); got != "12345" {
		t.Errorf("String() = %q after overflow write", got)
	}
}

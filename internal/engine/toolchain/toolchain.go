// Package toolchain invokes the external build, test, coverage and mutation
// tools as child processes with captured output and per-command timeouts.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"

	appErr "testroyale/pkg/errors"
)

const defaultMaxOutputBytes = 512 * 1024

// CommandSpec describes one external tool invocation.
type CommandSpec struct {
	Cmd            []string
	Dir            string
	Env            []string
	Timeout        time.Duration
	MaxOutputBytes int64
}

// ExecResult is the captured outcome of one tool invocation.
type ExecResult struct {
	ExitCode   int
	Stdout     string
	Stderr     string
	TimedOut   bool
	DurationMs int64
}

// Executor runs a CommandSpec and captures its result.
// The error return is reserved for infrastructure failures (binary missing,
// spawn failure); a nonzero exit code is reported through ExecResult.
type Executor interface {
	Run(ctx context.Context, spec CommandSpec) (ExecResult, error)
}

// LocalExecutor runs commands as local child processes.
type LocalExecutor struct{}

// NewLocalExecutor creates an executor backed by os/exec.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{}
}

func (e *LocalExecutor) Run(ctx context.Context, spec CommandSpec) (ExecResult, error) {
	if len(spec.Cmd) == 0 {
		return ExecResult{}, appErr.ValidationError("cmd", "required")
	}

	runCtx := ctx
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	maxBytes := spec.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxOutputBytes
	}

	cmd := exec.CommandContext(runCtx, spec.Cmd[0], spec.Cmd[1:]...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = spec.Env
	}

	stdout := newCappedBuffer(maxBytes)
	stderr := newCappedBuffer(maxBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	res := ExecResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMs: elapsed,
	}

	if runCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, appErr.Wrapf(err, appErr.ToolStartFailed, "start %s failed", spec.Cmd[0])
	}

	res.ExitCode = 0
	return res, nil
}

// ExpandCommand expands {placeholder} variables in a command template and
// splits it into argv form.
func ExpandCommand(tpl string, vars map[string]string) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	expanded := tpl
	for name, value := range vars {
		expanded = strings.ReplaceAll(expanded, "{"+name+"}", value)
	}
	fields, err := shlex.Split(expanded)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is empty after expansion")
	}
	return fields, nil
}

// cappedBuffer keeps at most max bytes and silently discards the rest.
type cappedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int64
}

func newCappedBuffer(max int64) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	remaining := b.max - int64(b.buf.Len())
	if remaining <= 0 {
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		b.buf.Write(p[:remaining])
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

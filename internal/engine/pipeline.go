// Package engine chains the submission pipeline: workspace acquisition,
// build-and-test, coverage and mutation analysis, and composite scoring,
// bounded by a system-wide concurrency throttle.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"testroyale/internal/engine/result"
	"testroyale/internal/engine/scoring"
	"testroyale/internal/engine/throttle"
	"testroyale/internal/engine/workspace"
	appErr "testroyale/pkg/errors"
	"testroyale/pkg/utils/logger"
)

// WorkspaceManager materializes and releases per-submission directories.
type WorkspaceManager interface {
	Acquire(ctx context.Context, playerID, referenceCode, testCode string) (*workspace.Workspace, error)
	Release(ws *workspace.Workspace, delay time.Duration)
	RefFilePath(ws *workspace.Workspace) string
}

// TestRunner performs restore, compilation and test execution.
type TestRunner interface {
	Run(ctx context.Context, ws *workspace.Workspace) (result.TestRunResult, error)
}

// CoverageAnalyzer measures coverage for the reference file.
type CoverageAnalyzer interface {
	Analyze(ctx context.Context, ws *workspace.Workspace, refFilePath string) result.CoverageReport
}

// MutationAnalyzer measures the mutation kill-rate.
type MutationAnalyzer interface {
	Analyze(ctx context.Context, ws *workspace.Workspace) result.MutationReport
}

// Request identifies one submission to execute.
type Request struct {
	PlayerID      string
	ReferenceCode string
	TestCode      string
}

// Config holds pipeline dependencies and settings.
type Config struct {
	Workspaces   WorkspaceManager
	Runner       TestRunner
	Coverage     CoverageAnalyzer
	Mutation     MutationAnalyzer
	Throttle     *throttle.Throttle
	ReleaseDelay time.Duration // grace period before a successful run's workspace is deleted
}

// Pipeline executes submissions end to end.
type Pipeline struct {
	workspaces   WorkspaceManager
	runner       TestRunner
	coverage     CoverageAnalyzer
	mutation     MutationAnalyzer
	throttle     *throttle.Throttle
	releaseDelay time.Duration
}

// NewPipeline creates a pipeline from its dependencies.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Workspaces == nil {
		return nil, appErr.ValidationError("workspaces", "required")
	}
	if cfg.Runner == nil {
		return nil, appErr.ValidationError("runner", "required")
	}
	if cfg.Coverage == nil {
		return nil, appErr.ValidationError("coverage", "required")
	}
	if cfg.Mutation == nil {
		return nil, appErr.ValidationError("mutation", "required")
	}
	if cfg.Throttle == nil {
		cfg.Throttle = throttle.New(1, 0)
	}
	return &Pipeline{
		workspaces:   cfg.Workspaces,
		runner:       cfg.Runner,
		coverage:     cfg.Coverage,
		mutation:     cfg.Mutation,
		throttle:     cfg.Throttle,
		releaseDelay: cfg.ReleaseDelay,
	}, nil
}

// Execute runs the full pipeline for one submission. On build-stage failure
// the workspace is released immediately and the partial result (compile
// detail, if any) is returned alongside the stage-tagged error. On success
// the workspace release is delayed to allow late log inspection. A mutation
// failure is carried inside the report (OK false, zero score) and does not
// abort the run: the composite simply scores that term as zero.
func (p *Pipeline) Execute(ctx context.Context, req Request) (result.Performance, error) {
	var perf result.Performance

	if req.PlayerID == "" {
		return perf, appErr.ValidationError("player_id", "required")
	}
	if req.TestCode == "" {
		return perf, appErr.New(appErr.EmptySubmission)
	}

	if err := p.throttle.Acquire(ctx); err != nil {
		return perf, err
	}
	defer p.throttle.Release()

	ws, err := p.workspaces.Acquire(ctx, req.PlayerID, req.ReferenceCode, req.TestCode)
	if err != nil {
		return perf, err
	}

	start := time.Now()
	testRun, err := p.runner.Run(ctx, ws)
	if err != nil {
		perf.TestRun = testRun
		p.workspaces.Release(ws, 0)
		return perf, err
	}
	perf.TestRun = testRun

	perf.Coverage = p.coverage.Analyze(ctx, ws, p.workspaces.RefFilePath(ws))
	perf.Mutation = p.mutation.Analyze(ctx, ws)
	if !perf.Mutation.OK {
		logger.Warn(ctx, "mutation analysis failed, scoring with zero kill-rate",
			zap.String("player_id", req.PlayerID),
			zap.String("reason", perf.Mutation.Error),
		)
	}

	perf.TestLineCount = scoring.TestLineCount(req.TestCode)
	perf.CompositeScore = scoring.Composite(perf)

	p.workspaces.Release(ws, p.releaseDelay)

	logger.Info(ctx, "pipeline finished",
		zap.String("player_id", req.PlayerID),
		zap.Int("tests_passed", perf.TestRun.Passed),
		zap.Int("tests_failed", perf.TestRun.Failed),
		zap.Float64("mutation_score", perf.Mutation.MutationScorePercent),
		zap.Float64("composite_score", perf.CompositeScore),
		zap.Duration("elapsed", time.Since(start)),
	)
	return perf, nil
}

// Package workspace materializes isolated per-submission build directories
// and guarantees their best-effort cleanup.
package workspace

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	appErr "testroyale/pkg/errors"
	"testroyale/pkg/utils/logger"
)

// Workspace is a filesystem handle scoped to one submission attempt.
type Workspace struct {
	Root        string
	PlayerID    string
	RefProject  string
	TestProject string
	ResultsDir  string
	CreatedAt   time.Time
}

// Config controls the template layout and file names inside a workspace.
type Config struct {
	Root        string `yaml:"root"`        // parent of all workspaces
	TemplateDir string `yaml:"templateDir"` // project template copied per submission
	RefProject  string `yaml:"refProject"`  // reference project subdir, default "RefProject"
	TestProject string `yaml:"testProject"` // test project subdir, default "TestProject"
	RefFile     string `yaml:"refFile"`     // reference source file name, default "Reference.cs"
	TestFile    string `yaml:"testFile"`    // test source file name, default "Tests.cs"
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.RefProject == "" {
		c.RefProject = "RefProject"
	}
	if c.TestProject == "" {
		c.TestProject = "TestProject"
	}
	if c.RefFile == "" {
		c.RefFile = "Reference.cs"
	}
	if c.TestFile == "" {
		c.TestFile = "Tests.cs"
	}
}

// Manager creates and deletes workspaces.
type Manager struct {
	cfg Config
}

// NewManager creates a workspace manager.
func NewManager(cfg Config) (*Manager, error) {
	cfg.ApplyDefaults()
	if cfg.Root == "" {
		return nil, appErr.ValidationError("root", "required")
	}
	if cfg.TemplateDir == "" {
		return nil, appErr.ValidationError("template_dir", "required")
	}
	if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		return nil, appErr.Wrapf(err, appErr.WorkspaceCreateFailed, "create workspace root failed")
	}
	return &Manager{cfg: cfg}, nil
}

// Acquire copies the project template into a uniquely named directory and
// writes the reference and test sources into their project subtrees.
// The directory name combines the player id with a nanosecond timestamp, so
// concurrent submissions (even retries by the same player) never collide.
func (m *Manager) Acquire(ctx context.Context, playerID, referenceCode, testCode string) (*Workspace, error) {
	if playerID == "" {
		return nil, appErr.ValidationError("player_id", "required")
	}

	now := time.Now()
	root := filepath.Join(m.cfg.Root, playerID+"-"+strconv.FormatInt(now.UnixNano(), 10))

	if err := copyTree(m.cfg.TemplateDir, root); err != nil {
		_ = os.RemoveAll(root)
		return nil, appErr.Wrapf(err, appErr.WorkspaceTemplateError, "copy template failed")
	}

	ws := &Workspace{
		Root:        root,
		PlayerID:    playerID,
		RefProject:  filepath.Join(root, m.cfg.RefProject),
		TestProject: filepath.Join(root, m.cfg.TestProject),
		ResultsDir:  filepath.Join(root, "results"),
		CreatedAt:   now,
	}

	if err := os.MkdirAll(ws.ResultsDir, 0755); err != nil {
		_ = os.RemoveAll(root)
		return nil, appErr.Wrapf(err, appErr.WorkspaceCreateFailed, "create results dir failed")
	}
	if err := os.WriteFile(filepath.Join(ws.RefProject, m.cfg.RefFile), []byte(referenceCode), 0644); err != nil {
		_ = os.RemoveAll(root)
		return nil, appErr.Wrapf(err, appErr.WorkspaceWriteFailed, "write reference source failed")
	}
	if err := os.WriteFile(filepath.Join(ws.TestProject, m.cfg.TestFile), []byte(testCode), 0644); err != nil {
		_ = os.RemoveAll(root)
		return nil, appErr.Wrapf(err, appErr.WorkspaceWriteFailed, "write test source failed")
	}

	logger.Debug(ctx, "workspace acquired",
		zap.String("player_id", playerID),
		zap.String("root", root),
	)
	return ws, nil
}

// RefFilePath returns the absolute path of the reference source file.
func (m *Manager) RefFilePath(ws *Workspace) string {
	return filepath.Join(ws.RefProject, m.cfg.RefFile)
}

// Release deletes the workspace after the given delay. A zero or negative
// delay deletes immediately. Deletion errors are logged, never propagated:
// cleanup must not block or fail the caller's response.
func (m *Manager) Release(ws *Workspace, delay time.Duration) {
	if ws == nil || ws.Root == "" {
		return
	}
	if delay <= 0 {
		m.remove(ws.Root)
		return
	}
	time.AfterFunc(delay, func() {
		m.remove(ws.Root)
	})
}

func (m *Manager) remove(root string) {
	if err := os.RemoveAll(root); err != nil {
		logger.Warn(context.Background(), "workspace cleanup failed",
			zap.String("root", root),
			zap.Error(err),
		)
	}
}

// Sweep removes workspaces older than the threshold. It backs up the timer
// based cleanup: a process restart before a Release timer fires leaves an
// orphaned directory, which the sweeper eventually reclaims.
func (m *Manager) Sweep(ctx context.Context, olderThan time.Duration) int {
	entries, err := os.ReadDir(m.cfg.Root)
	if err != nil {
		logger.Warn(ctx, "workspace sweep failed", zap.Error(err))
		return 0
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		m.remove(filepath.Join(m.cfg.Root, entry.Name()))
		removed++
	}
	if removed > 0 {
		logger.Info(ctx, "workspace sweep removed orphans", zap.Int("count", removed))
	}
	return removed
}

// StartSweeper runs Sweep on a fixed interval until ctx is canceled.
func (m *Manager) StartSweeper(ctx context.Context, interval, olderThan time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep(ctx, olderThan)
			}
		}
	}()
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}

package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestManager(t *testing.T) (*Manager, Config) {
	t.Helper()

	template := t.TempDir()
	for _, dir := range []string{"RefProject", "TestProject"} {
		if err := os.MkdirAll(filepath.Join(template, dir), 0755); err != nil {
			t.Fatalf("mkdir template: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(template, "RefProject", "RefProject.csproj"), []byte("<Project/>"), 0644); err != nil {
		t.Fatalf("write template file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(template, "TestProject", "TestProject.csproj"), []byte("<Project/>"), 0644); err != nil {
		t.Fatalf("write template file: %v", err)
	}

	cfg := Config{Root: t.TempDir(), TemplateDir: template}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, cfg
}

func TestAcquireWritesSources(t *testing.T) {
	m, _ := newTestManager(t)

	ws, err := m.Acquire(context.Background(), "alice", "class Ref {}", "class Tests {}")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer m.Release(ws, 0)

	refSrc, err := os.ReadFile(m.RefFilePath(ws))
	if err != nil {
		t.Fatalf("read reference source: %v", err)
	}
	if string(refSrc) != "class Ref {}" {
		t.Errorf("reference source = %q", refSrc)
	}

	testSrc, err := os.ReadFile(filepath.Join(ws.TestProject, "Tests.cs"))
	if err != nil {
		t.Fatalf("read test source: %v", err)
	}
	if string(testSrc) != "class Tests {}" {
		t.Errorf("test source = %q", testSrc)
	}

	// The template files must have been copied alongside.
	if _, err := os.Stat(filepath.Join(ws.RefProject, "RefProject.csproj")); err != nil {
		t.Errorf("template file missing: %v", err)
	}
	if _, err := os.Stat(ws.ResultsDir); err != nil {
		t.Errorf("results dir missing: %v", err)
	}
}

func TestAcquireUniquePaths(t *testing.T) {
	m, _ := newTestManager(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		ws, err := m.Acquire(context.Background(), "bob", "ref", "test")
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if seen[ws.Root] {
			t.Fatalf("duplicate workspace root %q", ws.Root)
		}
		seen[ws.Root] = true
		m.Release(ws, 0)
	}
}

func TestAcquireRequiresPlayerID(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Acquire(context.Background(), "", "ref", "test"); err == nil {
		t.Fatal("expected error for empty player id")
	}
}

func TestReleaseImmediate(t *testing.T) {
	m, _ := newTestManager(t)

	ws, err := m.Acquire(context.Background(), "carol", "ref", "test")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	m.Release(ws, 0)
	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after release: %v", err)
	}
}

func TestReleaseDelayed(t *testing.T) {
	m, _ := newTestManager(t)

	ws, err := m.Acquire(context.Background(), "dave", "ref", "test")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	m.Release(ws, 20*time.Millisecond)
	if _, err := os.Stat(ws.Root); err != nil {
		t.Fatalf("workspace removed before delay elapsed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(ws.Root); os.IsNotExist(err) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("workspace not removed after delay")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSweepRemovesOldOrphans(t *testing.T) {
	m, cfg := newTestManager(t)

	orphan := filepath.Join(cfg.Root, "ghost-123")
	if err := os.MkdirAll(orphan, 0755); err != nil {
		t.Fatalf("mkdir orphan: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(orphan, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	fresh, err := m.Acquire(context.Background(), "eve", "ref", "test")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer m.Release(fresh, 0)

	removed := m.Sweep(context.Background(), 30*time.Minute)
	if removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Errorf("orphan still exists")
	}
	if _, err := os.Stat(fresh.Root); err != nil {
		t.Errorf("fresh workspace was swept: %v", err)
	}
}

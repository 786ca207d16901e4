package watcher

import (
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type mockInvalidator struct {
	invalidated map[string]int
	mu          sync.Mutex
}

func newMockInvalidator() *mockInvalidator {
	return &mockInvalidator{invalidated: make(map[string]int)}
}

func (m *mockInvalidator) Invalidate(path string) {
	m.mu.Lock()
	m.invalidated[path]++
	m.mu.Unlock()
}

func (m *mockInvalidator) waitFor(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		n := m.invalidated[path]
		m.mu.Unlock()
		if n > 0 {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	target := newMockInvalidator()

	w, err := New(tmpDir, target, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	testFile := filepath.Join(tmpDir, "a.png")
	if err := os.WriteFile(testFile, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}
	if !target.waitFor(testFile, 2*time.Second) {
		t.Error("write was not reported")
	}

	// 子目录中的文件
	subDir := filepath.Join(tmpDir, "thumbs")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	subFile := filepath.Join(subDir, "b.png")
	if err := os.WriteFile(subFile, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}
	if !target.waitFor(subFile, 2*time.Second) {
		t.Error("subdirectory write was not reported")
	}

	removed := filepath.Join(tmpDir, "gone.png")
	if err := os.WriteFile(removed, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	target.waitFor(removed, 2*time.Second)
	target.mu.Lock()
	before := target.invalidated[removed]
	target.mu.Unlock()
	if err := os.Remove(removed); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		target.mu.Lock()
		n := target.invalidated[removed]
		target.mu.Unlock()
		if n > before {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("remove was not reported")
}

func TestStartMissingRoot(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"), newMockInvalidator(), zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if err := w.Start(); err == nil {
		t.Error("expected error for missing root")
	}
}

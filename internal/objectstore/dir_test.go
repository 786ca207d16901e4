package objectstore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDirGet(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "abc.png"), []byte("png-bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "thumbs"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "thumbs", "abc.png"), []byte("thumb"), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := NewDir(root, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	defer d.Close()
	ctx := context.Background()

	tests := []struct {
		name    string
		key     string
		want    []byte
		wantErr error
	}{
		{"existing", "abc.png", []byte("png-bytes"), nil},
		{"nested", "thumbs/abc.png", []byte("thumb"), nil},
		{"missing", "nope.png", nil, ErrNotFound},
		{"traversal", "../abc.png", nil, ErrNotFound},
		{"absolute", "/etc/passwd", nil, ErrNotFound},
		{"empty", "", nil, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Get(ctx, tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get(%q) error = %v, want %v", tt.key, err, tt.wantErr)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestNewDirInvalidRoot(t *testing.T) {
	if _, err := NewDir(filepath.Join(t.TempDir(), "missing"), false, zap.NewNop()); err == nil {
		t.Error("expected error for missing root")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDir(file, false, zap.NewNop()); err == nil {
		t.Error("expected error for non-directory root")
	}
}

func TestDirCacheInvalidation(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "abc.png")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := NewDir(root, true, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	defer d.Close()
	ctx := context.Background()

	got, err := d.Get(ctx, "abc.png")
	if err != nil || string(got) != "v1" {
		t.Fatalf("Get() = %q, %v", got, err)
	}

	if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	if !eventually(func() bool {
		got, err := d.Get(ctx, "abc.png")
		return err == nil && string(got) == "v2"
	}) {
		t.Error("cache was not invalidated after rewrite")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if !eventually(func() bool {
		_, err := d.Get(ctx, "abc.png")
		return errors.Is(err, ErrNotFound)
	}) {
		t.Error("cache was not invalidated after remove")
	}
}

func TestDirInvalidatePrefix(t *testing.T) {
	root := t.TempDir()
	d := &Dir{root: root, logger: zap.NewNop(), cache: map[string][]byte{
		"thumbs/a.png": []byte("a"),
		"thumbs/b.png": []byte("b"),
		"thumbsup.png": []byte("c"),
	}}

	d.Invalidate(filepath.Join(root, "thumbs"))

	if len(d.cache) != 1 {
		t.Errorf("cache = %v, want only thumbsup.png", d.cache)
	}
	if _, ok := d.cache["thumbsup.png"]; !ok {
		t.Error("sibling key was dropped")
	}
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

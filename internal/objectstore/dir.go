package objectstore

import (
	"context"
	"errors"
	"fmt"
	"github.com/sleepstars/kland/internal/watcher"
	"go.uber.org/zap"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Dir 从本地目录读取对象，开启缓存时由 watcher 负责失效
type Dir struct {
	root    string
	logger  *zap.Logger
	watcher *watcher.Watcher

	mu    sync.RWMutex
	cache map[string][]byte
	gen   uint64
}

func NewDir(root string, cache bool, logger *zap.Logger) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve static dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static dir %s is not a directory", abs)
	}

	d := &Dir{root: abs, logger: logger}
	if !cache {
		return d, nil
	}

	d.cache = make(map[string][]byte)
	w, err := watcher.New(abs, d, logger)
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		w.Close()
		return nil, fmt.Errorf("start watcher: %w", err)
	}
	d.watcher = w
	return d, nil
}

func (d *Dir) Get(ctx context.Context, key string) ([]byte, error) {
	clean, ok := cleanKey(key)
	if !ok {
		return nil, ErrNotFound
	}

	d.mu.RLock()
	data, hit := d.cache[clean]
	gen := d.gen
	d.mu.RUnlock()
	if hit {
		return data, nil
	}

	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(clean)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", clean, err)
	}

	if d.cache != nil {
		d.mu.Lock()
		// 读取期间发生过失效则不缓存
		if d.gen == gen {
			d.cache[clean] = data
		}
		d.mu.Unlock()
	}
	return data, nil
}

// Invalidate 删除 path 及其子路径的缓存
func (d *Dir) Invalidate(path string) {
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	for key := range d.cache {
		if key == rel || strings.HasPrefix(key, rel+"/") {
			delete(d.cache, key)
		}
	}
	d.logger.Debug("cache invalidated", zap.String("key", rel))
}

func (d *Dir) Close() error {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Close()
}

// cleanKey 拒绝可能逃出根目录的 key
func cleanKey(key string) (string, bool) {
	if key == "" || strings.Contains(key, "\\") || strings.HasPrefix(key, "/") {
		return "", false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", false
		}
	}
	return key, true
}

package watcher

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"os"
	"path/filepath"
)

// Invalidator 在文件变化时收到通知
type Invalidator interface {
	Invalidate(path string)
}

type Watcher struct {
	watcher *fsnotify.Watcher
	target  Invalidator
	root    string
	logger  *zap.Logger
}

func New(root string, target Invalidator, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: fsWatcher,
		target:  target,
		root:    root,
		logger:  logger,
	}, nil
}

func (w *Watcher) Start() error {
	// 递归添加所有子目录
	if err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	}); err != nil {
		return err
	}

	go w.watchLoop()
	return nil
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.target.Invalidate(event.Name)
			}

			// 新目录加入监控列表
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						w.logger.Error("watch directory", zap.Error(err), zap.String("path", event.Name))
					}
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

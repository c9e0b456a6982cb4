package content

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Source hands out the current site content.
type Source interface {
	Site() *Site
}

// Static serves fixed content.
type Static struct {
	site *Site
}

func NewStatic(site *Site) Static {
	return Static{site: site}
}

func (s Static) Site() *Site {
	return s.site
}

// FileSource serves content loaded from a TOML file and, once Watch runs,
// reloads it whenever the file is written. A reload that fails to parse or
// validate keeps the previous content.
type FileSource struct {
	path    string
	current atomic.Pointer[Site]
	logger  *zap.Logger
	reloads atomic.Int64
}

func NewFileSource(path string, logger *zap.Logger) (*FileSource, error) {
	site, err := Load(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	src := &FileSource{path: path, logger: logger}
	src.current.Store(site)
	return src, nil
}

func (f *FileSource) Site() *Site {
	return f.current.Load()
}

// Reloads counts successful reloads since start.
func (f *FileSource) Reloads() int64 {
	return f.reloads.Load()
}

// Reload re-reads the file now.
func (f *FileSource) Reload() error {
	site, err := Load(f.path)
	if err != nil {
		return err
	}
	f.current.Store(site)
	f.reloads.Add(1)
	return nil
}

// Watch blocks until ctx is done, reloading on changes to the file. The
// parent directory is watched so editors that replace the file by rename
// are picked up.
func (f *FileSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("content watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(f.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := f.Reload(); err != nil {
				f.logger.Warn("content reload rejected", zap.String("path", f.path), zap.Error(err))
				continue
			}
			f.logger.Info("content reloaded", zap.String("path", f.path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("content watcher error", zap.Error(err))
		}
	}
}

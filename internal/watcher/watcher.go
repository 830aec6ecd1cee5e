// Package watcher monitors a vault directory and feeds change events to
// the update pipeline.
//
// It can be used standalone via `mathb watch` or embedded in the HTTP
// server.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/1rns/obsidian-math-booster/internal/pipeline"
	"github.com/1rns/obsidian-math-booster/internal/vault"
)

// Watcher translates filesystem events into pipeline events.
type Watcher struct {
	vaultPath string
	pipe      *pipeline.Pipeline
	logger    *zap.Logger

	fsWatcher *fsnotify.Watcher
}

// Config holds configuration options for the Watcher.
type Config struct {
	VaultPath string
	Pipeline  *pipeline.Pipeline
	Logger    *zap.Logger
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.VaultPath == "" {
		return nil, fmt.Errorf("vault path is required")
	}
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		vaultPath: cfg.VaultPath,
		pipe:      cfg.Pipeline,
		logger:    logger,
	}, nil
}

// Start begins watching the vault for file changes.
// It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.vaultPath); err != nil {
		return fmt.Errorf("failed to watch vault: %w", err)
	}

	w.logger.Info("watching vault", zap.String("path", w.vaultPath))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if !strings.HasSuffix(path, ".md") {
		// But watch new directories.
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.addWatchRecursive(path)
			}
		}
		return
	}

	relPath, err := filepath.Rel(w.vaultPath, path)
	if err != nil || w.shouldIgnore(relPath) {
		return
	}
	relPath = filepath.ToSlash(relPath)

	w.logger.Debug("fs event", zap.Stringer("op", event.Op), zap.String("path", relPath))

	switch {
	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Create != 0:
		w.pipe.Enqueue(pipeline.Event{Type: pipeline.EventChange, Path: relPath})
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		// A move within the vault arrives as Rename(old) + Create(new),
		// so the delete-then-change pair re-indexes the new location.
		w.pipe.Enqueue(pipeline.Event{Type: pipeline.EventDelete, Path: relPath})
	}
}

// addWatchRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			if vault.ShouldSkipDir(filepath.Base(path)) {
				return filepath.SkipDir
			}
			if err := w.fsWatcher.Add(path); err != nil {
				w.logger.Debug("failed to watch dir", zap.String("path", path), zap.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnore returns true if any path component is a skipped directory.
func (w *Watcher) shouldIgnore(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if vault.ShouldSkipDir(part) {
			return true
		}
	}
	return false
}

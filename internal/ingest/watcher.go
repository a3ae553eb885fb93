package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string      // directories to watch
	Recursive   bool          // also watch (and scan) subdirectories
	Patterns    []string      // doublestar patterns on the path relative to its root; empty = every file
	InitialScan bool          // if true, emit files already present before watching
	Debounce    time.Duration // coalesce rapid create/write bursts per path
	Logger      *slog.Logger
}

// StartWatcher emits paths of new or rewritten files under the roots. Hidden
// files are skipped. Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	for _, p := range cfg.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, nil, errors.New("invalid watch pattern: " + p)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}
	m := &matcher{roots: cfg.Roots, patterns: cfg.Patterns, recursive: cfg.Recursive}
	for _, r := range cfg.Roots {
		if err := addDirs(w, r, cfg.Recursive); err != nil {
			logger.Error("failed to add root directory", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if cfg.InitialScan {
			for _, p := range m.existing(logger) {
				if !emit(p) {
					return
				}
			}
		}

		var (
			timer   *time.Timer
			timerC  <-chan time.Time
			pending = map[string]struct{}{}
		)
		flush := func() bool {
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				if !emit(p) {
					return false
				}
			}
			return true
		}
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) && cfg.Recursive {
					if st, err := os.Stat(e.Name); err == nil && st.IsDir() {
						if err := addDirs(w, e.Name, true); err != nil {
							logger.Warn("failed to add new directory to watcher", "path", e.Name, "error", err)
						}
						continue
					}
				}
				if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) {
					continue
				}
				if !m.match(e.Name) {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					if !flush() {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					timer.Stop()
					timer.Reset(cfg.Debounce)
				}
				timerC = timer.C
			case <-timerC:
				timerC = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func addDirs(w *fsnotify.Watcher, root string, recursive bool) error {
	if !recursive {
		return w.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && IsHidden(path) {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}

type matcher struct {
	roots     []string
	patterns  []string
	recursive bool
}

// match reports whether path is a visible regular file under a root that
// matches the configured patterns.
func (m *matcher) match(path string) bool {
	if IsHidden(path) {
		return false
	}
	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		return false
	}
	rel, ok := m.relative(path)
	if !ok {
		return false
	}
	if !m.recursive && filepath.Dir(rel) != "." {
		return false
	}
	if len(m.patterns) == 0 {
		return true
	}
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, filepath.ToSlash(rel)); ok {
			return true
		}
	}
	return false
}

func (m *matcher) relative(path string) (string, bool) {
	for _, r := range m.roots {
		rel, err := filepath.Rel(r, path)
		if err == nil && rel != "." && !startsWithParent(rel) {
			return rel, true
		}
	}
	return "", false
}

func startsWithParent(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}

// existing lists matching files already under the roots, sorted per root.
func (m *matcher) existing(logger *slog.Logger) []string {
	var out []string
	for _, r := range m.roots {
		var found []string
		err := filepath.WalkDir(r, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				logger.Warn("initial scan error", "path", path, "error", walkErr)
				return nil
			}
			if d.IsDir() {
				if path != r && (!m.recursive || IsHidden(path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if m.match(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			logger.Warn("initial scan failed", "root", r, "error", err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out
}

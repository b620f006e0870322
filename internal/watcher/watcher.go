// Package watcher turns filesystem activity in a working tree into
// working-tree-changed notifications.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/marcus/stagehand/internal/event"
)

// DefaultDebounce is the quiet period before a burst of filesystem events
// is reported.
const DefaultDebounce = 200 * time.Millisecond

// gitFiles are the files inside .git whose changes alter what the staging
// view shows.
var gitFiles = map[string]bool{
	"index":      true,
	"HEAD":       true,
	"MERGE_HEAD": true,
	"ORIG_HEAD":  true,
}

// Publisher receives the notifications.
type Publisher interface {
	Publish(e event.Event)
}

// Options configures a Watcher.
type Options struct {
	Root     string
	Debounce time.Duration
	Bus      Publisher
	Logger   *slog.Logger
}

// Watcher watches a working tree recursively. Directories created after
// Start are picked up as they appear.
type Watcher struct {
	fs   *fsnotify.Watcher
	opts Options
	done chan struct{}

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// Start begins watching opts.Root.
func Start(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fs: fw, opts: opts, done: make(chan struct{})}
	if err := w.addTree(opts.Root); err != nil {
		fw.Close()
		return nil, err
	}
	// Watch .git itself so index and HEAD updates from the command line
	// are seen. Its subdirectories are noise.
	if gitDir := filepath.Join(opts.Root, ".git"); isDir(gitDir) {
		_ = fw.Add(gitDir)
	}

	go w.loop()
	return w, nil
}

// Close stops watching. Pending notifications are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.opts.Logger.Debug("watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if inGitDir(w.opts.Root, ev.Name) {
		if !gitFiles[filepath.Base(ev.Name)] || filepath.Dir(ev.Name) != filepath.Join(w.opts.Root, ".git") {
			return
		}
	} else if ev.Op&fsnotify.Create != 0 && isDir(ev.Name) {
		_ = w.addTree(ev.Name)
	}
	if ev.Op == fsnotify.Chmod {
		return
	}
	w.schedule()
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed || w.opts.Bus == nil {
		return
	}
	w.opts.Bus.Publish(event.Event{Topic: event.WorkingTreeChanged, Source: w.opts.Root})
}

// addTree watches dir and every directory below it, skipping .git.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.opts.Logger.Debug("watch failed", "path", path, "err", err)
		}
		return nil
	})
}

func inGitDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	first, _, _ := strings.Cut(rel, string(filepath.Separator))
	return first == ".git"
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Package watch signals when any of a set of files or directories changes.
// It uses fsnotify and falls back to modification-time polling when native
// notifications are unavailable.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

// target is one watched path. A directory target matches any entry in it.
type target struct {
	path string
	dir  bool
}

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher delivers a coalesced signal each time a watched path changes.
type Watcher struct {
	targets []target
	// events is buffered to 1 so bursts of writes collapse into one signal.
	events chan struct{}
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	fsw *fsnotify.Watcher

	polling      atomic.Bool
	pollInterval time.Duration
}

// New watches every path. Files are watched through their parent directory
// so editors that save by renaming are still seen. Paths that do not exist
// yet are treated as files.
func New(paths ...string) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("watch: no paths")
	}
	w := &Watcher{
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: DefaultPollInterval,
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		w.targets = append(w.targets, target{path: abs, dir: err == nil && info.IsDir()})
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Info("fsnotify unavailable, falling back to polling", "error", err)
		w.startPolling()
		return w, nil
	}
	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			slog.Info("cannot watch directory, falling back to polling", "path", dir, "error", err)
			fsw.Close()
			w.startPolling()
			return w, nil
		}
	}
	w.fsw = fsw
	go w.watch(fsw)
	return w, nil
}

// dirs returns the distinct directories to register with fsnotify.
func (w *Watcher) dirs() []string {
	var out []string
	for _, t := range w.targets {
		d := t.path
		if !t.dir {
			d = filepath.Dir(t.path)
		}
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}

// matches reports whether an event for name concerns a watched path.
func (w *Watcher) matches(name string) bool {
	name = filepath.Clean(name)
	for _, t := range w.targets {
		if name == t.path || (t.dir && filepath.Dir(name) == t.path) {
			return true
		}
	}
	return false
}

// Polling reports whether the watcher is using polling instead of fsnotify.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// Events returns a channel that receives a signal when a watched path changes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.fsw != nil {
			if closeErr := w.fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
			w.fsw = nil
		}
	})
	return err
}

// ///////////////////////////////////////////////
// Event Loops
// ///////////////////////////////////////////////

// watch forwards write and create events for watched paths. On an fsnotify
// error it releases the native watcher and switches to polling.
func (w *Watcher) watch(fsw *fsnotify.Watcher) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && w.matches(event.Name) {
				w.notify()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Info("fsnotify error, switching to polling", "error", err)
			w.mu.Lock()
			if w.fsw != nil {
				w.fsw.Close()
				w.fsw = nil
			}
			w.mu.Unlock()
			w.startPolling()
			return
		}
	}
}

func (w *Watcher) startPolling() {
	w.polling.Store(true)
	go w.poll()
}

// poll stats the targets every pollInterval and signals when the newest
// modification time advances.
func (w *Watcher) poll() {
	lastMod := w.latestMod()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if mod := w.latestMod(); mod.After(lastMod) {
				lastMod = mod
				w.notify()
			}
		}
	}
}

// latestMod returns the newest modification time among the targets and, for
// directory targets, their entries. Missing paths are skipped.
func (w *Watcher) latestMod() time.Time {
	var latest time.Time
	bump := func(info os.FileInfo) {
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	for _, t := range w.targets {
		if !t.dir {
			if info, err := os.Stat(t.path); err == nil {
				bump(info)
			}
			continue
		}
		entries, err := os.ReadDir(t.path)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if info, err := e.Info(); err == nil {
				bump(info)
			}
		}
	}
	return latest
}

// notify sends one signal, dropping it when one is already pending.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}

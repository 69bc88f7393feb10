package bestiary

import (
	"os"
	"slices"
	"sort"
	"sync"
	"time"
)

// FileWatcher polls modification times and triggers a callback on change.
// Watching a directory also catches files being added or removed.
type FileWatcher struct {
	Paths    []string
	Interval time.Duration
	// Discover, when set, is called on every scan and its paths are watched
	// alongside Paths, so files created after Start are tracked too.
	Discover  func() ([]string, error)
	onChange  func(string) // called with path that changed
	stopCh    chan struct{}
	stopOnce  sync.Once
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for given paths and interval.
func NewFileWatcher(paths []string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		Paths:     paths,
		Interval:  interval,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// Start records current mtimes, then polls in a goroutine.
func (w *FileWatcher) Start() {
	w.scanAll(true)
	ticker := time.NewTicker(w.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scanAll(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher. Safe to call more than once.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// scanAll checks mtimes and invokes onChange for paths that changed,
// appeared or disappeared since the last scan.
func (w *FileWatcher) scanAll(prime bool) {
	for _, p := range w.targets() {
		fi, err := os.Stat(p)
		last, seen := w.lastMTime[p]
		if err != nil {
			if seen {
				delete(w.lastMTime, p)
				w.notify(p, prime)
			}
			continue
		}
		mt := fi.ModTime()
		if !seen || !mt.Equal(last) {
			w.lastMTime[p] = mt
			// first sighting during priming is not a change
			if seen || !prime {
				w.notify(p, prime)
			}
		}
	}
}

// targets is Paths, then discovered files, then anything seen before that
// is no longer listed (so its removal is reported).
func (w *FileWatcher) targets() []string {
	out := slices.Clone(w.Paths)
	if w.Discover != nil {
		// a failed listing keeps the previously seen files in play below
		if found, err := w.Discover(); err == nil {
			for _, p := range found {
				if !slices.Contains(out, p) {
					out = append(out, p)
				}
			}
		}
	}
	var gone []string
	for p := range w.lastMTime {
		if !slices.Contains(out, p) {
			gone = append(gone, p)
		}
	}
	sort.Strings(gone)
	return append(out, gone...)
}

func (w *FileWatcher) notify(p string, prime bool) {
	if !prime && w.onChange != nil {
		w.onChange(p)
	}
}

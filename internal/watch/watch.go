// Package watch turns a directory of cue files into a stream of paths that
// need resampling.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay quiet before it is emitted.
const DefaultSettle = 150 * time.Millisecond

// DirSource is a bridge source emitting the path of every cue file created or
// written in a directory. Bursts of writes to the same file are collapsed
// into one emit once the file has been quiet for the settle delay.
type DirSource struct {
	dir      string
	ext      string
	settle   time.Duration
	existing bool
}

// Option configures a DirSource.
type Option func(*DirSource)

// WithExtension changes the watched file extension (default ".json").
func WithExtension(ext string) Option {
	return func(d *DirSource) {
		d.ext = ext
	}
}

// WithSettle changes the quiet period before a changed file is emitted.
func WithSettle(d time.Duration) Option {
	return func(s *DirSource) {
		s.settle = d
	}
}

// WithExisting emits files already in the directory before watching.
func WithExisting() Option {
	return func(d *DirSource) {
		d.existing = true
	}
}

// NewDirSource watches dir.
func NewDirSource(dir string, opts ...Option) *DirSource {
	d := &DirSource{dir: dir, ext: ".json", settle: DefaultSettle}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stream emits matching paths until ctx is done. Watcher errors end the
// stream.
func (d *DirSource) Stream(ctx context.Context, emit func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	if err := watcher.Add(d.dir); err != nil {
		return fmt.Errorf("watch %s: %w", d.dir, err)
	}

	if d.existing {
		paths, err := d.scan()
		if err != nil {
			return err
		}
		for _, p := range paths {
			emit(p)
		}
	}

	deb := newDebouncer(d.settle, emit)
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !d.matches(event.Name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				deb.touch(event.Name)
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				deb.forget(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (d *DirSource) matches(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), d.ext)
}

func (d *DirSource) scan() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !d.matches(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(d.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

type debouncer struct {
	delay time.Duration
	emit  func(string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func newDebouncer(delay time.Duration, emit func(string)) *debouncer {
	return &debouncer{delay: delay, emit: emit, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) touch(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[path]; ok {
		t.Reset(d.delay)
		return
	}
	d.timers[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		delete(d.timers, path)
		d.mu.Unlock()
		d.emit(path)
	})
}

func (d *debouncer) forget(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[path]; ok {
		t.Stop()
		delete(d.timers, path)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
	}
}

// Package watcher reports changes to the source files a tree was loaded
// from. One Watcher covers every source; bursts of writes across several
// files arrive as a single Change.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is how often polled sources are checked.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrNoPaths        = errors.New("no paths to watch")
)

// Change lists the sources written during one debounce window, sorted.
type Change struct {
	Paths []string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a Change is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the stat interval for polled sources.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithForcePoll polls every source even where fsnotify works.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// WithErrorHandler receives removal and stat errors per source.
func WithErrorHandler(fn func(path string, err error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// stamp is what polling compares between ticks.
type stamp struct {
	mtime time.Time
	size  int64
}

func (s stamp) exists() bool { return !s.mtime.IsZero() }

// Watcher watches a fixed set of files. Files on local filesystems use
// fsnotify on their directory, so atomic rename-over writes are seen; files
// on network or FUSE mounts, or when fsnotify fails, are polled.
type Watcher struct {
	paths        []string
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool
	onError      func(string, error)

	debouncer *Debouncer
	changes   chan Change

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	fsw     *fsnotify.Watcher
	byDir   map[string]map[string]string // dir -> base name -> path
	polled  map[string]stamp
	fsTypes map[string]FilesystemType
	pending map[string]bool
}

// New returns a watcher for paths. Duplicates are dropped and paths are made
// absolute.
func New(paths []string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onError:      func(string, error) {},
		changes:      make(chan Change, 1),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(w.paths, abs) {
			w.paths = append(w.paths, abs)
		}
	}
	if len(w.paths) == 0 {
		return nil, ErrNoPaths
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start begins watching. Files that do not exist yet are watched for
// creation.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.byDir = make(map[string]map[string]string)
	w.polled = make(map[string]stamp)
	w.fsTypes = make(map[string]FilesystemType)
	w.pending = make(map[string]bool)

	forcePoll := w.forcePoll || envBool("VT_FORCE_POLLING") || envBool("VT_FORCE_POLL")

	for _, p := range w.paths {
		st, err := statFile(p)
		if errors.Is(err, ErrPermission) {
			cancel()
			if w.fsw != nil {
				w.fsw.Close()
				w.fsw = nil
			}
			return err
		}
		fsType := detectFilesystemTypeFunc(p)
		w.fsTypes[p] = fsType

		if forcePoll || isRemoteFilesystem(fsType) || !w.addNotify(p) {
			w.polled[p] = st
		}
	}

	if w.fsw != nil {
		go w.watchNotify(ctx, w.fsw)
	}
	if len(w.polled) > 0 {
		go w.watchPolling(ctx)
	}

	w.running = true
	return nil
}

// addNotify registers the directory of p with fsnotify. It reports false
// when p has to be polled instead.
func (w *Watcher) addNotify(p string) bool {
	dir, base := filepath.Dir(p), filepath.Base(p)
	if names, ok := w.byDir[dir]; ok {
		names[base] = p
		return true
	}
	if w.fsw == nil {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return false
		}
		w.fsw = fsw
	}
	if err := w.fsw.Add(dir); err != nil {
		return false
	}
	w.byDir[dir] = map[string]string{base: p}
	return true
}

// Stop stops watching. The Changes channel stays open so a reader blocked
// on it never sees a spurious change.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.debouncer.Cancel()
	w.running = false
}

// Changes delivers one Change per quiet period.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Paths returns the watched files.
func (w *Watcher) Paths() []string {
	return slices.Clone(w.paths)
}

// Running reports whether the watcher was started and not stopped.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Polled returns the files watched by polling.
func (w *Watcher) Polled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.polled))
	for p := range w.polled {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// FilesystemType returns the classification of a watched file made at Start.
func (w *Watcher) FilesystemType(path string) FilesystemType {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsTypes[path]
}

func (w *Watcher) watchNotify(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			p, watched := w.lookup(event.Name)
			if !watched {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0:
				w.onError(p, ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.mark(p)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError("", err)
		}
	}
}

func (w *Watcher) lookup(name string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.byDir[filepath.Dir(name)][filepath.Base(name)]
	return p, ok
}

func (w *Watcher) watchPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.polled))
	for p := range w.polled {
		paths = append(paths, p)
	}
	w.mu.Unlock()

	for _, p := range paths {
		st, err := statFile(p)

		w.mu.Lock()
		prev := w.polled[p]
		w.polled[p] = st
		w.mu.Unlock()

		switch {
		case err == nil && (st.mtime.After(prev.mtime) || st.size != prev.size):
			w.mark(p)
		case errors.Is(err, os.ErrNotExist):
			// only once per disappearance
			if prev.exists() {
				w.onError(p, ErrFileRemoved)
			}
		case err != nil:
			w.onError(p, err)
		}
	}
}

// mark records p as changed and restarts the quiet period.
func (w *Watcher) mark(p string) {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.pending[p] = true
	w.mu.Unlock()
	w.debouncer.Trigger(w.deliver)
}

func (w *Watcher) deliver() {
	w.mu.Lock()
	if !w.running || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	w.mu.Unlock()

	slices.Sort(paths)
	// A Change still queued already triggers a reload of every source.
	select {
	case w.changes <- Change{Paths: paths}:
	default:
	}
}

// statFunc is swapped out in tests.
var statFunc = os.Stat

// statFile returns the stamp of p. A missing file has the zero stamp.
func statFile(p string) (stamp, error) {
	info, err := statFunc(p)
	switch {
	case err == nil:
		return stamp{mtime: info.ModTime(), size: info.Size()}, nil
	case os.IsPermission(err):
		return stamp{}, ErrPermission
	default:
		return stamp{}, err
	}
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

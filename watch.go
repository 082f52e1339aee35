// FILE: lixenwraith/settings/watch.go
package settings

import (
	"context"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultMaxWatchers = 100 // Prevent resource exhaustion

// Notifications sent to watch subscribers in place of a key.
const (
	EventFileDeleted        = "file_deleted"
	EventPermissionsChanged = "permissions_changed"
	EventReloadError        = "reload_error"
	EventReloadTimeout      = "reload_timeout"
)

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// PollInterval for file stat checks (minimum 100ms)
	PollInterval time.Duration

	// Debounce duration to avoid rapid reloads
	Debounce time.Duration

	// MaxWatchers limits concurrent watch channels
	MaxWatchers int

	// ReloadTimeout for file reload operations
	ReloadTimeout time.Duration

	// VerifyPermissions refuses to reload when group or world permission bits change
	VerifyPermissions bool
}

// DefaultWatchOptions returns sensible defaults for file watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		MaxWatchers:       DefaultMaxWatchers,
		ReloadTimeout:     DefaultReloadTimeout,
		VerifyPermissions: true,
	}
}

// watcher polls one file and reloads its retriever on change.
type watcher struct {
	mu               sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	opts             WatchOptions
	retriever        *FileRetriever
	lastModTime      time.Time
	lastSize         int64
	lastMode         os.FileMode
	watching         atomic.Bool
	reloadInProgress atomic.Bool
	subscribers      map[int64]chan string
	subscriberID     atomic.Int64
	debounceTimer    *time.Timer
}

// Watch starts polling the file, if not already, and returns a channel
// that receives the dotted key of every value that changed on reload, or
// one of the Event* notifications. Each channel closes when its own ctx is
// done or StopWatch is called. The watcher outlives individual subscribers,
// and opts only take effect for the call that starts it. Values are read
// live, so settings resolved after a reload see the new content without any
// further action.
func (r *FileRetriever) Watch(ctx context.Context, opts WatchOptions) <-chan string {
	if opts.PollInterval < MinPollInterval {
		opts.PollInterval = MinPollInterval
	}
	if opts.MaxWatchers <= 0 {
		opts.MaxWatchers = DefaultMaxWatchers
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = DefaultReloadTimeout
	}

	r.watchMu.Lock()
	defer r.watchMu.Unlock()

	if r.watcher == nil || r.watcher.ctx.Err() != nil {
		wctx, cancel := context.WithCancel(context.Background())
		w := &watcher{
			ctx:         wctx,
			cancel:      cancel,
			opts:        opts,
			retriever:   r,
			subscribers: make(map[int64]chan string),
		}

		// Get initial file state
		if info, err := os.Stat(r.path); err == nil {
			w.lastModTime = info.ModTime()
			w.lastSize = info.Size()
			w.lastMode = info.Mode()
		}

		r.watcher = w
		w.watching.Store(true)
		go w.watchLoop()
	}
	return r.watcher.subscribe(ctx)
}

// StopWatch stops polling and closes all subscriber channels.
func (r *FileRetriever) StopWatch() {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()

	if r.watcher != nil {
		r.watcher.stop()
		r.watcher = nil
	}
}

// IsWatching returns true if the file is being polled
func (r *FileRetriever) IsWatching() bool {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	return r.watcher != nil && r.watcher.watching.Load()
}

// watchLoop is the main file watching loop
func (w *watcher) watchLoop() {
	defer w.watching.Store(false)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.checkAndReload()
		}
	}
}

// checkAndReload checks if file changed and triggers reload
func (w *watcher) checkAndReload() {
	info, err := os.Stat(w.retriever.path)
	if err != nil {
		// Notify once per disappearance; a recreated file reloads as changed.
		if os.IsNotExist(err) && !w.lastModTime.IsZero() {
			w.lastModTime = time.Time{}
			w.lastSize = 0
			w.notify(EventFileDeleted)
		}
		return
	}

	changed := !info.ModTime().Equal(w.lastModTime) || info.Size() != w.lastSize

	if w.opts.VerifyPermissions && w.lastMode != 0 && info.Mode() != w.lastMode {
		if (info.Mode() & 0077) != (w.lastMode & 0077) {
			w.retriever.logger.Warn().Str("path", w.retriever.path).Msg("settings file permissions changed, reload skipped")
			w.notify(EventPermissionsChanged)
			return
		}
	}

	if changed {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
		w.lastMode = info.Mode()

		// Debounce rapid changes
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.debounceTimer = time.AfterFunc(w.opts.Debounce, w.performReload)
		w.mu.Unlock()
	}
}

// performReload reloads the file and notifies subscribers of changed keys
func (w *watcher) performReload() {
	if !w.reloadInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.reloadInProgress.Store(false)

	ctx, cancel := context.WithTimeout(w.ctx, w.opts.ReloadTimeout)
	defer cancel()

	oldValues := w.retriever.Values()

	done := make(chan error, 1)
	go func() {
		done <- w.retriever.Reload()
	}()

	select {
	case err := <-done:
		if err != nil {
			w.retriever.logger.Warn().Err(err).Str("path", w.retriever.path).Msg("settings file reload failed")
			w.notify(EventReloadError)
			return
		}

		newValues := w.retriever.Values()
		for key, newVal := range newValues {
			if oldVal, existed := oldValues[key]; !existed || !reflect.DeepEqual(oldVal, newVal) {
				w.notify(key)
			}
		}
		for key := range oldValues {
			if _, exists := newValues[key]; !exists {
				w.notify(key)
			}
		}

	case <-ctx.Done():
		w.notify(EventReloadTimeout)
	}
}

// subscribe creates a new subscriber channel, closed when either the
// watcher or the subscriber's ctx is done.
func (w *watcher) subscribe(ctx context.Context) <-chan string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.subscribers) >= w.opts.MaxWatchers {
		ch := make(chan string)
		close(ch)
		return ch
	}

	ch := make(chan string, 10)
	id := w.subscriberID.Add(1)
	w.subscribers[id] = ch

	go func() {
		select {
		case <-w.ctx.Done():
		case <-ctx.Done():
		}
		w.mu.Lock()
		delete(w.subscribers, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// notify sends a change notification to all subscribers without blocking
func (w *watcher) notify(key string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.subscribers {
		select {
		case ch <- key:
		default:
		}
	}
}

// stop terminates the watcher
func (w *watcher) stop() {
	w.cancel()

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.mu.Unlock()

	// Wait for watch loop to exit with timeout
	deadline := time.Now().Add(ShutdownTimeout)
	for w.watching.Load() && time.Now().Before(deadline) {
		time.Sleep(SpinWaitInterval)
	}
}

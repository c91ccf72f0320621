package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"launchkit/pkg/logging"
)

const watcherSubsystem = "ConfigWatcher"

// Watcher reloads configuration services when their files change on disk.
// Events are debounced per file since editors often write in several steps.
type Watcher struct {
	mu sync.Mutex

	// files maps absolute file paths to their services
	files map[string]*Service

	watcher          *fsnotify.Watcher
	debounceInterval time.Duration
	pending          map[string]*time.Timer
	stopCh           chan struct{}
	running          bool

	// OnReload is called after every reload attempt when not nil.
	OnReload func(service string, err error)
}

// NewWatcher creates a watcher. A zero interval defaults to 500ms.
func NewWatcher(debounceInterval time.Duration) *Watcher {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}
	return &Watcher{
		files:            make(map[string]*Service),
		debounceInterval: debounceInterval,
		pending:          make(map[string]*time.Timer),
		stopCh:           make(chan struct{}),
	}
}

// Add registers a file-backed service. In-memory services are ignored.
func (w *Watcher) Add(svc *Service) error {
	if !svc.HasFile() {
		return nil
	}
	abs, err := filepath.Abs(svc.Path())
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.files[abs] = svc
	running := w.running
	fw := w.watcher
	w.mu.Unlock()

	if running {
		return fw.Add(filepath.Dir(abs))
	}
	return nil
}

// Start begins watching the directories of every added service.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	w.running = true
	w.stopCh = make(chan struct{})

	dirs := make(map[string]bool)
	for path := range w.files {
		dirs[filepath.Dir(path)] = true
	}
	count := len(w.files)
	stopCh := w.stopCh
	w.mu.Unlock()

	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			logging.Warn(watcherSubsystem, "Failed to watch %s: %v", dir, err)
			continue
		}
		logging.Debug(watcherSubsystem, "Watching directory: %s", dir)
	}

	go w.processEvents(ctx, fw, stopCh)
	logging.Info(watcherSubsystem, "Started watching %d configuration file(s)", count)
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, fw *fsnotify.Watcher, stopCh chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.cleanupPending()
			return

		case <-stopCh:
			w.cleanupPending()
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logging.Error(watcherSubsystem, err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	path := filepath.Clean(event.Name)
	w.mu.Lock()
	defer w.mu.Unlock()

	svc, ok := w.files[path]
	if !ok {
		return
	}

	if timer, exists := w.pending[path]; exists {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounceInterval, func() {
		w.mu.Lock()
		delete(w.pending, path)
		onReload := w.OnReload
		w.mu.Unlock()

		err := svc.Reload(ctx)
		if err != nil {
			logging.Error(watcherSubsystem, err, "Failed to reload %s", svc.Name())
		}
		if onReload != nil {
			onReload(svc.Name(), err)
		}
	})
}

func (w *Watcher) cleanupPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)

	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
		w.watcher = nil
	}
	logging.Info(watcherSubsystem, "Stopped configuration watcher")
	return err
}

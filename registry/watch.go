package registry

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/manifest"
)

// ChangeCallback receives the fresh discovery result after a change on disk
type ChangeCallback func(entries []Entry)

// Watcher invalidates a Registry when plugin directories or manifests change
type Watcher struct {
	reg      *Registry
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange ChangeCallback

	mu            sync.Mutex
	debounceTimer *time.Timer
	watched       map[string]bool
	// awaiting is the parent being watched while the root does not exist yet
	awaiting string
}

// NewWatcher watches the registry root and every plugin directory in it.
// A missing root is waited for by watching its parent.
func (r *Registry) NewWatcher(debounce time.Duration, onChange ChangeCallback) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		reg:      r,
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		watched:  map[string]bool{},
	}

	target := r.root
	if _, err := os.Stat(r.root); os.IsNotExist(err) {
		target = filepath.Dir(r.root)
		w.awaiting = target
		r.logger.Infow("Plugins directory does not exist yet, waiting for it",
			logger.FieldPath, r.root)
	}
	if err := fw.Add(target); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch plugins directory %s", target)
	}
	w.watched[target] = true

	w.syncDirs(r.Discover())
	return w, nil
}

// awaitingRoot reports whether the watcher is still waiting for the root to be created
func (w *Watcher) awaitingRoot() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.awaiting != ""
}

// adoptRoot switches from watching the parent to watching the root itself
func (w *Watcher) adoptRoot() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.watcher.Add(w.reg.root); err != nil {
		w.reg.logger.Warnw("Failed to watch plugins directory",
			logger.FieldPath, w.reg.root,
			logger.FieldError, err)
		return false
	}
	_ = w.watcher.Remove(w.awaiting)
	delete(w.watched, w.awaiting)
	w.watched[w.reg.root] = true
	w.awaiting = ""
	return true
}

// Watch creates a watcher and runs it until ctx ends
func (r *Registry) Watch(ctx context.Context, debounce time.Duration, onChange ChangeCallback) error {
	w, err := r.NewWatcher(debounce, onChange)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// Run processes events until ctx ends, then closes the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.reg.logger.Warnw("Plugin watcher error",
				logger.FieldError, err)
		}
	}
}

// Close stops the watcher and any pending reload
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	if w.awaitingRoot() {
		if event.Name != w.reg.root || !event.Has(fsnotify.Create) || !w.adoptRoot() {
			return
		}
		w.reg.logger.Infow("Plugins directory created",
			logger.FieldPath, w.reg.root)
		w.scheduleReload()
		return
	}

	dir := filepath.Dir(event.Name)
	switch {
	case dir == w.reg.root:
		if isHidden(filepath.Base(event.Name)) {
			return
		}
		// A plugin directory appeared, disappeared or was renamed
	case filepath.Base(event.Name) == manifest.FileName:
		if w.reg.isOwnWrite(event.Name) {
			w.reg.logger.Debugw("Plugin watcher ignoring own write",
				logger.FieldFile, event.Name)
			return
		}
	default:
		return
	}

	w.reg.logger.Debugw("Plugin watcher detected change",
		logger.FieldFile, event.Name,
		logger.FieldOperation, event.Op.String())
	w.scheduleReload()
}

// scheduleReload debounces bursts of events into one rediscovery
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.reg.Invalidate()
	entries := w.reg.Discover()
	w.syncDirs(entries)

	w.reg.logger.Infow("Plugins reloaded after change on disk",
		logger.FieldPath, w.reg.root,
		logger.FieldCount, len(entries))

	if w.onChange != nil {
		w.onChange(entries)
	}
}

// syncDirs makes the watch list match the plugin directories in entries
func (w *Watcher) syncDirs(entries []Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := make(map[string]bool, len(entries))
	for _, e := range entries {
		current[e.Path] = true
	}
	for path := range w.watched {
		if path != w.reg.root && path != w.awaiting && !current[path] {
			// Deleted directories are already gone from the kernel watch list
			_ = w.watcher.Remove(path)
			delete(w.watched, path)
		}
	}

	for _, e := range entries {
		if w.watched[e.Path] {
			continue
		}
		if err := w.watcher.Add(e.Path); err != nil {
			w.reg.logger.Debugw("Failed to watch plugin directory",
				logger.FieldDirectory, e.Path,
				logger.FieldError, err)
			continue
		}
		w.watched[e.Path] = true
	}
}

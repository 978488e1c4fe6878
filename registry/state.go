package registry

import (
	"os"
	"path/filepath"
	"time"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/manifest"
)

// ownWriteWindow is how long watcher events for a file we wrote are ignored
const ownWriteWindow = 500 * time.Millisecond

// StateChange describes the outcome of SetEnabled
type StateChange struct {
	ID      string
	Name    string
	File    string
	Enabled bool
	// Changed is false when the file already held the requested value
	Changed bool
}

// SetEnabled writes enabled into the plugin's manifest.
//
// The manifest is re-read from disk rather than taken from the cache and must
// still parse. When the stored value already matches nothing is written. Otherwise only the
// enabled key changes, the file is pretty-printed and replaced atomically,
// and the discovery cache is invalidated.
//
// Entries whose directory does not match their id are still accepted; entries
// without a manifest are not.
func (r *Registry) SetEnabled(identifier string, enabled bool) (*StateChange, error) {
	entry, err := r.Resolve(identifier)
	if err != nil {
		var invalid *InvalidPluginError
		if !errors.As(err, &invalid) || entry.Manifest == nil {
			return nil, err
		}
		r.logger.Debugw("Changing state of plugin that fails strict validation",
			logger.FieldPlugin, entry.ID(),
			logger.FieldError, invalid.Reason)
	}

	file := entry.Manifest.File()
	change := &StateChange{
		ID:      entry.Manifest.ID,
		Name:    entry.Manifest.DisplayName(),
		File:    file,
		Enabled: enabled,
	}

	data, err := os.ReadFile(file)
	if err != nil {
		r.logger.Errorw("Failed to read plugin manifest",
			logger.FieldPlugin, change.ID,
			logger.FieldFile, file,
			logger.FieldError, err)
		return nil, &WriteError{Path: file, Err: err}
	}

	if err := manifest.Check(data); err != nil {
		var pe *manifest.ParseError
		if errors.As(err, &pe) {
			pe.Path = file
		}
		return nil, err
	}

	if manifest.EnabledValue(data) == enabled {
		return change, nil
	}

	out, err := manifest.WithEnabled(data, enabled)
	if err != nil {
		return nil, &WriteError{Path: file, Err: err}
	}

	r.markOwnWrite(file)
	if err := manifest.WriteFile(file, out); err != nil {
		r.logger.Errorw("Failed to write plugin manifest",
			logger.FieldPlugin, change.ID,
			logger.FieldFile, file,
			logger.FieldError, err)
		return nil, &WriteError{Path: file, Err: err}
	}

	r.Invalidate()
	change.Changed = true

	r.logger.Infow("Plugin state changed",
		logger.FieldPlugin, change.ID,
		logger.FieldEnabled, enabled)
	return change, nil
}

func (r *Registry) markOwnWrite(file string) {
	r.ownMu.Lock()
	defer r.ownMu.Unlock()
	r.ownWrites[filepath.Clean(file)] = time.Now()
}

// isOwnWrite reports whether file was written by SetEnabled within ownWriteWindow
func (r *Registry) isOwnWrite(file string) bool {
	r.ownMu.Lock()
	defer r.ownMu.Unlock()

	file = filepath.Clean(file)
	at, ok := r.ownWrites[file]
	if !ok {
		return false
	}
	if time.Since(at) > ownWriteWindow {
		delete(r.ownWrites, file)
		return false
	}
	return true
}

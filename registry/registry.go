// Package registry discovers plugins under a root directory and manages their state.
//
// Discovery is cached: the first Discover scans the root and every later call
// returns the same result until Invalidate is called. SetEnabled, the installer
// and the watcher invalidate after they change something on disk.
package registry

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/manifest"
)

// Entry is one plugin directory found under the root.
// Exactly one of Manifest and Err is set.
type Entry struct {
	// Path is the plugin directory, always absolute
	Path     string
	Manifest *manifest.Manifest
	Err      error
	// Warnings are non-fatal problems, e.g. a directory/id mismatch
	Warnings []string
}

// ID returns the manifest id, or "" for error entries
func (e Entry) ID() string {
	if e.Manifest == nil {
		return ""
	}
	return e.Manifest.ID
}

// DirName returns the base name of the plugin directory
func (e Entry) DirName() string {
	return filepath.Base(e.Path)
}

// Key returns the id, falling back to the directory name for error entries
func (e Entry) Key() string {
	if id := e.ID(); id != "" {
		return id
	}
	return e.DirName()
}

// Enabled reports whether the manifest asks to be activated
func (e Entry) Enabled() bool {
	return e.Manifest != nil && e.Manifest.Enabled
}

// Provider returns the manifest provider name, or ""
func (e Entry) Provider() string {
	if e.Manifest == nil {
		return ""
	}
	return e.Manifest.Provider
}

// IsError reports whether the directory failed to yield a manifest
func (e Entry) IsError() bool {
	return e.Err != nil
}

// Registry discovers plugins under one root directory
type Registry struct {
	root   string
	loader manifest.Loader
	logger *zap.SugaredLogger

	mu        sync.RWMutex
	entries   []Entry
	populated bool

	ownMu     sync.Mutex
	ownWrites map[string]time.Time
}

// Option configures a Registry
type Option func(*Registry)

// WithLoader replaces the filesystem manifest loader
func WithLoader(l manifest.Loader) Option {
	return func(r *Registry) {
		r.loader = l
	}
}

// WithLogger sets the logger used for discovery warnings and state changes
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Registry) {
		r.logger = logger.OrNop(l)
	}
}

// New creates a registry over root. Nothing is read until Discover.
func New(root string, opts ...Option) *Registry {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	r := &Registry{
		root:      root,
		loader:    manifest.FileLoader{},
		logger:    logger.OrNop(nil),
		ownWrites: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the absolute plugins root
func (r *Registry) Root() string {
	return r.root
}

// Discover returns every plugin directory under the root, scanning on first use.
//
// Directories whose name starts with a dot are skipped.
// Entries follow os.ReadDir order, which sorts by file name. Callers should
// not depend on that beyond display purposes.
func (r *Registry) Discover() []Entry {
	r.mu.RLock()
	if r.populated {
		out := cloneEntries(r.entries)
		r.mu.RUnlock()
		return out
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.populated {
		return cloneEntries(r.entries)
	}

	entries, cacheable := r.scan()
	if cacheable {
		r.entries = entries
		r.populated = true
	}
	return cloneEntries(entries)
}

// Invalidate drops the cached discovery result
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.populated = false
}

// scan reads the root. The bool is false when the result must not be cached.
func (r *Registry) scan() ([]Entry, bool) {
	dirents, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Debugw("Plugins directory does not exist",
				logger.FieldPath, r.root)
			return []Entry{}, true
		}
		r.logger.Warnw("Failed to read plugins directory",
			logger.FieldPath, r.root,
			logger.FieldError, err)
		return []Entry{}, false
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		dir := filepath.Join(r.root, d.Name())
		if isHidden(d.Name()) || !isDir(d, dir) {
			continue
		}
		entries = append(entries, r.load(dir))
	}

	r.logger.Debugw("Discovered plugins",
		logger.FieldPath, r.root,
		logger.FieldCount, len(entries))
	return entries, true
}

// load turns one plugin directory into an Entry
func (r *Registry) load(dir string) Entry {
	m, err := r.loader.Load(filepath.Join(dir, manifest.FileName))
	if err != nil {
		r.logger.Debugw("Plugin manifest could not be loaded",
			logger.FieldDirectory, dir,
			logger.FieldError, err)
		return Entry{Path: dir, Err: err}
	}

	// Loaders other than FileLoader may leave Path empty
	if m.Path == "" {
		m.Path = dir
	}

	entry := Entry{Path: dir, Manifest: m}
	if base := filepath.Base(dir); m.ID != "" && m.ID != base {
		warning := mismatchMessage(base, m.ID)
		entry.Warnings = append(entry.Warnings, warning)
		r.logger.Warnw(warning,
			logger.FieldPlugin, m.ID,
			logger.FieldDirectory, dir)
	}
	return entry
}

// isDir follows symlinks so linked plugin checkouts are discovered
// isHidden matches dot-directories such as in-progress install staging
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isDir(d os.DirEntry, path string) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

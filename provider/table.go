package provider

import (
	"context"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/registry"
)

// Table holds every provider the host ships and tracks which are active
type Table struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	active      map[string]bool
	sourceRoots map[string]string
	hostVersion string
	services    Services
	logger      *zap.SugaredLogger
}

var _ registry.Host = (*Table)(nil)

// NewTable creates a provider table for a host at hostVersion
func NewTable(hostVersion string, base BaseServices, l *zap.SugaredLogger) *Table {
	t := &Table{
		providers:   make(map[string]Provider),
		active:      make(map[string]bool),
		sourceRoots: make(map[string]string),
		hostVersion: hostVersion,
		logger:      logger.OrNop(l).Named("provider"),
	}
	if base == nil {
		base = NewServices(l, nil)
	}
	t.services = boundServices{BaseServices: base, table: t}
	return t
}

// Register adds a provider to the table.
// Returns error if the name conflicts or the host version is incompatible.
func (t *Table) Register(p Provider) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	metadata := p.Metadata()
	name := normalizeName(metadata.Name)
	if name == "" {
		return errors.NewInvalidRequestError("provider name is empty")
	}

	if _, exists := t.providers[name]; exists {
		return errors.NewConflictError("provider already registered: %s", name)
	}

	if err := t.validateVersion(metadata); err != nil {
		return errors.Wrapf(err, "version incompatible for %s", name)
	}

	t.providers[name] = p
	return nil
}

// Get retrieves a provider by name
func (t *Table) Get(name string) (Provider, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.providers[normalizeName(name)]
	return p, ok
}

// List returns all registered provider names in sorted order
func (t *Table) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.providers))
	for name := range t.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Active returns the names of activated providers in sorted order
func (t *Table) Active() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.active))
	for name := range t.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderExists reports whether name is registered
func (t *Table) ProviderExists(name string) bool {
	_, ok := t.Get(name)
	return ok
}

// ActivateProvider runs Register then Boot for name.
// A provider that is already active is left alone.
func (t *Table) ActivateProvider(ctx context.Context, name string) error {
	name = normalizeName(name)

	t.mu.Lock()
	p, ok := t.providers[name]
	if !ok {
		t.mu.Unlock()
		return errors.Wrapf(registry.ErrProviderNotFound, "%s", name)
	}
	if t.active[name] {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	if err := p.Register(ctx, t.services); err != nil {
		return errors.Wrapf(err, "failed to register provider %s", name)
	}
	if err := p.Boot(ctx, t.services); err != nil {
		return errors.Wrapf(err, "failed to boot provider %s", name)
	}

	t.mu.Lock()
	t.active[name] = true
	t.mu.Unlock()

	t.logger.Debugw("Provider booted", logger.FieldProvider, name)
	return nil
}

// RegisterSourceRoot maps namespace onto dir.
// Registering the same pair twice is allowed; a different dir is a conflict.
func (t *Table) RegisterSourceRoot(namespace, dir string) error {
	namespace = normalizeNamespace(namespace)
	if namespace == "" {
		return errors.NewInvalidRequestError("namespace is empty")
	}
	dir = filepath.Clean(dir)

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.sourceRoots[namespace]; ok && existing != dir {
		return errors.NewConflictError("namespace %s already maps to %s", namespace, existing)
	}
	t.sourceRoots[namespace] = dir
	t.logger.Debugw("Source root registered",
		logger.FieldNamespace, namespace,
		logger.FieldDirectory, dir)
	return nil
}

// SourceRoot returns the directory registered for namespace
func (t *Table) SourceRoot(namespace string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	dir, ok := t.sourceRoots[normalizeNamespace(namespace)]
	return dir, ok
}

// SourceRoots returns a copy of every namespace mapping
func (t *Table) SourceRoots() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	roots := make(map[string]string, len(t.sourceRoots))
	for ns, dir := range t.sourceRoots {
		roots[ns] = dir
	}
	return roots
}

// MountHTTP registers routes for every active HTTPProvider
func (t *Table) MountHTTP(mux *http.ServeMux) error {
	for _, name := range t.Active() {
		p, _ := t.Get(name)
		hp, ok := p.(HTTPProvider)
		if !ok {
			continue
		}
		if err := hp.RegisterHTTP(mux); err != nil {
			return errors.Wrapf(err, "failed to mount routes for %s", name)
		}
	}
	return nil
}

// ShutdownAll shuts down active providers in reverse name order
func (t *Table) ShutdownAll(ctx context.Context) error {
	names := t.Active()
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var errs []error
	for _, name := range names {
		p, _ := t.Get(name)
		if sp, ok := p.(ShutdownProvider); ok {
			if err := sp.Shutdown(ctx); err != nil {
				errs = append(errs, errors.Wrapf(err, "failed to shutdown provider %s", name))
			}
		}
		t.mu.Lock()
		delete(t.active, name)
		t.mu.Unlock()
	}

	if len(errs) > 0 {
		return errors.Newf("shutdown errors: %v", errs)
	}
	return nil
}

// validateVersion checks the provider's host constraint against the host version
func (t *Table) validateVersion(metadata Metadata) error {
	if metadata.HostVersion == "" {
		return nil
	}

	hostVer, err := semver.NewVersion(t.hostVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid host version %s", t.hostVersion)
	}

	constraint, err := semver.NewConstraint(metadata.HostVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", metadata.HostVersion)
	}

	if !constraint.Check(hostVer) {
		return errors.Newf("provider requires host %s, but running %s", metadata.HostVersion, t.hostVersion)
	}
	return nil
}

// normalizeName drops the leading separator of a fully qualified name
func normalizeName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), `\`)
}

func normalizeNamespace(namespace string) string {
	return strings.Trim(strings.TrimSpace(namespace), `\`)
}

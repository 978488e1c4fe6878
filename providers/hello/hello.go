// Package hello is the sample provider shipped with plugctl.
//
// The plugins/hello directory activates it through its manifest:
//
//	{"id": "hello", "enabled": true, "provider": "Plugins\\Hello\\HelloServiceProvider", "namespace": "Plugins\\Hello"}
//
// It answers GET /api/hello with a greeting read from
// [providers.'Plugins\Hello\HelloServiceProvider'] in am.toml.
package hello

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/provider"
)

const (
	// Name is the manifest "provider" value of this provider
	Name = `Plugins\Hello\HelloServiceProvider`
	// Namespace is the namespace the hello plugin's sources live under
	Namespace = `Plugins\Hello`

	// DefaultGreeting is used when no greeting is configured
	DefaultGreeting = "Hello from Hello Plugin!"

	version = "1.0.0"
)

// Provider serves the hello plugin's routes
type Provider struct {
	mu       sync.RWMutex
	greeting string
	source   string
	logger   *zap.SugaredLogger
}

var (
	_ provider.HTTPProvider     = (*Provider)(nil)
	_ provider.ShutdownProvider = (*Provider)(nil)
)

// New creates the hello provider
func New() *Provider {
	return &Provider{greeting: DefaultGreeting, logger: logger.OrNop(nil)}
}

// Metadata returns information about the hello provider
func (p *Provider) Metadata() provider.Metadata {
	return provider.Metadata{
		Name:        Name,
		Version:     version,
		HostVersion: ">= 1.0.0",
		Description: "Sample provider answering GET /api/hello",
	}
}

// Register reads the greeting from the provider's configuration
func (p *Provider) Register(ctx context.Context, services provider.Services) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger = services.Logger("hello")
	if greeting := services.Config(Name).GetString("greeting"); greeting != "" {
		p.greeting = greeting
	}
	return nil
}

// Boot picks up the plugin's source directory once activation mapped it
func (p *Provider) Boot(ctx context.Context, services provider.Services) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if dir, ok := services.SourceRoot(Namespace); ok {
		p.source = dir
	}
	p.logger.Infow("Hello provider booted",
		logger.FieldNamespace, Namespace,
		logger.FieldDirectory, p.source)
	return nil
}

// RegisterHTTP mounts GET /api/hello
func (p *Provider) RegisterHTTP(mux *http.ServeMux) error {
	mux.HandleFunc("GET /api/hello", p.handleIndex)
	return nil
}

// Shutdown has nothing to release
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.logger.Info("Hello provider shutting down")
	return nil
}

// SourceDir returns the plugin source directory seen at Boot, if any
func (p *Provider) SourceDir() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.source
}

func (p *Provider) handleIndex(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	body := map[string]string{
		"message": p.greeting,
		"version": version,
	}
	p.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		p.logger.Warnw("Failed to write response", logger.FieldError, err)
	}
}

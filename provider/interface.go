// Package provider holds the in-process providers plugin manifests can activate.
//
// A manifest names its provider by string ("provider": "Plugins\\Hello\\HelloServiceProvider").
// Go cannot construct a type from its name at runtime, so the host registers
// every provider it ships into a Table up front. The Table then answers the
// registry's activation pass: does this provider exist, activate it, and
// where does a plugin namespace's source live.
//
// Lifecycle:
//   - Register is called once, when the provider is first activated
//   - Boot follows immediately after a successful Register
//   - Shutdown (optional) runs when the host stops, in reverse name order
package provider

import (
	"context"
	"net/http"
)

// Provider is the code behind a manifest's "provider" field
type Provider interface {
	// Metadata returns information about this provider
	Metadata() Metadata

	// Register binds the provider's services into the host
	Register(ctx context.Context, services Services) error

	// Boot runs once every binding of this provider is in place
	Boot(ctx context.Context, services Services) error
}

// Metadata describes a provider
type Metadata struct {
	// Name is matched against the manifest "provider" field
	Name string

	// Version is the provider version (semver)
	Version string

	// HostVersion is the required host version (semver constraint), empty for any
	HostVersion string

	// Description is a human-readable description
	Description string
}

// HTTPProvider is an optional interface for providers that expose routes.
// Routes are mounted by Table.MountHTTP for active providers only.
type HTTPProvider interface {
	Provider

	// RegisterHTTP registers handlers on the host router
	RegisterHTTP(mux *http.ServeMux) error
}

// ShutdownProvider is an optional interface for providers holding resources
type ShutdownProvider interface {
	Provider

	// Shutdown releases resources acquired in Register or Boot
	Shutdown(ctx context.Context) error
}

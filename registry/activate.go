package registry

import (
	"context"
	"os"
	"strings"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/logger"
)

// Host is what the activation pass needs from the application loading plugins
type Host interface {
	// RegisterSourceRoot maps a namespace root onto a plugin's src directory
	RegisterSourceRoot(namespace, dir string) error
	// ProviderExists reports whether the host can construct the named provider
	ProviderExists(name string) bool
	// ActivateProvider registers and boots the named provider
	ActivateProvider(ctx context.Context, name string) error
}

// ActivationOptions tunes one activation pass
type ActivationOptions struct {
	// EnforceRequirements fails plugins whose requires constraints are unmet
	EnforceRequirements bool
	// Available maps package names to installed versions for requirement checks
	Available map[string]string
}

// ActivationFailure records one plugin that could not be activated
type ActivationFailure struct {
	ID       string
	Provider string
	Err      error
}

// ActivationReport summarizes an activation pass
type ActivationReport struct {
	Activated []string
	Skipped   []string
	Failed    []ActivationFailure
	// Err is set when ctx ended before every entry was visited
	Err error
}

// ErrProviderNotFound is recorded for enabled plugins whose provider the host does not know
var ErrProviderNotFound = errors.New("provider not found")

// Activate exposes every enabled plugin with a provider to host.
//
// Entries that are disabled or name no provider are skipped. Failures are
// recorded per plugin and never stop the pass. Running it again re-activates
// every enabled plugin; the host decides whether that is a no-op.
func (r *Registry) Activate(ctx context.Context, host Host, opts ActivationOptions) ActivationReport {
	var report ActivationReport

	for _, e := range r.Discover() {
		if err := ctx.Err(); err != nil {
			report.Err = err
			break
		}

		provider := e.Provider()
		if !e.Enabled() || provider == "" {
			report.Skipped = append(report.Skipped, e.Key())
			continue
		}

		if err := r.activateOne(ctx, host, e, provider, opts); err != nil {
			r.logger.Warnw("Plugin activation failed",
				logger.FieldPlugin, e.Key(),
				logger.FieldProvider, provider,
				logger.FieldError, err)
			report.Failed = append(report.Failed, ActivationFailure{ID: e.Key(), Provider: provider, Err: err})
			continue
		}

		r.logger.Infow("Plugin activated",
			logger.FieldPlugin, e.Key(),
			logger.FieldProvider, provider)
		report.Activated = append(report.Activated, e.Key())
	}

	return report
}

func (r *Registry) activateOne(ctx context.Context, host Host, e Entry, provider string, opts ActivationOptions) error {
	if opts.EnforceRequirements {
		if unmet := Unsatisfied(CheckRequirements(e.Manifest, opts.Available)); len(unmet) > 0 {
			names := make([]string, 0, len(unmet))
			for _, u := range unmet {
				names = append(names, u.Name+" "+u.Constraint)
			}
			return errors.NewInvalidRequestError("unmet requirements: %s", strings.Join(names, ", "))
		}
	}

	if ns := e.Manifest.Namespace; ns != "" {
		src := e.Manifest.SourceDir()
		if info, err := os.Stat(src); err == nil && info.IsDir() {
			if err := host.RegisterSourceRoot(ns, src); err != nil {
				return errors.Wrapf(err, "failed to register source root %s", src)
			}
		}
	}

	if !host.ProviderExists(provider) {
		return errors.Wrapf(ErrProviderNotFound, "%s", provider)
	}

	return host.ActivateProvider(ctx, provider)
}

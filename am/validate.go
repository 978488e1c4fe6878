package am

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/plugctl/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Plugins.Path) == "" {
		return errors.New("plugins.path cannot be empty")
	}

	if c.Plugins.WatchDebounceMS < 0 {
		return errors.Newf("plugins.watch_debounce_ms must be >= 0, got %d", c.Plugins.WatchDebounceMS)
	}

	if c.Host.Version != "" {
		if _, err := semver.NewVersion(c.Host.Version); err != nil {
			return errors.Wrapf(err, "host.version %q is not a semantic version", c.Host.Version)
		}
	}
	for name, version := range c.Host.Packages {
		if _, err := semver.NewVersion(version); err != nil {
			return errors.Wrapf(err, "host.packages.%s version %q is not a semantic version", name, version)
		}
	}

	if strings.TrimSpace(c.Install.Command) == "" {
		return errors.New("install.command cannot be empty")
	}
	if c.Install.TimeoutSeconds <= 0 {
		return errors.Newf("install.timeout_seconds must be > 0, got %d", c.Install.TimeoutSeconds)
	}

	if strings.TrimSpace(c.Docs.Output) == "" {
		return errors.New("docs.output cannot be empty")
	}

	return nil
}

// Package installer adds plugins to the plugins directory.
//
// A source is one of:
//   - a local directory, copied in
//   - a git repository (URL, "git::" forced source or a github.com/gitlab.com
//     shorthand), shallow-cloned
//   - any other go-getter source (http archives, s3, gcs, ...), fetched and unpacked
//   - a package name, handed to the configured package manager
//
// Sources are detected with hashicorp/go-getter so the same strings work here
// as in every other go-getter based tool.
package installer

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/plugctl/am"
	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/internal/httpclient"
	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/registry"
	"github.com/teranos/plugctl/version"
)

// Kind classifies an install source
type Kind string

const (
	KindLocal   Kind = "local"
	KindGit     Kind = "git"
	KindRemote  Kind = "remote"
	KindPackage Kind = "package"
)

// Options tunes one install
type Options struct {
	// Name overrides the derived plugin directory name
	Name string
	// Flags are package-manager flags, see PackageFlags
	Flags []string
	// Output receives package-manager output; nil discards it
	Output io.Writer
}

// Result describes a finished install
type Result struct {
	Kind   Kind
	Source string
	// Name and Path are empty for package installs
	Name string
	Path string
	// Discovered is the number of entries found by the discovery run after install
	Discovered int
}

// cloneFunc shallow-clones url at ref (empty for the default branch) into dst
type cloneFunc func(ctx context.Context, url, ref, dst string) error

// Installer installs plugins into a registry's root
type Installer struct {
	reg    *registry.Registry
	cfg    am.InstallConfig
	logger *zap.SugaredLogger
	http   *http.Client
	pwd    string
	clone  cloneFunc
}

// Option configures an Installer
type Option func(*Installer)

// WithLogger sets the installer logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(i *Installer) {
		i.logger = logger.OrNop(l)
	}
}

// WithHTTPClient replaces the client used for http(s) downloads
func WithHTTPClient(c *http.Client) Option {
	return func(i *Installer) {
		i.http = c
	}
}

// WithWorkDir sets the directory relative local sources are resolved against
func WithWorkDir(dir string) Option {
	return func(i *Installer) {
		i.pwd = dir
	}
}

// New creates an installer for reg
func New(reg *registry.Registry, cfg am.InstallConfig, opts ...Option) *Installer {
	i := &Installer{
		reg:    reg,
		cfg:    cfg,
		logger: zap.NewNop().Sugar(),
		clone:  gitClone,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.pwd == "" {
		if wd, err := os.Getwd(); err == nil {
			i.pwd = wd
		} else {
			i.pwd = "."
		}
	}
	if i.http == nil {
		i.http = httpclient.New(i.timeout(), httpclient.Options{
			AllowPrivate: cfg.AllowPrivateHosts,
			UserAgent:    version.Get().UserAgent(),
		}).Client
	}
	return i
}

// Install installs source and re-runs discovery
func (i *Installer) Install(ctx context.Context, source string, opts Options) (*Result, error) {
	src, err := i.Classify(source)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout())
	defer cancel()

	i.logger.Infow("Installing plugin",
		logger.FieldSource, source,
		"kind", src.Kind)

	result := &Result{Kind: src.Kind, Source: source}

	if src.Kind == KindPackage {
		if err := i.installPackage(ctx, src.Location, opts); err != nil {
			return nil, err
		}
	} else {
		name := opts.Name
		if name == "" {
			name = src.Name
		}
		name = SanitizeName(name)
		if name == "" {
			name = RandomName()
		}

		path, err := i.installDir(ctx, src, name)
		if err != nil {
			return nil, err
		}
		result.Name = name
		result.Path = path
	}

	i.reg.Invalidate()
	result.Discovered = len(i.reg.Discover())

	i.logger.Infow("Plugin installed",
		logger.FieldSource, source,
		logger.FieldTarget, result.Path,
		logger.FieldCount, result.Discovered)
	return result, nil
}

// installDir stages src in a temp directory, then moves it under the root
func (i *Installer) installDir(ctx context.Context, src Source, name string) (string, error) {
	root := i.reg.Root()
	target := filepath.Join(root, name)

	if _, err := os.Stat(target); err == nil {
		return "", errors.WithHint(
			errors.NewConflictError("Plugin directory already exists: %s", target),
			"remove it first or pass --name to install under another name")
	}

	if err := os.MkdirAll(root, am.DefaultDirPermissions); err != nil {
		return "", errors.Wrapf(err, "failed to create plugins directory %s", root)
	}

	// Staged as a hidden directory in the root, which discovery skips, so the final rename stays on one filesystem
	staging, err := os.MkdirTemp(root, ".install-"+name+"-*")
	if err != nil {
		return "", errors.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(staging)

	fetched := filepath.Join(staging, "src")
	switch src.Kind {
	case KindGit:
		err = i.clone(ctx, src.Location, src.Ref, fetched)
	default:
		err = i.fetch(ctx, src.Location, fetched)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to fetch %s", src.Location)
	}

	dir, err := pluginDir(fetched, src.Subdir)
	if err != nil {
		return "", err
	}

	if err := os.Rename(dir, target); err != nil {
		return "", errors.Wrapf(err, "failed to move plugin into %s", target)
	}
	return target, nil
}

func (i *Installer) timeout() time.Duration {
	if i.cfg.TimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(i.cfg.TimeoutSeconds) * time.Second
}

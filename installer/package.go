package installer

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/logger"
)

// PackageFlags are the flags passed through to the package manager
var PackageFlags = []string{
	"dev",
	"no-dev",
	"no-scripts",
	"no-plugins",
	"prefer-source",
	"prefer-dist",
	"optimize-autoloader",
	"classmap-authoritative",
	"apcu-autoloader",
}

// PackageCommand builds the package-manager argv for pkg
func PackageCommand(command, pkg string, flags []string) ([]string, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "invalid install.command %q", command), errors.ErrInvalidRequest)
	}
	if len(argv) == 0 {
		return nil, errors.NewInvalidRequestError("install.command is empty")
	}

	argv = append(argv, pkg)
	for _, flag := range flags {
		name := strings.TrimPrefix(flag, "--")
		if !isPackageFlag(name) {
			return nil, errors.WithHintf(
				errors.NewInvalidRequestError("unsupported package flag --%s", name),
				"supported flags: --%s", strings.Join(PackageFlags, ", --"))
		}
		argv = append(argv, "--"+name)
	}
	return argv, nil
}

func isPackageFlag(name string) bool {
	for _, f := range PackageFlags {
		if f == name {
			return true
		}
	}
	return false
}

// installPackage runs the configured package manager in install.workdir
func (i *Installer) installPackage(ctx context.Context, pkg string, opts Options) error {
	argv, err := PackageCommand(i.cfg.Command, pkg, opts.Flags)
	if err != nil {
		return err
	}

	workdir := i.cfg.Workdir
	if workdir == "" {
		workdir = "."
	}
	if !filepath.IsAbs(workdir) {
		workdir = filepath.Join(i.pwd, workdir)
	}

	out := opts.Output
	if out == nil {
		out = io.Discard
	}

	i.logger.Infow("Running package manager",
		logger.FieldCommand, shellquote.Join(argv...),
		logger.FieldDirectory, workdir)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workdir
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(ctx.Err(), "package manager timed out installing %s", pkg)
		}
		return errors.Wrapf(err, "Failed to install package: %s", pkg)
	}
	return nil
}

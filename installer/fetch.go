package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hashicorp/go-getter"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/manifest"
)

// gitClone shallow-clones url into dst
func gitClone(ctx context.Context, url, ref, dst string) error {
	opts := &git.CloneOptions{
		URL:   url,
		Depth: 1,
	}
	if ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
		opts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, dst, false, opts); err != nil {
		if ref == "" {
			return err
		}
		// ref may be a tag rather than a branch
		os.RemoveAll(dst)
		opts.ReferenceName = plumbing.NewTagReferenceName(ref)
		if _, tagErr := git.PlainCloneContext(ctx, dst, false, opts); tagErr != nil {
			return errors.Wrapf(err, "ref %q is neither a branch nor a tag", ref)
		}
	}
	return nil
}

// fetch downloads a go-getter source into dst, unpacking archives.
// Local directories are copied with the file getter.
func (i *Installer) fetch(ctx context.Context, src, dst string) error {
	getters := make(map[string]getter.Getter, len(getter.Getters))
	for scheme, g := range getter.Getters {
		getters[scheme] = g
	}
	httpGetter := &getter.HttpGetter{Client: i.http, Netrc: true}
	getters["http"] = httpGetter
	getters["https"] = httpGetter
	getters["file"] = &getter.FileGetter{Copy: true}

	i.logger.Debugw("Fetching with go-getter",
		logger.FieldSource, src,
		logger.FieldTarget, dst)

	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     dst,
		Pwd:     i.pwd,
		Mode:    getter.ClientModeDir,
		Getters: getters,
	}
	return client.Get()
}

// pluginDir finds the directory holding plugin.json in fetched content.
// Archives often wrap everything in one top-level directory, which is looked through.
func pluginDir(fetched, subdir string) (string, error) {
	base := fetched
	if subdir != "" {
		dir, err := getter.SubdirGlob(fetched, subdir)
		if err != nil {
			return "", errors.Mark(errors.Wrapf(err, "subdirectory %q", subdir), errors.ErrInvalidRequest)
		}
		base = dir
	}

	if hasManifest(base) {
		return base, nil
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read fetched content %s", base)
	}
	var visible []os.DirEntry
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			visible = append(visible, e)
		}
	}
	if len(visible) == 1 && visible[0].IsDir() {
		if only := filepath.Join(base, visible[0].Name()); hasManifest(only) {
			return only, nil
		}
	}

	return "", errors.WithHint(
		errors.NewInvalidRequestError("no %s found in fetched source", manifest.FileName),
		"a plugin is a directory with a plugin.json at its top level")
}

func hasManifest(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, manifest.FileName))
	return err == nil && !info.IsDir()
}

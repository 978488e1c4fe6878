package installer

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-getter"

	"github.com/teranos/plugctl/errors"
)

// Source is a classified install source
type Source struct {
	Kind Kind
	// Location is what gets fetched: a directory, clone URL, go-getter source or package name
	Location string
	// Ref is the git ref from a ?ref= parameter
	Ref string
	// Subdir is the "//subdir" part of a git source
	Subdir string
	// Name is the plugin directory name derived from the source
	Name string
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeName strips everything but letters, digits, '-' and '_'
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "")
}

// RandomName returns a fallback plugin directory name
func RandomName() string {
	return "plugin-" + uuid.NewString()[:8]
}

// Classify works out how source should be installed
func (i *Installer) Classify(source string) (Source, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Source{}, errors.NewInvalidRequestError("install source is empty")
	}

	if local, ok := i.localDir(source); ok {
		return Source{Kind: KindLocal, Location: local, Name: filepath.Base(local)}, nil
	}

	detected, err := getter.Detect(source, i.pwd, getter.Detectors)
	if err != nil {
		return Source{}, errors.Mark(errors.Wrapf(err, "cannot detect source type of %q", source), errors.ErrInvalidRequest)
	}

	forced, rest := splitForced(detected)
	rest, subdir := getter.SourceDirSubdir(rest)
	u, err := url.Parse(rest)
	if err != nil {
		return Source{}, errors.Mark(errors.Wrapf(err, "invalid source URL %q", rest), errors.ErrInvalidRequest)
	}

	if forced == "" && (u.Scheme == "" || u.Scheme == "file") {
		// Local archives go through go-getter's file getter
		if info, err := os.Stat(u.Path); err == nil && !info.IsDir() {
			return Source{Kind: KindRemote, Location: detected, Name: nameFromPath(u.Path)}, nil
		}
		return Source{Kind: KindPackage, Location: source}, nil
	}

	name := nameFromPath(u.Path)
	if subdir != "" {
		name = nameFromPath(subdir)
	}

	if isGit(forced, u) {
		ref := u.Query().Get("ref")
		q := u.Query()
		q.Del("ref")
		u.RawQuery = q.Encode()
		return Source{Kind: KindGit, Location: u.String(), Ref: ref, Subdir: subdir, Name: name}, nil
	}

	return Source{Kind: KindRemote, Location: detected, Name: name}, nil
}

// localDir reports whether source names an existing directory
func (i *Installer) localDir(source string) (string, bool) {
	path := source
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		path = filepath.Join(home, path[2:])
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(i.pwd, path)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return filepath.Clean(path), true
}

// splitForced separates a "getter::" prefix from a detected source
func splitForced(src string) (string, string) {
	forced, rest, ok := strings.Cut(src, "::")
	if !ok || forced == "" || strings.ContainsAny(forced, "/:.") {
		return "", src
	}
	return forced, rest
}

// isGit reports whether a detected source should be cloned.
// Plain http(s) URLs are repositories unless they point at an archive.
func isGit(forced string, u *url.URL) bool {
	if forced != "" {
		return forced == "git"
	}
	switch u.Scheme {
	case "git", "ssh":
		return true
	case "http", "https":
		return u.Query().Get("archive") == "" && archiveExt(u.Path) == ""
	}
	return false
}

// archiveExt returns the longest archive extension go-getter can unpack on path
func archiveExt(path string) string {
	var ext string
	for key := range getter.Decompressors {
		if strings.HasSuffix(path, "."+key) && len(key) > len(ext) {
			ext = key
		}
	}
	return ext
}

// nameFromPath takes the last path element without .git or archive extensions
func nameFromPath(path string) string {
	base := filepath.Base(strings.TrimRight(path, "/"))
	if base == "." || base == "/" {
		return ""
	}
	base = strings.TrimSuffix(base, ".git")
	if ext := archiveExt(base); ext != "" {
		base = strings.TrimSuffix(base, "."+ext)
	}
	return strings.TrimSuffix(base, ".tar")
}

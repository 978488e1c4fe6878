package installer

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/plugctl/am"
	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/manifest"
	"github.com/teranos/plugctl/registry"
)

func testConfig() am.InstallConfig {
	return am.InstallConfig{
		Command:        "composer require",
		Workdir:        ".",
		TimeoutSeconds: 30,
	}
}

func newTestInstaller(t *testing.T, cfg am.InstallConfig) (*Installer, string, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "plugins")
	pwd := t.TempDir()
	reg := registry.New(root)
	return New(reg, cfg, WithWorkDir(pwd), WithLogger(zaptest.NewLogger(t).Sugar())), root, pwd
}

func writePluginDir(t *testing.T, dir, id string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := `{"id":"` + id + `","name":"Test","enabled":false}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(content), 0644))
	return dir
}

func TestClassify(t *testing.T) {
	inst, _, pwd := newTestInstaller(t, testConfig())
	writePluginDir(t, filepath.Join(pwd, "local-blog"), "local-blog")
	require.NoError(t, os.WriteFile(filepath.Join(pwd, "blog.zip"), []byte("PK"), 0644))

	tests := []struct {
		name     string
		source   string
		kind     Kind
		location string
		ref      string
		subdir   string
		pluginNm string
	}{
		{
			name:     "relative local directory",
			source:   "local-blog",
			kind:     KindLocal,
			location: filepath.Join(pwd, "local-blog"),
			pluginNm: "local-blog",
		},
		{
			name:     "package name",
			source:   "acme/blog",
			kind:     KindPackage,
			location: "acme/blog",
		},
		{
			name:     "github shorthand",
			source:   "github.com/acme/blog",
			kind:     KindGit,
			location: "https://github.com/acme/blog.git",
			pluginNm: "blog",
		},
		{
			name:     "https repository with ref",
			source:   "https://example.com/acme/blog-plugin.git?ref=v1",
			kind:     KindGit,
			location: "https://example.com/acme/blog-plugin.git",
			ref:      "v1",
			pluginNm: "blog-plugin",
		},
		{
			name:     "forced git with subdirectory",
			source:   "git::https://example.com/mono.git//plugins/blog?ref=v2",
			kind:     KindGit,
			location: "https://example.com/mono.git",
			ref:      "v2",
			subdir:   "plugins/blog",
			pluginNm: "blog",
		},
		{
			name:     "remote archive",
			source:   "https://example.com/dl/blog.tar.gz",
			kind:     KindRemote,
			location: "https://example.com/dl/blog.tar.gz",
			pluginNm: "blog",
		},
		{
			name:     "local archive",
			source:   "blog.zip",
			kind:     KindRemote,
			pluginNm: "blog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := inst.Classify(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, src.Kind)
			if tt.location != "" {
				assert.Equal(t, tt.location, src.Location)
			}
			assert.Equal(t, tt.ref, src.Ref)
			assert.Equal(t, tt.subdir, src.Subdir)
			assert.Equal(t, tt.pluginNm, src.Name)
		})
	}

	t.Run("empty source", func(t *testing.T) {
		_, err := inst.Classify("   ")
		assert.True(t, errors.IsInvalidRequestError(err))
	})
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"blog":         "blog",
		"my-blog_2":    "my-blog_2",
		"my blog!":     "myblog",
		"plugin-1.0.3": "plugin-103",
		"...":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeName(in), in)
	}
}

func TestRandomName(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^plugin-[0-9a-f]{8}$`), RandomName())
	assert.NotEqual(t, RandomName(), RandomName())
}

func TestInstall_LocalDirectory(t *testing.T) {
	inst, root, pwd := newTestInstaller(t, testConfig())
	src := writePluginDir(t, filepath.Join(pwd, "blog"), "blog")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "src", "Provider.php"), []byte("<?php"), 0644))

	result, err := inst.Install(context.Background(), "blog", Options{})
	require.NoError(t, err)

	assert.Equal(t, KindLocal, result.Kind)
	assert.Equal(t, "blog", result.Name)
	assert.Equal(t, filepath.Join(root, "blog"), result.Path)
	assert.Equal(t, 1, result.Discovered)
	assert.FileExists(t, filepath.Join(root, "blog", manifest.FileName))
	assert.FileExists(t, filepath.Join(root, "blog", "src", "Provider.php"))
	assert.DirExists(t, src, "the source is copied, not moved")
}

func TestInstall_NameOverride(t *testing.T) {
	inst, root, pwd := newTestInstaller(t, testConfig())
	writePluginDir(t, filepath.Join(pwd, "blog"), "blog")

	result, err := inst.Install(context.Background(), "blog", Options{Name: "my blog!"})
	require.NoError(t, err)
	assert.Equal(t, "myblog", result.Name)
	assert.DirExists(t, filepath.Join(root, "myblog"))
}

func TestInstall_FallbackName(t *testing.T) {
	inst, root, pwd := newTestInstaller(t, testConfig())
	writePluginDir(t, filepath.Join(pwd, "!!!"), "bang")

	result, err := inst.Install(context.Background(), "!!!", Options{})
	require.NoError(t, err)
	assert.Regexp(t, `^plugin-[0-9a-f]{8}$`, result.Name)
	assert.DirExists(t, filepath.Join(root, result.Name))
}

func TestInstall_TargetExists(t *testing.T) {
	inst, _, pwd := newTestInstaller(t, testConfig())
	writePluginDir(t, filepath.Join(pwd, "blog"), "blog")

	_, err := inst.Install(context.Background(), "blog", Options{})
	require.NoError(t, err)

	_, err = inst.Install(context.Background(), "blog", Options{})
	require.Error(t, err)
	assert.True(t, errors.IsConflictError(err))
	assert.Contains(t, err.Error(), "Plugin directory already exists")
}

func TestInstall_NoManifest(t *testing.T) {
	inst, root, pwd := newTestInstaller(t, testConfig())
	require.NoError(t, os.MkdirAll(filepath.Join(pwd, "notaplugin"), 0755))

	_, err := inst.Install(context.Background(), "notaplugin", Options{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory is cleaned up")
}

// tarGz builds an archive with every file under a single top-level directory
func tarGz(t *testing.T, top string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	require.NoError(t, tw.WriteHeader(&tar.Header{Name: top + "/", Typeflag: tar.TypeDir, Mode: 0755}))
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     top + "/" + name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestInstall_RemoteArchive(t *testing.T) {
	archive := tarGz(t, "blog-1.0", map[string]string{
		manifest.FileName: `{"id":"blog","enabled":true}`,
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/gzip")
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.AllowPrivateHosts = true
	inst, root, _ := newTestInstaller(t, cfg)

	result, err := inst.Install(context.Background(), server.URL+"/dl/blog.tar.gz", Options{})
	require.NoError(t, err)

	assert.Equal(t, KindRemote, result.Kind)
	assert.Equal(t, "blog", result.Name)
	assert.FileExists(t, filepath.Join(root, "blog", manifest.FileName))
	assert.Equal(t, 1, result.Discovered)
}

func TestInstall_RemoteArchiveBlockedByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	inst, root, _ := newTestInstaller(t, testConfig())

	_, err := inst.Install(context.Background(), server.URL+"/dl/blog.tar.gz", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private IP")
	assert.NoDirExists(t, filepath.Join(root, "blog"))
}

func TestInstall_GitSource(t *testing.T) {
	inst, root, _ := newTestInstaller(t, testConfig())

	var gotURL, gotRef string
	inst.clone = func(ctx context.Context, url, ref, dst string) error {
		gotURL, gotRef = url, ref
		writePluginDir(t, filepath.Join(dst, "plugins", "blog"), "blog")
		writePluginDir(t, filepath.Join(dst, "plugins", "shop"), "shop")
		return nil
	}

	result, err := inst.Install(context.Background(), "git::https://example.com/mono.git//plugins/blog?ref=v2", Options{})
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/mono.git", gotURL)
	assert.Equal(t, "v2", gotRef)
	assert.Equal(t, KindGit, result.Kind)
	assert.Equal(t, "blog", result.Name)
	assert.FileExists(t, filepath.Join(root, "blog", manifest.FileName))
	assert.NoDirExists(t, filepath.Join(root, "shop"))
}

func TestInstall_GitCloneFailure(t *testing.T) {
	inst, root, _ := newTestInstaller(t, testConfig())
	inst.clone = func(ctx context.Context, url, ref, dst string) error {
		return errors.New("repository not found")
	}

	_, err := inst.Install(context.Background(), "github.com/acme/missing", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository not found")
	assert.NoDirExists(t, filepath.Join(root, "missing"))
}

func TestPackageCommand(t *testing.T) {
	argv, err := PackageCommand("composer require", "acme/blog", []string{"--no-dev", "prefer-dist"})
	require.NoError(t, err)
	assert.Equal(t, []string{"composer", "require", "acme/blog", "--no-dev", "--prefer-dist"}, argv)

	argv, err = PackageCommand(`php "/opt/composer phar" require`, "acme/blog", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"php", "/opt/composer phar", "require", "acme/blog"}, argv)

	_, err = PackageCommand("composer require", "acme/blog", []string{"--force"})
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = PackageCommand(`composer "require`, "acme/blog", nil)
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = PackageCommand("   ", "acme/blog", nil)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestInstall_Package(t *testing.T) {
	cfg := testConfig()
	cfg.Command = `sh -c 'printf "%s\n" "$@" > args.txt' sh`
	inst, _, pwd := newTestInstaller(t, cfg)

	result, err := inst.Install(context.Background(), "acme/blog", Options{Flags: []string{"--no-dev", "prefer-dist"}})
	require.NoError(t, err)
	assert.Equal(t, KindPackage, result.Kind)
	assert.Empty(t, result.Path)

	args, err := os.ReadFile(filepath.Join(pwd, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "acme/blog\n--no-dev\n--prefer-dist\n", string(args))
}

func TestInstall_PackageFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Command = `sh -c 'echo boom >&2; exit 3' sh`
	inst, _, _ := newTestInstaller(t, cfg)

	var out bytes.Buffer
	_, err := inst.Install(context.Background(), "acme/blog", Options{Output: &out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to install package: acme/blog")
	assert.Contains(t, out.String(), "boom")
}

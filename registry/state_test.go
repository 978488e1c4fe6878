package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/manifest"
)

func readManifest(t *testing.T, root, dir string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, dir, manifest.FileName))
	require.NoError(t, err)
	return data
}

func findEntry(t *testing.T, reg *Registry, id string) Entry {
	t.Helper()
	for _, e := range reg.Discover() {
		if e.ID() == id {
			return e
		}
	}
	t.Fatalf("plugin %q not discovered", id)
	return Entry{}
}

func TestSetEnabled_RoundTrip(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "example", `{"id":"example","name":"Example","version":"2.0.0","provider":"Foo","requires":{"host":"^1.0"}}`)

	reg := New(root)
	assert.False(t, findEntry(t, reg, "example").Enabled())

	change, err := reg.SetEnabled("Example", true)
	require.NoError(t, err)
	assert.True(t, change.Changed)
	assert.Equal(t, "example", change.ID)
	assert.Equal(t, "Example", change.Name)
	assert.True(t, change.Enabled)

	// Cache was invalidated by the write
	assert.True(t, findEntry(t, reg, "example").Enabled())

	data := readManifest(t, root, "example")
	assert.True(t, gjson.GetBytes(data, "enabled").Bool())
	assert.Equal(t, gjson.True, gjson.GetBytes(data, "enabled").Type, "stored as a JSON boolean")
	assert.Equal(t, "2.0.0", gjson.GetBytes(data, "version").String())
	assert.Equal(t, "^1.0", gjson.GetBytes(data, "requires.host").String())
	assert.Contains(t, string(data), "\n  \"id\": \"example\"", "pretty-printed with 2 spaces")
}

func TestSetEnabled_Idempotent(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "example", `{"id":"example"}`)
	reg := New(root)

	_, err := reg.SetEnabled("example", true)
	require.NoError(t, err)
	afterFirst := readManifest(t, root, "example")

	change, err := reg.SetEnabled("example", true)
	require.NoError(t, err)
	assert.False(t, change.Changed)
	assert.Equal(t, afterFirst, readManifest(t, root, "example"), "second call leaves bytes untouched")
}

func TestSetEnabled_AlreadyInStateDoesNotWrite(t *testing.T) {
	root := t.TempDir()
	original := `{"id":"example","enabled":false}`
	writePlugin(t, root, "example", original)

	loader := &countingLoader{inner: manifest.FileLoader{}}
	reg := New(root, WithLoader(loader))

	change, err := reg.SetEnabled("example", false)
	require.NoError(t, err)
	assert.False(t, change.Changed)
	assert.Equal(t, original, string(readManifest(t, root, "example")))

	reg.Discover()
	assert.Equal(t, 1, loader.Calls(), "no write means no invalidation")
}

func TestSetEnabled_ReadsFreshFromDisk(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "example", `{"id":"example","enabled":false}`)
	reg := New(root)
	reg.Discover()

	// External edit after the cache was populated
	writePlugin(t, root, "example", `{"id":"example","enabled":false,"description":"edited"}`)

	_, err := reg.SetEnabled("example", true)
	require.NoError(t, err)

	data := readManifest(t, root, "example")
	assert.Equal(t, "edited", gjson.GetBytes(data, "description").String())
	assert.True(t, gjson.GetBytes(data, "enabled").Bool())
}

func TestSetEnabled_DisableThenEnable(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "example", `{"id":"example","name":"Example","description":"Demo","enabled":true,"provider":"Foo","namespace":"Plugins\\Example"}`)
	reg := New(root)

	before := findEntry(t, reg, "example").Manifest

	_, err := reg.SetEnabled("example", false)
	require.NoError(t, err)
	assert.False(t, findEntry(t, reg, "example").Enabled())

	_, err = reg.SetEnabled("example", true)
	require.NoError(t, err)

	after := findEntry(t, reg, "example").Manifest
	assert.Equal(t, *before, *after, "no other field changed")
}

func TestSetEnabled_Errors(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "broken", `{"id":`)
	writePlugin(t, root, "renamed", `{"id":"original"}`)
	writePlugin(t, root, "gone", `{"id":"gone"}`)
	reg := New(root)

	t.Run("unknown plugin", func(t *testing.T) {
		_, err := reg.SetEnabled("nope", true)
		var nf *NotFoundError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("error entry is rejected", func(t *testing.T) {
		_, err := reg.SetEnabled("broken", true)
		var inv *InvalidPluginError
		assert.True(t, errors.As(err, &inv))
		assert.Equal(t, `{"id":`, string(readManifest(t, root, "broken")))
	})

	t.Run("mismatched directory is tolerated", func(t *testing.T) {
		change, err := reg.SetEnabled("original", true)
		require.NoError(t, err)
		assert.True(t, change.Changed)
		assert.True(t, gjson.GetBytes(readManifest(t, root, "renamed"), "enabled").Bool())
	})

	t.Run("manifest broken since discovery", func(t *testing.T) {
		reg.Discover()
		writePlugin(t, root, "gone", `{"id":"gone",`)
		_, err := reg.SetEnabled("gone", true)
		var pe *manifest.ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, filepath.Join(root, "gone", manifest.FileName), pe.Path)
	})

	t.Run("manifest broken since discovery is not already disabled", func(t *testing.T) {
		writePlugin(t, root, "gone", `{"id":"gone"}`)
		reg.Invalidate()
		reg.Discover()
		writePlugin(t, root, "gone", `{"id":"gone",`)

		change, err := reg.SetEnabled("gone", false)
		assert.Nil(t, change)
		var pe *manifest.ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, filepath.Join(root, "gone", manifest.FileName), pe.Path)
		assert.Equal(t, `{"id":"gone",`, string(readManifest(t, root, "gone")))
	})

	t.Run("manifest removed since discovery", func(t *testing.T) {
		writePlugin(t, root, "gone", `{"id":"gone"}`)
		reg.Invalidate()
		reg.Discover()
		require.NoError(t, os.Remove(filepath.Join(root, "gone", manifest.FileName)))

		_, err := reg.SetEnabled("gone", true)
		var we *WriteError
		require.True(t, errors.As(err, &we))
		assert.True(t, errors.Is(err, errors.ErrWrite))
	})
}

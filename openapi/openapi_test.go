package openapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/manifest"
	"github.com/teranos/plugctl/registry"
)

const blogDoc = `{
  "openapi": "3.0.0",
  "info": {"title": "Blog", "version": "1.0.0"},
  "paths": {
    "/api/posts": {"get": {"summary": "List posts"}},
    "/api/v1.0/feed": {"get": {"summary": "Feed"}}
  },
  "components": {
    "schemas": {"Post": {"type": "object"}},
    "securitySchemes": {"bearer": {"type": "http", "scheme": "bearer"}}
  },
  "tags": [{"name": "posts"}]
}`

const shopDoc = `{
  "openapi": "3.0.0",
  "info": {"title": "Shop", "version": "2.0.0"},
  "paths": {
    "/api/orders": {"post": {"summary": "Create order"}},
    "/api/posts": {"get": {"summary": "Shop posts"}}
  },
  "components": {
    "schemas": {"Order": {"type": "object"}},
    "responses": {"404": {"description": "Not found"}}
  },
  "tags": [{"name": "orders"}, {"name": "checkout"}]
}`

func TestMerge(t *testing.T) {
	merged, err := Merge([]byte(blogDoc), []byte(shopDoc))
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(merged))

	doc := gjson.ParseBytes(merged)
	assert.Equal(t, "Blog", doc.Get("info.title").String(), "top-level fields come from the first document")

	paths := doc.Get("paths").Map()
	assert.Len(t, paths, 3)
	assert.Equal(t, "Shop posts", paths["/api/posts"].Get("get.summary").String(), "later paths replace earlier ones")
	assert.Equal(t, "Feed", paths["/api/v1.0/feed"].Get("get.summary").String())

	schemas := doc.Get("components.schemas").Map()
	assert.Contains(t, schemas, "Post")
	assert.Contains(t, schemas, "Order")
	assert.True(t, doc.Get("components.securitySchemes.bearer").Exists())
	assert.Equal(t, "Not found", doc.Get(`components.responses.404.description`).String())

	var tags []string
	for _, tag := range doc.Get("tags").Array() {
		tags = append(tags, tag.Get("name").String())
	}
	assert.Equal(t, []string{"posts", "orders", "checkout"}, tags)
}

func TestMerge_BaseWithoutSections(t *testing.T) {
	merged, err := Merge([]byte(`{"openapi":"3.0.0"}`), []byte(shopDoc))
	require.NoError(t, err)

	doc := gjson.ParseBytes(merged)
	assert.Len(t, doc.Get("paths").Map(), 2)
	assert.Len(t, doc.Get("tags").Array(), 2)
	assert.True(t, doc.Get("components.schemas.Order").Exists())
}

func TestMerge_Invalid(t *testing.T) {
	_, err := Merge()
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = Merge([]byte(blogDoc), []byte(`[1,2]`))
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestEscapeKey(t *testing.T) {
	assert.Equal(t, `/api/v1\.0/feed`, escapeKey("/api/v1.0/feed"))
	assert.Equal(t, `/a/\*/\?x`, escapeKey("/a/*/?x"))
	assert.Equal(t, "/plain/{id}", escapeKey("/plain/{id}"))
}

func writePlugin(t *testing.T, root, id, doc string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(`{"id":"`+id+`","name":"`+id+` plugin"}`), 0644))
	if doc != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, DocFile), []byte(doc), 0644))
	}
}

func TestGenerate_Merged(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "public", "docs")
	writePlugin(t, root, "blog", blogDoc)
	writePlugin(t, root, "shop", shopDoc)
	writePlugin(t, root, "nodoc", "")

	report, err := NewGenerator(out, nil).Generate(registry.New(root).Discover(), true)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, MergedFile), report.Merged)
	require.Len(t, report.Generated, 2)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "nodoc", report.Skipped[0].ID)
	assert.ErrorIs(t, report.Skipped[0].Err, ErrNoDocument)

	data, err := os.ReadFile(report.Merged)
	require.NoError(t, err)
	assert.Len(t, gjson.GetBytes(data, "paths").Map(), 3)

	assert.NoFileExists(t, filepath.Join(out, "blog.json"), "merge writes only the combined file")
}

func TestGenerate_PerPlugin(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	writePlugin(t, root, "blog", blogDoc)
	writePlugin(t, root, "broken", `{"openapi":`)

	report, err := NewGenerator(out, nil).Generate(registry.New(root).Discover(), false)
	require.NoError(t, err)

	assert.Empty(t, report.Merged)
	require.Len(t, report.Generated, 1)
	assert.Equal(t, "blog", report.Generated[0].ID)
	assert.Equal(t, "blog plugin", report.Generated[0].Name)
	assert.Equal(t, filepath.Join(out, "blog.json"), report.Generated[0].Output)

	data, err := os.ReadFile(filepath.Join(out, "blog.json"))
	require.NoError(t, err)
	assert.Equal(t, "Blog", gjson.GetBytes(data, "info.title").String())

	require.Len(t, report.Skipped, 1)
	assert.True(t, errors.IsInvalidRequestError(report.Skipped[0].Err))
}

func TestGenerate_NothingToDo(t *testing.T) {
	out := filepath.Join(t.TempDir(), "docs")
	report, err := NewGenerator(out, nil).Generate(nil, true)
	require.NoError(t, err)
	assert.Empty(t, report.Generated)
	assert.NoDirExists(t, out, "no output directory without documents")
}

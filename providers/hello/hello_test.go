package hello

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/plugctl/provider"
)

func newTable(t *testing.T, v *viper.Viper) *provider.Table {
	t.Helper()
	l := zaptest.NewLogger(t).Sugar()
	return provider.NewTable("1.0.0", provider.NewServices(l, v), l)
}

func get(t *testing.T, mux *http.ServeMux, path string) map[string]string {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestProvider_DefaultGreeting(t *testing.T) {
	p := New()
	table := newTable(t, nil)
	require.NoError(t, table.Register(p))
	require.NoError(t, table.ActivateProvider(context.Background(), Name))

	mux := http.NewServeMux()
	require.NoError(t, table.MountHTTP(mux))

	body := get(t, mux, "/api/hello")
	assert.Equal(t, DefaultGreeting, body["message"])
	assert.Equal(t, "1.0.0", body["version"])

	require.NoError(t, table.ShutdownAll(context.Background()))
}

func TestProvider_ConfiguredGreeting(t *testing.T) {
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[providers.'Plugins\Hello\HelloServiceProvider']
greeting = "Howdy"
`)))

	table := newTable(t, v)
	require.NoError(t, table.Register(New()))
	require.NoError(t, table.ActivateProvider(context.Background(), Name))

	mux := http.NewServeMux()
	require.NoError(t, table.MountHTTP(mux))
	assert.Equal(t, "Howdy", get(t, mux, "/api/hello")["message"])
}

func TestProvider_SourceRoot(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.MkdirAll(src, 0755))

	p := New()
	table := newTable(t, nil)
	require.NoError(t, table.Register(p))
	require.NoError(t, table.RegisterSourceRoot(Namespace, src))
	require.NoError(t, table.ActivateProvider(context.Background(), Name))

	assert.Equal(t, src, p.SourceDir())
}

func TestProvider_HostVersion(t *testing.T) {
	l := zaptest.NewLogger(t).Sugar()
	table := provider.NewTable("0.9.0", provider.NewServices(l, nil), l)
	assert.Error(t, table.Register(New()), "hello needs host >= 1.0.0")
}

func TestProvider_NotMountedUntilActive(t *testing.T) {
	table := newTable(t, nil)
	require.NoError(t, table.Register(New()))

	mux := http.NewServeMux()
	require.NoError(t, table.MountHTTP(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/hello", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

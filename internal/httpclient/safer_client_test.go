package httpclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	client := New(30*time.Second, Options{})

	require.NotNil(t, client)
	assert.Equal(t, 30*time.Second, client.Timeout)
	assert.Equal(t, 10, client.maxRedirects)
	assert.True(t, client.blockPrivateIP)
	assert.Equal(t, []string{"http", "https"}, client.allowedSchemes)
}

func TestValidateURL(t *testing.T) {
	client := New(30*time.Second, Options{})

	tests := []struct {
		name        string
		url         string
		errContains string
	}{
		{name: "Valid HTTPS URL", url: "https://example.com/plugin.tar.gz"},
		{name: "Valid HTTP URL", url: "http://example.com"},

		{name: "File scheme blocked", url: "file:///etc/passwd", errContains: "scheme"},
		{name: "FTP scheme blocked", url: "ftp://example.com", errContains: "scheme"},

		{name: "Localhost blocked", url: "http://localhost/admin", errContains: "localhost"},
		{name: "Localhost subdomain blocked", url: "http://admin.localhost/", errContains: "localhost"},
		{name: "127.0.0.1 blocked", url: "http://127.0.0.1/", errContains: "private IP"},
		{name: "10.x private network blocked", url: "http://10.0.0.1/", errContains: "private IP"},
		{name: "192.168.x private network blocked", url: "http://192.168.1.1/", errContains: "private IP"},
		{name: "172.16.x private network blocked", url: "http://172.16.0.1/", errContains: "private IP"},
		{name: "Link-local metadata blocked", url: "http://169.254.169.254/metadata", errContains: "private IP"},
		{name: "IPv6 loopback blocked", url: "http://[::1]/", errContains: "private IP"},

		{name: "Credentials in URL blocked", url: "http://example.com@127.0.0.1/", errContains: "credentials"},
		{name: "Missing hostname", url: "http:///path", errContains: "hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ValidateURL(tt.url)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidateURL_AllowPrivate(t *testing.T) {
	client := New(time.Second, Options{AllowPrivate: true})

	_, err := client.ValidateURL("http://127.0.0.1:8080/plugin.zip")
	assert.NoError(t, err)

	_, err = client.ValidateURL("file:///etc/passwd")
	assert.Error(t, err, "scheme checks still apply")
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.1.2.3", true},
		{"172.31.255.255", true},
		{"172.32.0.1", false},
		{"192.168.0.1", true},
		{"127.0.0.1", true},
		{"0.0.0.0", true},
		{"224.0.0.1", true},
		{"8.8.8.8", false},
		{"::1", true},
		{"fe80::1", true},
		{"fd00::1", true},
		{"2001:db8::1", true},
		{"2606:4700::1111", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.private, isPrivateIP(net.ParseIP(tt.ip)))
		})
	}
}

func TestTransport_BlocksLoopbackServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := New(time.Second, Options{}).Get(server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private IP")

	resp, err := New(time.Second, Options{AllowPrivate: true}).Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRedirectLimit(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/again", http.StatusFound)
	}))
	defer server.Close()

	_, err := New(time.Second, Options{AllowPrivate: true, MaxRedirects: 2}).Get(server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 2 redirects")
}

func TestTransport_UserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := New(time.Second, Options{AllowPrivate: true, UserAgent: "plugctl/test"})

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "plugctl/test", got)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "custom", got)
}

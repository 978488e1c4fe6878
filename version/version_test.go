package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestString(t *testing.T) {
	info := Info{Version: "dev", CommitHash: "abc123", BuildTime: "now"}
	assert.Equal(t, "plugctl dev (commit abc123, built now)", info.String())

	info.Version = "v1.2.0"
	assert.True(t, strings.HasPrefix(info.String(), "plugctl v1.2.0 "))
}

func TestUserAgent(t *testing.T) {
	info := Info{Version: "v1.2.0", Platform: "linux/amd64"}
	assert.Equal(t, "plugctl/v1.2.0 (linux/amd64)", info.UserAgent())
}

package tool

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildControlURL(t *testing.T) {
	raw := BuildControlURL("192.168.1.50", 8001, "MacVolumeRemote", "")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "ws", u.Scheme)
	assert.Equal(t, "192.168.1.50:8001", u.Host)
	assert.Equal(t, "/api/v2/channels/samsung.remote.control", u.Path)
	assert.Equal(t, "TWFjVm9sdW1lUmVtb3Rl", u.Query().Get("name"))
	assert.False(t, u.Query().Has("token"))
}

func TestBuildControlURLWithToken(t *testing.T) {
	raw := BuildControlURL("10.0.0.2", 0, "x", "12345678")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2:8001", u.Host)
	assert.Equal(t, "12345678", u.Query().Get("token"))
}

func TestBuildStatusURL(t *testing.T) {
	assert.Equal(t, "http://10.0.0.2:8001/api/v2/", BuildStatusURL("10.0.0.2"))
}

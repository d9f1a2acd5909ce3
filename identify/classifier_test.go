package identify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/types"
)

func newTestClassifier(statusURL string) *Classifier {
	cfg := tool.DefaultConfig()
	cfg.DescriptorTimeoutMs = 500
	cfg.StatusTimeoutMs = 300
	c := NewClassifier(cfg)
	c.StatusURL = func(string) string { return statusURL }
	return c
}

func TestClassifyAllSignals(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/smp_2_", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tool.DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(samsungDescriptor))
	})
	mux.HandleFunc("/api/v2/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"device":{"name":"Living Room","modelName":"QN90"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClassifier(srv.URL + "/api/v2/")
	signals := c.Classify(context.Background(), types.NormalizedReply{
		SourceAddress: "127.0.0.1",
		Server:        "SHP, UPnP/1.0, Samsung UPnP SDK/1.0",
		Location:      srv.URL + "/smp_2_",
	})
	assert.Equal(t, types.IdentitySignals{
		IsVendorMatchFromDescriptor: true,
		DescriptorInfo:              "Samsung Electronics / QN90",
		StatusEndpointReachable:     true,
		StatusInfo:                  "Living Room / QN90",
		ServerHeaderMentionsVendor:  true,
	}, signals)
}

func TestClassifyNoLocationStillProbesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClassifier(srv.URL)
	signals := c.Classify(context.Background(), types.NormalizedReply{SourceAddress: "127.0.0.1"})
	assert.False(t, signals.IsVendorMatchFromDescriptor)
	assert.True(t, signals.StatusEndpointReachable)
	assert.Equal(t, "api/v2 responded", signals.StatusInfo)
}

func TestClassifyFailuresAreSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	closedURL := srv.URL
	srv.Close()

	c := newTestClassifier(closedURL + "/api/v2/")
	signals := c.Classify(context.Background(), types.NormalizedReply{
		SourceAddress: "127.0.0.1",
		Server:        "Linux/4.1 UPnP/1.0 GUPnP/1.0",
		Location:      closedURL + "/desc.xml",
	})
	assert.Equal(t, types.IdentitySignals{}, signals)
}

func TestProbeStatusNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"device":{"name":"x"}}`))
	}))
	defer srv.Close()

	res := newTestClassifier(srv.URL).ProbeStatus(context.Background(), "127.0.0.1")
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, types.ErrTransportUnavailable)
}

func TestProbeStatusTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	res := newTestClassifier(srv.URL).ProbeStatus(context.Background(), "127.0.0.1")
	assert.Less(t, time.Since(start), 1500*time.Millisecond)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, types.ErrTimeout)
}

func TestProbeDescriptorMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<root><manufacturer>Samsung`))
	}))
	defer srv.Close()

	res := newTestClassifier(srv.URL).ProbeDescriptor(context.Background(), srv.URL)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, types.ErrMalformedReply)
	assert.False(t, res.OK)
}

func TestProbeDescriptorOtherVendor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<root><device><manufacturer>Sonos, Inc.</manufacturer><modelName>One</modelName></device></root>`))
	}))
	defer srv.Close()

	res := newTestClassifier(srv.URL).ProbeDescriptor(context.Background(), srv.URL)
	require.NoError(t, res.Err)
	assert.False(t, res.OK)
	assert.Equal(t, "Sonos, Inc. / One", res.Info)
}

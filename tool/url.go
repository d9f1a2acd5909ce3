package tool

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"strconv"
)

const (
	// StatusPort is where the device info endpoint and the default control channel live.
	StatusPort         = 8001
	statusPath         = "/api/v2/"
	controlChannelPath = "/api/v2/channels/samsung.remote.control"
)

// EncodeAppName base64-encodes the app name shown on the TV.
func EncodeAppName(name string) string {
	return base64.StdEncoding.EncodeToString([]byte(name))
}

// BuildStatusURL builds http://<address>:8001/api/v2/.
func BuildStatusURL(address string) string {
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(address, strconv.Itoa(StatusPort)), statusPath)
}

// BuildControlURL builds the control channel websocket URL.
// The token parameter is only added when non-empty.
func BuildControlURL(address string, port int, appName, token string) string {
	if port <= 0 {
		port = StatusPort
	}
	params := url.Values{}
	params.Set("name", EncodeAppName(appName))
	if token != "" {
		params.Set("token", token)
	}
	u := url.URL{
		Scheme:   "ws",
		Host:     net.JoinHostPort(address, strconv.Itoa(port)),
		Path:     controlChannelPath,
		RawQuery: params.Encode(),
	}
	return u.String()
}

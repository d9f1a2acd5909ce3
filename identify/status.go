package identify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/types"
)

// statusFallbackInfo is reported when the endpoint answers without a name or model.
const statusFallbackInfo = "api/v2 responded"

// ParseStatus decodes a device info body and returns "name / model".
func ParseStatus(body []byte) (string, error) {
	var v any
	if err := sonic.Unmarshal([]byte(strings.ToValidUTF8(string(body), "\uFFFD")), &v); err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrMalformedReply, err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: status body is %T, not an object", types.ErrMalformedReply, v)
	}
	info := joinNonEmpty(" / ", firstString(doc, deviceNamePaths...), firstString(doc, deviceModelPaths...))
	if info == "" {
		info = statusFallbackInfo
	}
	return info, nil
}

// ProbeStatus queries the device info endpoint on port 8001.
// OK means the endpoint answered with a JSON object.
func (c *Classifier) ProbeStatus(ctx context.Context, address string) types.ProbeResult {
	url := c.statusURL(address)
	body, err := tool.HTTPGet(ctx, c.StatusClient, url, c.UserAgent)
	if err != nil {
		tool.DefaultLogger.Debugf("Status probe %s failed: %v", url, err)
		return types.ProbeResult{Err: classifyTransportErr(err)}
	}
	info, err := ParseStatus(body)
	if err != nil {
		tool.DefaultLogger.Debugf("Status probe %s returned unusable body: %v", url, err)
		return types.ProbeResult{Err: err}
	}
	return types.ProbeResult{OK: true, Info: info}
}

package identify

import (
	"context"
	"net/http"

	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/types"
)

// Classifier derives identification signals for a discovered device.
type Classifier struct {
	Vendor           string
	UserAgent        string
	DescriptorClient *http.Client
	StatusClient     *http.Client
	// StatusURL maps an address to its device info URL; nil means port 8001.
	StatusURL func(address string) string
}

func NewClassifier(cfg types.AppConfig) *Classifier {
	return &Classifier{
		Vendor:           cfg.Vendor,
		UserAgent:        cfg.UserAgent,
		DescriptorClient: tool.NewHTTPClient(tool.Millis(cfg.DescriptorTimeoutMs)),
		StatusClient:     tool.NewHTTPClient(tool.Millis(cfg.StatusTimeoutMs)),
	}
}

func (c *Classifier) statusURL(address string) string {
	if c.StatusURL != nil {
		return c.StatusURL(address)
	}
	return tool.BuildStatusURL(address)
}

// Signals combines probe results with the reply's SERVER header.
func (c *Classifier) Signals(reply types.NormalizedReply, descriptor, status types.ProbeResult) types.IdentitySignals {
	return types.IdentitySignals{
		IsVendorMatchFromDescriptor: descriptor.OK,
		DescriptorInfo:              descriptor.Info,
		StatusEndpointReachable:     status.OK,
		StatusInfo:                  status.Info,
		ServerHeaderMentionsVendor:  types.ContainsFold(reply.Server, c.Vendor),
	}
}

// Classify runs both probes for one reply. Neither probe depends on the other
// and no failure is returned; a silent device simply gets no signal.
func (c *Classifier) Classify(ctx context.Context, reply types.NormalizedReply) types.IdentitySignals {
	descriptor := c.ProbeDescriptor(ctx, reply.Location)
	status := c.ProbeStatus(ctx, reply.SourceAddress)
	return c.Signals(reply, descriptor, status)
}

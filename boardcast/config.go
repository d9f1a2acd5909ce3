package boardcast

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/types"
)

// refer to UPnP Device Architecture 1.1, section 1.3.2 (M-SEARCH)
const (
	defaultMultcastAddress = "239.255.255.250"
	defaultMultcastPort    = 1900
	// defaultReadTimeout bounds a single read so the collection loop rechecks the window often.
	defaultReadTimeout = 250 * time.Millisecond
	// multicastTTL keeps probes within a couple of router hops.
	multicastTTL = 2
	maxDatagram  = 65535
)

// groupAddress returns host:port of the discovery group, falling back to the
// SSDP defaults for empty values.
func groupAddress(address string, port int) string {
	if address == "" {
		address = defaultMultcastAddress
	}
	if port <= 0 {
		port = defaultMultcastPort
	}
	return net.JoinHostPort(address, strconv.Itoa(port))
}

// lookupInterface resolves the interface probes are sent from.
// An empty name or "*" means the system default route.
func lookupInterface(name string) (*net.Interface, error) {
	if name == "" || name == "*" {
		return nil, nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get network interface %s: %w", name, err)
	}
	if tool.RejectUnsupportNetworkInterface(iface) {
		return nil, fmt.Errorf("network interface %s is not supported", name)
	}
	return iface, nil
}

// NewProber builds a prober from the application config.
func NewProber(cfg types.AppConfig) *Prober {
	return &Prober{
		GroupAddress: groupAddress(cfg.MulticastAddress, cfg.MulticastPort),
		ServiceTypes: cfg.ServiceTypes,
		MX:           cfg.MX,
		ListenWindow: tool.Millis(cfg.ListenWindowMs),
		ReadTimeout:  defaultReadTimeout,
		Interface:    cfg.NetworkInterface,
	}
}

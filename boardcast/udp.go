package boardcast

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/types"
)

// Prober sends M-SEARCH requests and collects the replies for a bounded window.
type Prober struct {
	GroupAddress string
	ServiceTypes []string
	MX           int
	ListenWindow time.Duration
	ReadTimeout  time.Duration
	Interface    string

	// listen opens the probe socket; nil means an ephemeral udp4 socket.
	listen func() (net.PacketConn, error)
}

func listenUDP4() (net.PacketConn, error) {
	c, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// BuildSearchRequest renders one M-SEARCH datagram.
func BuildSearchRequest(group string, req types.ProbeRequest, mx int) []byte {
	lines := []string{
		"M-SEARCH * HTTP/1.1",
		"HOST: " + group,
		`MAN: "ssdp:discover"`,
		fmt.Sprintf("MX: %d", mx),
		"ST: " + req.ServiceType,
		"",
		"",
	}
	return []byte(strings.Join(lines, "\r\n"))
}

// Probe broadcasts one request per service type and returns every datagram
// received before the listen window closes, in arrival order.
// Only failing to open the socket is reported as an error.
func (p *Prober) Probe(ctx context.Context) ([]types.RawReply, error) {
	group, err := net.ResolveUDPAddr("udp4", p.GroupAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve UDP address %s: %v", types.ErrTransportUnavailable, p.GroupAddress, err)
	}
	listen := p.listen
	if listen == nil {
		listen = listenUDP4
	}
	c, err := listen()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open UDP socket: %v", types.ErrTransportUnavailable, err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			tool.DefaultLogger.Debugf("Failed to close discovery UDP socket: %v", err)
		}
	}()
	p.configureMulticast(c)

	sent := 0
	for _, st := range p.ServiceTypes {
		payload := BuildSearchRequest(p.GroupAddress, types.ProbeRequest{ServiceType: st}, p.MX)
		if _, err := c.WriteTo(payload, group); err != nil {
			if tool.IsAddrNotAvailableError(err) {
				tool.DefaultLogger.Warnf("IP address not available, please check your network environment: %v", err)
			} else {
				tool.DefaultLogger.Debugf("Failed to send M-SEARCH for %s: %v", st, err)
			}
			continue
		}
		sent++
	}
	tool.DefaultLogger.Debugf("Sent %d/%d M-SEARCH requests to %s", sent, len(p.ServiceTypes), p.GroupAddress)

	return p.collect(ctx, c), nil
}

func (p *Prober) configureMulticast(c net.PacketConn) {
	if _, ok := c.(*net.UDPConn); !ok {
		return
	}
	pc := ipv4.NewPacketConn(c)
	if err := pc.SetMulticastTTL(multicastTTL); err != nil {
		tool.DefaultLogger.Debugf("Failed to set multicast TTL: %v", err)
	}
	iface, err := lookupInterface(p.Interface)
	if err != nil {
		tool.DefaultLogger.Warnf("%v, using system default", err)
		return
	}
	if iface != nil {
		if err := pc.SetMulticastInterface(iface); err != nil {
			tool.DefaultLogger.Warnf("Failed to bind multicast to interface %s: %v", iface.Name, err)
		}
	}
}

// collect reads until the window closes. A read timeout only rechecks the
// deadline; any other socket error ends collection with what was gathered.
func (p *Prober) collect(ctx context.Context, c net.PacketConn) []types.RawReply {
	readTimeout := p.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	deadline := time.Now().Add(p.ListenWindow)
	buf := make([]byte, maxDatagram)
	var replies []types.RawReply

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}
		readDeadline := time.Now().Add(readTimeout)
		if readDeadline.After(deadline) {
			readDeadline = deadline
		}
		if err := c.SetReadDeadline(readDeadline); err != nil {
			tool.DefaultLogger.Debugf("Failed to set read deadline: %v", err)
			break
		}
		n, addr, err := c.ReadFrom(buf)
		if err != nil {
			if tool.IsTimeout(err) {
				continue
			}
			tool.DefaultLogger.Debugf("Error reading discovery replies, stopping early: %v", err)
			break
		}
		tool.DefaultLogger.Debugf("Received %d bytes from %s", n, addr.String())
		replies = append(replies, types.RawReply{
			SourceAddress: sourceIP(addr),
			Payload:       append([]byte(nil), buf[:n]...),
		})
	}
	return replies
}

func sourceIP(addr net.Addr) string {
	if ua, ok := addr.(*net.UDPAddr); ok {
		return ua.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// Discover runs one probe round and returns the deduplicated replies.
func (p *Prober) Discover(ctx context.Context) ([]types.NormalizedReply, error) {
	raws, err := p.Probe(ctx)
	if err != nil {
		return nil, err
	}
	replies := NormalizeReplies(raws)
	tool.DefaultLogger.Debugf("Discovery collected %d datagrams, %d unique replies", len(raws), len(replies))
	return replies, nil
}

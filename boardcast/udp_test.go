package boardcast

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/tvremote-go/types"
)

// fakeResponder stands in for the multicast group on loopback and answers
// every M-SEARCH like a device would.
type fakeResponder struct {
	conn *net.UDPConn
	mu   sync.Mutex
	sts  []string
}

func startFakeResponder(t *testing.T, reply func(st string) []string) *fakeResponder {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	r := &fakeResponder{conn: conn}
	go func() {
		buf := make([]byte, 2048)
		for {
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			headers := ParseReply(buf[:n])
			st := headers["ST"]
			r.mu.Lock()
			r.sts = append(r.sts, st)
			r.mu.Unlock()
			for _, payload := range reply(st) {
				_, _ = conn.WriteToUDP([]byte(payload), from)
			}
		}
	}()
	t.Cleanup(func() { _ = conn.Close() })
	return r
}

func (r *fakeResponder) received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sts...)
}

func TestBuildSearchRequest(t *testing.T) {
	got := string(BuildSearchRequest("239.255.255.250:1900", types.ProbeRequest{ServiceType: "upnp:rootdevice"}, 1))
	want := "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"MX: 1\r\n" +
		"ST: upnp:rootdevice\r\n" +
		"\r\n"
	assert.Equal(t, want, got)
}

func TestProberDiscover(t *testing.T) {
	responder := startFakeResponder(t, func(st string) []string {
		reply := "HTTP/1.1 200 OK\r\nST: " + st + "\r\nUSN: uuid:tv::" + st + "\r\nSERVER: Samsung\r\n\r\n"
		// every reply is sent twice, as devices commonly do
		return []string{reply, reply}
	})

	prober := &Prober{
		GroupAddress: responder.conn.LocalAddr().String(),
		ServiceTypes: []string{"upnp:rootdevice", "ssdp:all"},
		MX:           1,
		ListenWindow: 400 * time.Millisecond,
		ReadTimeout:  50 * time.Millisecond,
	}

	start := time.Now()
	replies, err := prober.Discover(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, replies, 2)
	assert.Equal(t, "127.0.0.1", replies[0].SourceAddress)
	assert.Equal(t, "upnp:rootdevice", replies[0].ServiceType)
	assert.Equal(t, "ssdp:all", replies[1].ServiceType)
	assert.Equal(t, []string{"upnp:rootdevice", "ssdp:all"}, responder.received())
}

func TestProberNoReplies(t *testing.T) {
	responder := startFakeResponder(t, func(string) []string { return nil })
	prober := &Prober{
		GroupAddress: responder.conn.LocalAddr().String(),
		ServiceTypes: []string{"ssdp:all"},
		MX:           1,
		ListenWindow: 200 * time.Millisecond,
		ReadTimeout:  50 * time.Millisecond,
	}
	start := time.Now()
	raws, err := prober.Probe(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raws)
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestProberCancelledContext(t *testing.T) {
	responder := startFakeResponder(t, func(string) []string { return nil })
	prober := &Prober{
		GroupAddress: responder.conn.LocalAddr().String(),
		ServiceTypes: []string{"ssdp:all"},
		ListenWindow: 5 * time.Second,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	raws, err := prober.Probe(ctx)
	require.NoError(t, err)
	assert.Empty(t, raws)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProberBadGroupAddress(t *testing.T) {
	prober := &Prober{GroupAddress: "not-an-address", ListenWindow: time.Millisecond}
	_, err := prober.Probe(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTransportUnavailable)
	assert.True(t, strings.Contains(err.Error(), "not-an-address"))
}

// scriptedConn replays canned datagrams and then a configurable read error.
type scriptedConn struct {
	mu       sync.Mutex
	failST   string
	written  []string
	replies  [][]byte
	readErr  error
	closed   int
	deadline time.Time
}

func (c *scriptedConn) WriteTo(b []byte, _ net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := ParseReply(b)["ST"]
	if st == c.failST {
		return 0, errors.New("sendto: network is unreachable")
	}
	c.written = append(c.written, st)
	return len(b), nil
}

func (c *scriptedConn) ReadFrom(b []byte) (int, net.Addr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.replies) > 0 {
		n := copy(b, c.replies[0])
		c.replies = c.replies[1:]
		return n, &net.UDPAddr{IP: net.IPv4(192, 168, 1, 20), Port: 1900}, nil
	}
	if c.readErr != nil {
		return 0, nil, c.readErr
	}
	wait := time.Until(c.deadline)
	c.mu.Unlock()
	time.Sleep(wait)
	c.mu.Lock()
	return 0, nil, timeoutError{}
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *scriptedConn) LocalAddr() net.Addr { return &net.UDPAddr{IP: net.IPv4zero} }

func (c *scriptedConn) SetDeadline(t time.Time) error { return c.SetReadDeadline(t) }

func (c *scriptedConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *scriptedConn) SetWriteDeadline(time.Time) error { return nil }

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func scriptedProber(conn *scriptedConn, window time.Duration) *Prober {
	return &Prober{
		GroupAddress: "239.255.255.250:1900",
		ServiceTypes: []string{"urn:samsung.com:service:MultiScreenService:1", "upnp:rootdevice", "ssdp:all"},
		MX:           1,
		ListenWindow: window,
		ReadTimeout:  20 * time.Millisecond,
		listen:       func() (net.PacketConn, error) { return conn, nil },
	}
}

func TestProberSkipsFailedSend(t *testing.T) {
	conn := &scriptedConn{
		failST:  "upnp:rootdevice",
		replies: [][]byte{[]byte("HTTP/1.1 200 OK\r\nST: ssdp:all\r\nUSN: uuid:tv\r\n\r\n")},
	}
	raws, err := scriptedProber(conn, 100*time.Millisecond).Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:samsung.com:service:MultiScreenService:1", "ssdp:all"}, conn.written)
	require.Len(t, raws, 1)
	assert.Equal(t, "192.168.1.20", raws[0].SourceAddress)
	assert.Equal(t, 1, conn.closed)
}

func TestProberReadErrorKeepsPartialReplies(t *testing.T) {
	conn := &scriptedConn{
		replies: [][]byte{
			[]byte("HTTP/1.1 200 OK\r\nST: upnp:rootdevice\r\nUSN: uuid:a\r\n\r\n"),
			[]byte("HTTP/1.1 200 OK\r\nST: ssdp:all\r\nUSN: uuid:a\r\n\r\n"),
		},
		readErr: net.ErrClosed,
	}
	start := time.Now()
	raws, err := scriptedProber(conn, 5*time.Second).Probe(context.Background())
	require.NoError(t, err)
	assert.Len(t, raws, 2)
	assert.Less(t, time.Since(start), time.Second, "a hard read error ends collection early")
	assert.Equal(t, 1, conn.closed)
}

func TestProberClosesSocketOnCancel(t *testing.T) {
	conn := &scriptedConn{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	raws, err := scriptedProber(conn, time.Second).Probe(ctx)
	require.NoError(t, err)
	assert.Empty(t, raws)
	assert.Equal(t, 1, conn.closed)
}

func TestProberListenFailure(t *testing.T) {
	p := scriptedProber(nil, time.Millisecond)
	p.listen = func() (net.PacketConn, error) { return nil, errors.New("socket: too many open files") }
	_, err := p.Probe(context.Background())
	assert.ErrorIs(t, err, types.ErrTransportUnavailable)
}

func TestNewProberGroupAddress(t *testing.T) {
	custom := NewProber(types.AppConfig{MulticastAddress: "239.255.255.251", MulticastPort: 1901})
	assert.Equal(t, "239.255.255.251:1901", custom.GroupAddress)

	// a later config with no override gets the defaults back
	def := NewProber(types.AppConfig{})
	assert.Equal(t, "239.255.255.250:1900", def.GroupAddress)
}

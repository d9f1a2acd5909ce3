package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moyoez/tvremote-go/tool"
	"github.com/moyoez/tvremote-go/types"
)

const (
	DefaultConnectTimeout = 3 * time.Second
	DefaultSettleDelay    = 150 * time.Millisecond
	defaultWriteTimeout   = 3 * time.Second
	pingHintTimeout       = time.Second
)

// SessionState is the lifecycle of one control channel.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateConnected
	StateSending
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSending:
		return "sending"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// Conn is the part of a websocket connection the sender uses.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens control channels.
type Dialer interface {
	DialContext(ctx context.Context, url string, header http.Header) (Conn, error)
}

type wsDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer returns a Dialer backed by gorilla/websocket.
func NewWebsocketDialer(handshakeTimeout time.Duration) Dialer {
	return wsDialer{dialer: &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}}
}

func (w wsDialer) DialContext(ctx context.Context, url string, header http.Header) (Conn, error) {
	conn, resp, err := w.dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		if cerr := resp.Body.Close(); cerr != nil {
			tool.DefaultLogger.Debugf("Failed to close handshake response body: %v", cerr)
		}
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w (handshake status %s)", err, resp.Status)
		}
		return nil, err
	}
	return conn, nil
}

// Sender delivers key commands over the control channel.
type Sender struct {
	Dialer         Dialer
	Port           int
	AppName        string
	Token          string
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	SettleDelay    time.Duration
	// PingHint runs an ICMP check after a failed connect to enrich the error.
	PingHint bool
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
	// OnStateChange, if set, observes every session transition.
	OnStateChange func(SessionState)
}

func NewSender(cfg types.AppConfig) *Sender {
	connectTimeout := tool.Millis(cfg.ConnectTimeoutMs)
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	settle := tool.Millis(cfg.SettleDelayMs)
	if cfg.SettleDelayMs < 0 {
		settle = DefaultSettleDelay
	}
	return &Sender{
		Dialer:         NewWebsocketDialer(connectTimeout),
		Port:           cfg.RemotePort,
		AppName:        cfg.AppName,
		Token:          cfg.Token,
		ConnectTimeout: connectTimeout,
		WriteTimeout:   defaultWriteTimeout,
		SettleDelay:    settle,
		PingHint:       cfg.PingHint,
	}
}

type session struct {
	address string
	state   SessionState
	notify  func(SessionState)
}

func (s *session) transition(next SessionState) {
	tool.DefaultLogger.Debugf("Session %s: %s -> %s", s.address, s.state, next)
	s.state = next
	if s.notify != nil {
		s.notify(next)
	}
}

func (s *Sender) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if s.Sleep != nil {
		s.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Send opens a control channel to address, sends cmd.RepeatCount clicks and
// closes the channel. It returns the number of messages written.
// Connect failures are returned as *types.ConnectError.
func (s *Sender) Send(ctx context.Context, address string, cmd types.KeyCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}
	payload, err := BuildKeyMessage(cmd.Action)
	if err != nil {
		return 0, fmt.Errorf("failed to encode key message: %w", err)
	}

	sess := &session{address: address, state: StateDisconnected, notify: s.OnStateChange}
	url := tool.BuildControlURL(address, s.Port, s.AppName, s.Token)

	sess.transition(StateConnecting)
	conn, err := s.connect(ctx, url)
	if err != nil {
		sess.transition(StateClosed)
		cerr := &types.ConnectError{URL: url, Err: classifyDialErr(err)}
		if s.PingHint {
			cerr.Unreachable = !tool.QuickICMPProbe(address, pingHintTimeout)
		}
		return 0, cerr
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			tool.DefaultLogger.Debugf("Ignoring close error for %s: %v", address, cerr)
		}
		sess.transition(StateClosed)
	}()

	sess.transition(StateConnected)
	s.sleep(s.SettleDelay)

	sess.transition(StateSending)
	sent := 0
	for i := 0; i < cmd.RepeatCount; i++ {
		if s.WriteTimeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(s.WriteTimeout)); err != nil {
				tool.DefaultLogger.Debugf("Failed to set write deadline for %s: %v", address, err)
			}
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return sent, fmt.Errorf("%w: send %d/%d of %s failed: %v",
				types.ErrTransportUnavailable, i+1, cmd.RepeatCount, cmd.Action.Code(), err)
		}
		sent++
		if i < cmd.RepeatCount-1 {
			s.sleep(cmd.InterSendDelay)
		}
	}
	tool.DefaultLogger.Infof("Sent %s x%d to %s", cmd.Action.Code(), sent, address)
	return sent, nil
}

func (s *Sender) connect(ctx context.Context, url string) (Conn, error) {
	timeout := s.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := s.Dialer
	if dialer == nil {
		dialer = NewWebsocketDialer(timeout)
	}
	return dialer.DialContext(dialCtx, url, nil)
}

func classifyDialErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || tool.IsTimeout(err) {
		return fmt.Errorf("%w: %v", types.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", types.ErrTransportUnavailable, err)
}

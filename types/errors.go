package types

import (
	"errors"
	"fmt"
)

var (
	ErrTransportUnavailable = errors.New("transport unavailable")
	ErrTimeout              = errors.New("timed out")
	ErrMalformedReply       = errors.New("malformed reply")
	ErrNoCandidateFound     = errors.New("no devices found")
	ErrNoConfidentCandidate = errors.New("no strongly identified device found")
	ErrInvalidKeyCommand    = errors.New("invalid key command")
)

// ConnectError reports a control channel that could not be opened.
type ConnectError struct {
	URL string
	Err error
	// Unreachable is set when an extra reachability check found no answer from the host.
	Unreachable bool
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("could not connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Hints lists remediation steps for the caller to print.
func (e *ConnectError) Hints() []string {
	hints := make([]string, 0, 4)
	if e.Unreachable {
		hints = append(hints, "The host did not answer a ping; it may be off or on another network.")
	}
	return append(hints,
		"TV must be on and on the same network.",
		"Some models prompt on the TV to allow the connection the first time.",
		"If port 8001 fails, your model might require a different port or secure websocket.",
	)
}

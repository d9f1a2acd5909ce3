package types

import (
	"fmt"
	"strings"
	"time"
)

// KeyAction is a remote-control key supported by the command sender.
type KeyAction int

const (
	KeyUp KeyAction = iota + 1
	KeyDown
	KeyMute
)

var keyCodes = map[KeyAction]string{
	KeyUp:   "KEY_VOLUP",
	KeyDown: "KEY_VOLDOWN",
	KeyMute: "KEY_MUTE",
}

var keyNames = map[KeyAction]string{
	KeyUp:   "up",
	KeyDown: "down",
	KeyMute: "mute",
}

// ParseKeyAction maps a CLI/API action name to a KeyAction.
func ParseKeyAction(name string) (KeyAction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "up":
		return KeyUp, nil
	case "down":
		return KeyDown, nil
	case "mute":
		return KeyMute, nil
	}
	return 0, fmt.Errorf("%w: unknown action %q", ErrInvalidKeyCommand, name)
}

// Code returns the key code sent to the device, e.g. KEY_VOLUP.
func (a KeyAction) Code() string {
	return keyCodes[a]
}

func (a KeyAction) String() string {
	if name, ok := keyNames[a]; ok {
		return name
	}
	return fmt.Sprintf("KeyAction(%d)", int(a))
}

// KeyCommand describes one send operation.
type KeyCommand struct {
	Action         KeyAction
	RepeatCount    int
	InterSendDelay time.Duration
}

// Validate checks the command before any transport is opened.
func (k KeyCommand) Validate() error {
	if _, ok := keyCodes[k.Action]; !ok {
		return fmt.Errorf("%w: unsupported action %d", ErrInvalidKeyCommand, int(k.Action))
	}
	if k.RepeatCount < 1 {
		return fmt.Errorf("%w: repeat count must be >= 1, got %d", ErrInvalidKeyCommand, k.RepeatCount)
	}
	if k.InterSendDelay < 0 {
		return fmt.Errorf("%w: delay must be >= 0, got %v", ErrInvalidKeyCommand, k.InterSendDelay)
	}
	return nil
}

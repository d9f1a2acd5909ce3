package transfer

import (
	"github.com/bytedance/sonic"

	"github.com/moyoez/tvremote-go/types"
)

const (
	remoteControlMethod = "ms.remote.control"
	remoteControlType   = "SendRemoteKey"
)

type remoteControlParams struct {
	Cmd          string `json:"Cmd"`
	DataOfCmd    string `json:"DataOfCmd"`
	Option       string `json:"Option"`
	TypeOfRemote string `json:"TypeOfRemote"`
}

type remoteControlMessage struct {
	Method string              `json:"method"`
	Params remoteControlParams `json:"params"`
}

// BuildKeyMessage encodes a single key click for the control channel.
func BuildKeyMessage(action types.KeyAction) ([]byte, error) {
	return sonic.Marshal(remoteControlMessage{
		Method: remoteControlMethod,
		Params: remoteControlParams{
			Cmd:          "Click",
			DataOfCmd:    action.Code(),
			Option:       "false",
			TypeOfRemote: remoteControlType,
		},
	})
}

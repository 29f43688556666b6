// Package streaming defines the wire protocol spoken by the websocket
// storage backend to a live battle viewer.
package streaming

import (
	"encoding/json"

	"github.com/OCAP2/navalsim/pkg/core"
)

// Message type constants matching the streaming protocol. Event payloads
// reuse the core event type names.
const (
	TypeStartBattle    = "start_battle"
	TypeEndBattle      = "end_battle"
	TypeVesselState    = core.TypeVesselState
	TypeFiredEvent     = core.TypeFired
	TypeHitEvent       = core.TypeHit
	TypeCasualtyEvent  = core.TypeCasualty
	TypeRoleEvent      = core.TypeRole
	TypeMessageEvent   = core.TypeMessage
	TypeActionEvent    = core.TypeAction
	TypeDestroyedEvent = core.TypeDestroyed
	TypeStatus         = core.TypeStatus
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartBattlePayload carries the battle header.
type StartBattlePayload struct {
	Battle *core.Battle `json:"battle"`
}

// EndBattlePayload closes a battle stream.
type EndBattlePayload struct {
	BattleID uint   `json:"battleId"`
	EndTick  uint64 `json:"endTick"`
}

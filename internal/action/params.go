package action

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/navalsim/pkg/core"
)

// SetSpeed orders a new commanded speed.
type SetSpeed struct {
	Knots float64 `json:"knots"`
}

// SetHeading orders a new heading.
type SetHeading struct {
	Degrees float64 `json:"degrees"`
}

// Fire is the payload of fire_guns and launch_torpedoes. Without Mount the
// first mount able to engage is used.
type Fire struct {
	TargetID string `json:"target_id"`
	Mount    *int   `json:"mount,omitempty"`
}

// RoleDirective is the payload of reassign_role and multiplex_role.
type RoleDirective struct {
	Role    core.Role `json:"role"`
	AgentID string    `json:"agent_id"`
}

// Summon calls a division crew member to the bridge.
type Summon struct {
	AgentID string `json:"agent_id"`
}

// Report appends free text to a channel.
type Report struct {
	Text    string `json:"text"`
	Channel string `json:"channel,omitempty"` // bridge (default) or global
}

// Report channels.
const (
	ReportBridge = "bridge"
	ReportGlobal = "global"
)

// Decode validates the action parameters against the schema of its kind
// and unmarshals them into T.
func Decode[T any](a Action) (T, error) {
	var out T
	if err := Validate(a); err != nil {
		return out, err
	}
	if len(a.Params) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(a.Params, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", core.ErrInvalidActionParameters, a.Kind, err)
	}
	return out, nil
}

// New builds an action with marshalled parameters.
func New(vessel string, role core.Role, kind Kind, producedBy string, params any) (Action, error) {
	a := Action{Vessel: vessel, Role: role, Kind: kind, ProducedBy: producedBy}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Action{}, fmt.Errorf("marshal %s params: %w", kind, err)
		}
		a.Params = raw
	}
	return a, nil
}

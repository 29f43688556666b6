// Package action defines the structured actions crew agents emit and the
// rules for which role may emit which kind.
package action

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/OCAP2/navalsim/pkg/core"
)

// Kind names a structured action.
type Kind string

const (
	KindSetSpeed        Kind = "set_speed"
	KindSetHeading      Kind = "set_heading"
	KindFireGuns        Kind = "fire_guns"
	KindLaunchTorpedoes Kind = "launch_torpedoes"
	KindReassignRole    Kind = "reassign_role"
	KindMultiplexRole   Kind = "multiplex_role"
	KindSummon          Kind = "summon"
	KindAbandonShip     Kind = "abandon_ship"
	KindReport          Kind = "report"
)

// Kinds lists every action kind.
var Kinds = []Kind{
	KindSetSpeed,
	KindSetHeading,
	KindFireGuns,
	KindLaunchTorpedoes,
	KindReassignRole,
	KindMultiplexRole,
	KindSummon,
	KindAbandonShip,
	KindReport,
}

var permitted = map[core.Role][]Kind{
	core.RoleCommander:          {KindReassignRole, KindMultiplexRole, KindSummon, KindAbandonShip, KindReport},
	core.RoleWeaponsOfficer:     {KindFireGuns, KindLaunchTorpedoes, KindReport},
	core.RoleHelmOfficer:        {KindSetSpeed, KindSetHeading, KindReport},
	core.RoleEngineeringOfficer: {KindSetSpeed, KindReport},
}

// ParseKind converts a string into a known Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown action kind %q", core.ErrInvalidActionParameters, s)
}

// ModuleAffecting reports whether the kind drives a vessel module.
func (k Kind) ModuleAffecting() bool {
	switch k {
	case KindSetSpeed, KindSetHeading, KindFireGuns, KindLaunchTorpedoes:
		return true
	}
	return false
}

// Permitted reports whether a role may emit the kind.
func Permitted(role core.Role, k Kind) bool {
	for _, allowed := range permitted[role] {
		if allowed == k {
			return true
		}
	}
	return false
}

// KindsFor returns the kinds a role may emit.
func KindsFor(role core.Role) []Kind {
	return append([]Kind(nil), permitted[role]...)
}

// Action is a structured command produced by a crew agent on behalf of the
// role it held when it started interpreting.
type Action struct {
	Vessel     string          `json:"vessel"`
	Role       core.Role       `json:"role"`
	Kind       Kind            `json:"kind"`
	Params     json.RawMessage `json:"params,omitempty"`
	ProducedBy string          `json:"produced_by"`
	IssuedAt   time.Time       `json:"issued_at"`
	// Seq is assigned by the dispatcher on submission.
	Seq uint64 `json:"seq"`
}

// Result is the outcome of draining one action.
type Result struct {
	Action   Action `json:"action"`
	Tick     uint64 `json:"tick"`
	Accepted bool   `json:"accepted"`
	Err      error  `json:"-"`
}

// Code returns the stable report code of the result.
func (r Result) Code() string {
	return core.Code(r.Err)
}

// Event converts the result into a recordable event.
func (r Result) Event(stamp core.Stamp) core.ActionEvent {
	ev := core.ActionEvent{
		Stamp:    stamp,
		VesselID: r.Action.Vessel,
		Role:     r.Action.Role,
		Kind:     string(r.Action.Kind),
		AgentID:  r.Action.ProducedBy,
		Seq:      r.Action.Seq,
		Accepted: r.Accepted,
		Code:     r.Code(),
		Params:   r.Action.Params,
	}
	if r.Err != nil {
		ev.Error = r.Err.Error()
	}
	return ev
}

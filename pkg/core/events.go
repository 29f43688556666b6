// pkg/core/events.go
package core

import (
	"encoding/json"
	"time"
)

// Event type names. They double as the streaming envelope type.
const (
	TypeVesselState = "vessel_state"
	TypeFired       = "fired_event"
	TypeHit         = "hit_event"
	TypeCasualty    = "casualty_event"
	TypeRole        = "role_event"
	TypeMessage     = "message_event"
	TypeAction      = "action_event"
	TypeDestroyed   = "destroyed_event"
	TypeStatus      = "status"
)

// Event is anything the world publishes for recording or streaming.
type Event interface {
	EventType() string
}

// Stamp identifies when an event happened in both clocks.
type Stamp struct {
	Tick     uint64    `json:"tick"`
	GameTime float64   `json:"game_time"` // seconds since battle start
	Time     time.Time `json:"time"`
}

// VesselState is a per-tick sample of a vessel.
type VesselState struct {
	Stamp
	VesselID       string   `json:"vessel_id"`
	Name           string   `json:"name"`
	Side           string   `json:"side"`
	Position       Position `json:"position"`
	Heading        float64  `json:"heading"`
	Speed          float64  `json:"speed"`
	CommandedSpeed float64  `json:"commanded_speed"`
	Hull           int      `json:"hull"`
	Destroyed      bool     `json:"destroyed"`
}

// FiredEvent is emitted when a weapon mount releases a projectile.
type FiredEvent struct {
	Stamp
	ProjectileID string   `json:"projectile_id"`
	VesselID     string   `json:"vessel_id"`
	TargetID     string   `json:"target_id"`
	Mount        int      `json:"mount"`
	Weapon       string   `json:"weapon"`
	Origin       Position `json:"origin"`
	Aim          Position `json:"aim"`
	Heading      float64  `json:"heading"`
	Range        float64  `json:"range"`
}

// HitEvent is emitted when a projectile resolves, hit or miss.
type HitEvent struct {
	Stamp
	ProjectileID   string   `json:"projectile_id"`
	ShooterID      string   `json:"shooter_id"`
	VictimID       string   `json:"victim_id,omitempty"`
	Position       Position `json:"position"`
	Location       string   `json:"location,omitempty"`
	Damage         int      `json:"damage"`
	HullAfter      int      `json:"hull_after"`
	Module         string   `json:"module,omitempty"`
	ModuleDisabled bool     `json:"module_disabled"`
	Miss           bool     `json:"miss"`
}

// CasualtyEvent is emitted when a crew member is killed in action.
type CasualtyEvent struct {
	Stamp
	VesselID string  `json:"vessel_id"`
	AgentID  string  `json:"agent_id"`
	Name     string  `json:"name"`
	Station  Station `json:"station"`
	Roles    []Role  `json:"roles,omitempty"`
}

// Role change kinds.
const (
	RoleVacated     = "vacated"
	RoleAssigned    = "assigned"
	RoleSpawned     = "spawned"
	RoleMultiplexed = "multiplexed"
)

// RoleEvent is emitted whenever authority over a role changes.
type RoleEvent struct {
	Stamp
	VesselID string `json:"vessel_id"`
	Role     Role   `json:"role"`
	AgentID  string `json:"agent_id,omitempty"`
	Change   string `json:"change"`
	Reason   string `json:"reason,omitempty"`
}

// MessageEvent mirrors an entry appended to a channel.
type MessageEvent struct {
	Stamp
	Channel  string `json:"channel"`
	Scope    string `json:"scope"`
	VesselID string `json:"vessel_id,omitempty"`
	Seq      uint64 `json:"seq"`
	From     string `json:"from"`
	Role     Role   `json:"role,omitempty"`
	Text     string `json:"text"`
}

// ActionEvent reports the outcome of a structured action.
type ActionEvent struct {
	Stamp
	VesselID string          `json:"vessel_id"`
	Role     Role            `json:"role"`
	Kind     string          `json:"kind"`
	AgentID  string          `json:"agent_id"`
	Seq      uint64          `json:"seq"`
	Accepted bool            `json:"accepted"`
	Code     string          `json:"code"`
	Error    string          `json:"error,omitempty"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// DestroyedEvent is emitted when a vessel's hull reaches zero.
type DestroyedEvent struct {
	Stamp
	VesselID string `json:"vessel_id"`
	Name     string `json:"name"`
	KilledBy string `json:"killed_by,omitempty"`
}

func (VesselState) EventType() string    { return TypeVesselState }
func (FiredEvent) EventType() string     { return TypeFired }
func (HitEvent) EventType() string       { return TypeHit }
func (CasualtyEvent) EventType() string  { return TypeCasualty }
func (RoleEvent) EventType() string      { return TypeRole }
func (MessageEvent) EventType() string   { return TypeMessage }
func (ActionEvent) EventType() string    { return TypeAction }
func (DestroyedEvent) EventType() string { return TypeDestroyed }
func (Snapshot) EventType() string       { return TypeStatus }

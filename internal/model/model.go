package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Battle{},
	&BattleVessel{},
	&VesselState{},
	&FiredEvent{},
	&HitEvent{},
	&CasualtyEvent{},
	&RoleEvent{},
	&MessageEvent{},
	&ActionEvent{},
	&DestroyedEvent{},
}

////////////////////////
// BATTLE MODELS
////////////////////////

// Battle is the main model for a recorded engagement
type Battle struct {
	gorm.Model
	Name          string         `json:"name" gorm:"size:200"`
	StartedAt     time.Time      `json:"startedAt" gorm:"index:idx_battle_start"`
	TickDuration  time.Duration  `json:"tickDuration"`
	Seed          int64          `json:"seed"`
	Environment   datatypes.JSON `json:"environment"`
	EndTick       uint64         `json:"endTick"`
	Vessels       []BattleVessel `json:"vessels"`
	WinningSide   string         `json:"winningSide" gorm:"size:32"`
	EndedAt       *time.Time     `json:"endedAt"`
	RecorderBuild string         `json:"recorderBuild" gorm:"size:64"`
}

func (*Battle) TableName() string {
	return "battles"
}

// BattleVessel is a vessel taking part in a battle
type BattleVessel struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint   `json:"battleId" gorm:"index:idx_battlevessel_battle_id"`
	VesselID string `json:"vesselId" gorm:"size:64"`
	Name     string `json:"name" gorm:"size:127"`
	Side     string `json:"side" gorm:"size:32"`
	Class    string `json:"class" gorm:"size:127"`
}

func (*BattleVessel) TableName() string {
	return "battle_vessels"
}

// stamped fields shared by every time-series row
type Stamp struct {
	Time     time.Time `json:"time"`
	Tick     uint64    `json:"tick" gorm:"index"`
	GameTime float64   `json:"gameTime"`
}

// VesselState tracks a vessel at a point in time
type VesselState struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint   `json:"battleId" gorm:"index:idx_vesselstate_battle_id"`
	Battle   Battle `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Stamp    `gorm:"embedded"`

	VesselID       string     `json:"vesselId" gorm:"size:64;index"`
	Name           string     `json:"name" gorm:"size:127"`
	Side           string     `json:"side" gorm:"size:32"`
	Position       geom.Point `json:"position"` // lon/lat
	Heading        float64    `json:"heading"`
	Speed          float64    `json:"speed"`
	CommandedSpeed float64    `json:"commandedSpeed"`
	Hull           int        `json:"hull"`
	Destroyed      bool       `json:"destroyed"`
}

func (*VesselState) TableName() string {
	return "vessel_states"
}

// FiredEvent is a projectile leaving a weapon mount
type FiredEvent struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint   `json:"battleId" gorm:"index:idx_firedevent_battle_id"`
	Battle   Battle `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Stamp    `gorm:"embedded"`

	ProjectileID string     `json:"projectileId" gorm:"size:64;index"`
	VesselID     string     `json:"vesselId" gorm:"size:64"`
	TargetID     string     `json:"targetId" gorm:"size:64"`
	Mount        int        `json:"mount"`
	Weapon       string     `json:"weapon" gorm:"size:127"`
	Origin       geom.Point `json:"origin"`
	Aim          geom.Point `json:"aim"`
	Heading      float64    `json:"heading"`
	Range        float64    `json:"range"`
}

func (*FiredEvent) TableName() string {
	return "fired_events"
}

// HitEvent is a resolved projectile, hit or miss
type HitEvent struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint   `json:"battleId" gorm:"index:idx_hitevent_battle_id"`
	Battle   Battle `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Stamp    `gorm:"embedded"`

	ProjectileID   string     `json:"projectileId" gorm:"size:64;index"`
	ShooterID      string     `json:"shooterId" gorm:"size:64"`
	VictimID       string     `json:"victimId" gorm:"size:64"`
	Position       geom.Point `json:"position"`
	Location       string     `json:"location" gorm:"size:32"`
	Damage         int        `json:"damage"`
	HullAfter      int        `json:"hullAfter"`
	Module         string     `json:"module" gorm:"size:127"`
	ModuleDisabled bool       `json:"moduleDisabled"`
	Miss           bool       `json:"miss"`
}

func (*HitEvent) TableName() string {
	return "hit_events"
}

// CasualtyEvent is a crew member killed in action
type CasualtyEvent struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint   `json:"battleId" gorm:"index:idx_casualtyevent_battle_id"`
	Battle   Battle `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Stamp    `gorm:"embedded"`

	VesselID string         `json:"vesselId" gorm:"size:64"`
	AgentID  string         `json:"agentId" gorm:"size:64"`
	Name     string         `json:"name" gorm:"size:127"`
	Station  string         `json:"station" gorm:"size:32"`
	Roles    datatypes.JSON `json:"roles"`
}

func (*CasualtyEvent) TableName() string {
	return "casualty_events"
}

// RoleEvent is a change of authority over a role
type RoleEvent struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint   `json:"battleId" gorm:"index:idx_roleevent_battle_id"`
	Battle   Battle `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Stamp    `gorm:"embedded"`

	VesselID string `json:"vesselId" gorm:"size:64"`
	Role     string `json:"role" gorm:"size:32"`
	AgentID  string `json:"agentId" gorm:"size:64"`
	Change   string `json:"change" gorm:"size:32"`
	Reason   string `json:"reason" gorm:"size:255"`
}

func (*RoleEvent) TableName() string {
	return "role_events"
}

// MessageEvent is a channel entry
type MessageEvent struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint   `json:"battleId" gorm:"index:idx_messageevent_battle_id"`
	Battle   Battle `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Stamp    `gorm:"embedded"`

	Channel  string `json:"channel" gorm:"size:127;index"`
	Scope    string `json:"scope" gorm:"size:16"`
	VesselID string `json:"vesselId" gorm:"size:64"`
	Seq      uint64 `json:"seq"`
	Sender   string `json:"from" gorm:"size:64"`
	Role     string `json:"role" gorm:"size:32"`
	Text     string `json:"text" gorm:"size:2000"`
}

func (*MessageEvent) TableName() string {
	return "message_events"
}

// ActionEvent is the outcome of a structured action
type ActionEvent struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint   `json:"battleId" gorm:"index:idx_actionevent_battle_id"`
	Battle   Battle `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Stamp    `gorm:"embedded"`

	VesselID string         `json:"vesselId" gorm:"size:64"`
	Role     string         `json:"role" gorm:"size:32"`
	Kind     string         `json:"kind" gorm:"size:32"`
	AgentID  string         `json:"agentId" gorm:"size:64"`
	Seq      uint64         `json:"seq"`
	Accepted bool           `json:"accepted"`
	Code     string         `json:"code" gorm:"size:32;index"`
	Error    string         `json:"error" gorm:"size:1000"`
	Params   datatypes.JSON `json:"params"`
}

func (*ActionEvent) TableName() string {
	return "action_events"
}

// DestroyedEvent is a vessel sunk
type DestroyedEvent struct {
	ID       uint   `json:"id" gorm:"primarykey;autoIncrement;"`
	BattleID uint   `json:"battleId" gorm:"index:idx_destroyedevent_battle_id"`
	Battle   Battle `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:BattleID;"`
	Stamp    `gorm:"embedded"`

	VesselID string `json:"vesselId" gorm:"size:64"`
	Name     string `json:"name" gorm:"size:127"`
	KilledBy string `json:"killedBy" gorm:"size:64"`
}

func (*DestroyedEvent) TableName() string {
	return "destroyed_events"
}

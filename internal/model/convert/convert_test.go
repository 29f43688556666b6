package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = core.Stamp{Tick: 7, GameTime: 420, Time: time.Date(1942, 11, 13, 1, 37, 0, 0, time.UTC)}

func TestPositionMapsLonToX(t *testing.T) {
	p := positionToPoint(core.Position{Lat: -9.1, Lon: 159.9})
	xy, ok := p.XY()
	require.True(t, ok)
	assert.Equal(t, 159.9, xy.X)
	assert.Equal(t, -9.1, xy.Y)
	assert.Equal(t, core.Position{Lat: -9.1, Lon: 159.9}, pointToPosition(p))
}

func TestBattleRoundTrip(t *testing.T) {
	in := core.Battle{
		ID:           3,
		Name:         "Savo",
		StartedAt:    stamp.Time,
		TickDuration: time.Minute,
		Seed:         42,
		Environment:  core.Environment{WindDirection: 45, WindSpeedKnots: 12, SeaState: 3, Visibility: 0.4},
		Vessels: []core.VesselInfo{
			{ID: "a", Name: "Ayanami", Side: "blue", Class: "destroyer"},
		},
	}
	m := CoreToBattle(in)
	assert.Equal(t, uint(3), m.ID)
	require.Len(t, m.Vessels, 1)
	assert.Equal(t, "a", m.Vessels[0].VesselID)
	assert.JSONEq(t, `{"wind_direction":45,"wind_speed":12,"sea_state":3,"visibility":0.4}`, string(m.Environment))

	assert.Equal(t, in, BattleToCore(m))
}

func TestVesselStateRoundTrip(t *testing.T) {
	in := core.VesselState{
		Stamp: stamp, VesselID: "a", Name: "Ayanami", Side: "blue",
		Position: core.Position{Lat: -9.2, Lon: 159.8}, Heading: 270, Speed: 30, CommandedSpeed: 33, Hull: 800,
	}
	m := CoreToVesselState(in)
	assert.Equal(t, uint64(7), m.Tick)
	assert.Equal(t, in, VesselStateToCore(m))
}

func TestFiredAndHitRoundTrip(t *testing.T) {
	fired := core.FiredEvent{
		Stamp: stamp, ProjectileID: "p1", VesselID: "a", TargetID: "b", Mount: 4, Weapon: "610mm torpedo",
		Origin: core.Position{Lat: 1, Lon: 2}, Aim: core.Position{Lat: 3, Lon: 4}, Heading: 90, Range: 8000,
	}
	assert.Equal(t, fired, FiredEventToCore(CoreToFiredEvent(fired)))

	hit := core.HitEvent{
		Stamp: stamp, ProjectileID: "p1", ShooterID: "a", VictimID: "b", Position: core.Position{Lat: 3, Lon: 4},
		Location: "engine", Damage: 400, HullAfter: 600, ModuleDisabled: true,
	}
	assert.Equal(t, hit, HitEventToCore(CoreToHitEvent(hit)))
}

func TestCasualtyRoles(t *testing.T) {
	withRoles := core.CasualtyEvent{
		Stamp: stamp, VesselID: "a", AgentID: "x", Name: "Lt Mori", Station: core.StationBridge,
		Roles: []core.Role{core.RoleWeaponsOfficer, core.RoleHelmOfficer},
	}
	m := CoreToCasualtyEvent(withRoles)
	assert.JSONEq(t, `["weapons_officer","helm_officer"]`, string(m.Roles))
	assert.Equal(t, withRoles, CasualtyEventToCore(m))

	noRoles := core.CasualtyEvent{Stamp: stamp, VesselID: "a", AgentID: "y", Station: core.StationTorpedo}
	m = CoreToCasualtyEvent(noRoles)
	assert.Equal(t, "[]", string(m.Roles))
	assert.Equal(t, noRoles, CasualtyEventToCore(m))
}

func TestActionParams(t *testing.T) {
	in := core.ActionEvent{
		Stamp: stamp, VesselID: "a", Role: core.RoleHelmOfficer, Kind: "set_heading", AgentID: "x",
		Seq: 2, Accepted: true, Code: core.CodeOK, Params: json.RawMessage(`{"degrees":180}`),
	}
	m := CoreToActionEvent(in)
	assert.JSONEq(t, `{"degrees":180}`, string(m.Params))
	assert.Equal(t, in, ActionEventToCore(m))

	bare := core.ActionEvent{Stamp: stamp, Kind: "report_status", Code: core.CodeRoleVacant, Error: "role vacant"}
	m = CoreToActionEvent(bare)
	assert.Equal(t, "{}", string(m.Params))
	assert.Nil(t, ActionEventToCore(m).Params)
}

func TestRoleMessageDestroyedRoundTrip(t *testing.T) {
	role := core.RoleEvent{Stamp: stamp, VesselID: "a", Role: core.RoleCommander, AgentID: "z", Change: core.RoleSpawned, Reason: "reserve"}
	assert.Equal(t, role, RoleEventToCore(CoreToRoleEvent(role)))

	msg := core.MessageEvent{Stamp: stamp, Channel: "a/bridge", Scope: "bridge", VesselID: "a", Seq: 9, From: "x", Role: core.RoleHelmOfficer, Text: "steady"}
	m := CoreToMessageEvent(msg)
	assert.Equal(t, "x", m.Sender)
	assert.Equal(t, msg, MessageEventToCore(m))

	d := core.DestroyedEvent{Stamp: stamp, VesselID: "b", Name: "Enemy", KilledBy: "a"}
	assert.Equal(t, d, DestroyedEventToCore(CoreToDestroyedEvent(d)))
}

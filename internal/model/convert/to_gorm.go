// Package convert maps between the simulation's event types and the
// database rows in internal/model.
package convert

import (
	"encoding/json"

	"github.com/OCAP2/navalsim/internal/model"
	"github.com/OCAP2/navalsim/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// positionToPoint stores lon as X and lat as Y.
func positionToPoint(p core.Position) geom.Point {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p.Lon, Y: p.Lat}})
}

func stampToGorm(s core.Stamp) model.Stamp {
	return model.Stamp{Time: s.Time, Tick: s.Tick, GameTime: s.GameTime}
}

func toJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

// CoreToBattle converts a core.Battle to a GORM model.Battle. The vessel
// list becomes BattleVessel rows created alongside the battle.
func CoreToBattle(b core.Battle) model.Battle {
	out := model.Battle{
		Name:         b.Name,
		StartedAt:    b.StartedAt,
		TickDuration: b.TickDuration,
		Seed:         b.Seed,
		Environment:  toJSON(b.Environment),
	}
	out.ID = b.ID
	for _, v := range b.Vessels {
		out.Vessels = append(out.Vessels, model.BattleVessel{
			VesselID: v.ID,
			Name:     v.Name,
			Side:     v.Side,
			Class:    v.Class,
		})
	}
	return out
}

// CoreToVesselState converts a core.VesselState to a GORM model.VesselState
func CoreToVesselState(s core.VesselState) model.VesselState {
	return model.VesselState{
		Stamp:          stampToGorm(s.Stamp),
		VesselID:       s.VesselID,
		Name:           s.Name,
		Side:           s.Side,
		Position:       positionToPoint(s.Position),
		Heading:        s.Heading,
		Speed:          s.Speed,
		CommandedSpeed: s.CommandedSpeed,
		Hull:           s.Hull,
		Destroyed:      s.Destroyed,
	}
}

// CoreToFiredEvent converts a core.FiredEvent to a GORM model.FiredEvent
func CoreToFiredEvent(e core.FiredEvent) model.FiredEvent {
	return model.FiredEvent{
		Stamp:        stampToGorm(e.Stamp),
		ProjectileID: e.ProjectileID,
		VesselID:     e.VesselID,
		TargetID:     e.TargetID,
		Mount:        e.Mount,
		Weapon:       e.Weapon,
		Origin:       positionToPoint(e.Origin),
		Aim:          positionToPoint(e.Aim),
		Heading:      e.Heading,
		Range:        e.Range,
	}
}

// CoreToHitEvent converts a core.HitEvent to a GORM model.HitEvent
func CoreToHitEvent(e core.HitEvent) model.HitEvent {
	return model.HitEvent{
		Stamp:          stampToGorm(e.Stamp),
		ProjectileID:   e.ProjectileID,
		ShooterID:      e.ShooterID,
		VictimID:       e.VictimID,
		Position:       positionToPoint(e.Position),
		Location:       e.Location,
		Damage:         e.Damage,
		HullAfter:      e.HullAfter,
		Module:         e.Module,
		ModuleDisabled: e.ModuleDisabled,
		Miss:           e.Miss,
	}
}

// CoreToCasualtyEvent converts a core.CasualtyEvent to a GORM model.CasualtyEvent
func CoreToCasualtyEvent(e core.CasualtyEvent) model.CasualtyEvent {
	roles := e.Roles
	if roles == nil {
		roles = []core.Role{}
	}
	return model.CasualtyEvent{
		Stamp:    stampToGorm(e.Stamp),
		VesselID: e.VesselID,
		AgentID:  e.AgentID,
		Name:     e.Name,
		Station:  string(e.Station),
		Roles:    toJSON(roles),
	}
}

// CoreToRoleEvent converts a core.RoleEvent to a GORM model.RoleEvent
func CoreToRoleEvent(e core.RoleEvent) model.RoleEvent {
	return model.RoleEvent{
		Stamp:    stampToGorm(e.Stamp),
		VesselID: e.VesselID,
		Role:     string(e.Role),
		AgentID:  e.AgentID,
		Change:   e.Change,
		Reason:   e.Reason,
	}
}

// CoreToMessageEvent converts a core.MessageEvent to a GORM model.MessageEvent
func CoreToMessageEvent(e core.MessageEvent) model.MessageEvent {
	return model.MessageEvent{
		Stamp:    stampToGorm(e.Stamp),
		Channel:  e.Channel,
		Scope:    e.Scope,
		VesselID: e.VesselID,
		Seq:      e.Seq,
		Sender:   e.From,
		Role:     string(e.Role),
		Text:     e.Text,
	}
}

// CoreToActionEvent converts a core.ActionEvent to a GORM model.ActionEvent
func CoreToActionEvent(e core.ActionEvent) model.ActionEvent {
	params := datatypes.JSON("{}")
	if len(e.Params) > 0 {
		params = datatypes.JSON(e.Params)
	}
	return model.ActionEvent{
		Stamp:    stampToGorm(e.Stamp),
		VesselID: e.VesselID,
		Role:     string(e.Role),
		Kind:     e.Kind,
		AgentID:  e.AgentID,
		Seq:      e.Seq,
		Accepted: e.Accepted,
		Code:     e.Code,
		Error:    e.Error,
		Params:   params,
	}
}

// CoreToDestroyedEvent converts a core.DestroyedEvent to a GORM model.DestroyedEvent
func CoreToDestroyedEvent(e core.DestroyedEvent) model.DestroyedEvent {
	return model.DestroyedEvent{
		Stamp:    stampToGorm(e.Stamp),
		VesselID: e.VesselID,
		Name:     e.Name,
		KilledBy: e.KilledBy,
	}
}

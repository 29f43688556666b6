package convert

import (
	"encoding/json"

	"github.com/OCAP2/navalsim/internal/model"
	"github.com/OCAP2/navalsim/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

func pointToPosition(p geom.Point) core.Position {
	c, ok := p.XY()
	if !ok {
		return core.Position{}
	}
	return core.Position{Lat: c.Y, Lon: c.X}
}

func stampToCore(s model.Stamp) core.Stamp {
	return core.Stamp{Tick: s.Tick, GameTime: s.GameTime, Time: s.Time}
}

// BattleToCore converts a stored battle back to core.Battle.
func BattleToCore(b model.Battle) core.Battle {
	out := core.Battle{
		ID:           b.ID,
		Name:         b.Name,
		StartedAt:    b.StartedAt,
		TickDuration: b.TickDuration,
		Seed:         b.Seed,
	}
	if len(b.Environment) > 0 {
		_ = json.Unmarshal(b.Environment, &out.Environment)
	}
	for _, v := range b.Vessels {
		out.Vessels = append(out.Vessels, core.VesselInfo{
			ID: v.VesselID, Name: v.Name, Side: v.Side, Class: v.Class,
		})
	}
	return out
}

func VesselStateToCore(s model.VesselState) core.VesselState {
	return core.VesselState{
		Stamp:          stampToCore(s.Stamp),
		VesselID:       s.VesselID,
		Name:           s.Name,
		Side:           s.Side,
		Position:       pointToPosition(s.Position),
		Heading:        s.Heading,
		Speed:          s.Speed,
		CommandedSpeed: s.CommandedSpeed,
		Hull:           s.Hull,
		Destroyed:      s.Destroyed,
	}
}

func FiredEventToCore(e model.FiredEvent) core.FiredEvent {
	return core.FiredEvent{
		Stamp:        stampToCore(e.Stamp),
		ProjectileID: e.ProjectileID,
		VesselID:     e.VesselID,
		TargetID:     e.TargetID,
		Mount:        e.Mount,
		Weapon:       e.Weapon,
		Origin:       pointToPosition(e.Origin),
		Aim:          pointToPosition(e.Aim),
		Heading:      e.Heading,
		Range:        e.Range,
	}
}

func HitEventToCore(e model.HitEvent) core.HitEvent {
	return core.HitEvent{
		Stamp:          stampToCore(e.Stamp),
		ProjectileID:   e.ProjectileID,
		ShooterID:      e.ShooterID,
		VictimID:       e.VictimID,
		Position:       pointToPosition(e.Position),
		Location:       e.Location,
		Damage:         e.Damage,
		HullAfter:      e.HullAfter,
		Module:         e.Module,
		ModuleDisabled: e.ModuleDisabled,
		Miss:           e.Miss,
	}
}

func CasualtyEventToCore(e model.CasualtyEvent) core.CasualtyEvent {
	out := core.CasualtyEvent{
		Stamp:    stampToCore(e.Stamp),
		VesselID: e.VesselID,
		AgentID:  e.AgentID,
		Name:     e.Name,
		Station:  core.Station(e.Station),
	}
	if len(e.Roles) > 0 {
		_ = json.Unmarshal(e.Roles, &out.Roles)
	}
	if len(out.Roles) == 0 {
		out.Roles = nil
	}
	return out
}

func RoleEventToCore(e model.RoleEvent) core.RoleEvent {
	return core.RoleEvent{
		Stamp:    stampToCore(e.Stamp),
		VesselID: e.VesselID,
		Role:     core.Role(e.Role),
		AgentID:  e.AgentID,
		Change:   e.Change,
		Reason:   e.Reason,
	}
}

func MessageEventToCore(e model.MessageEvent) core.MessageEvent {
	return core.MessageEvent{
		Stamp:    stampToCore(e.Stamp),
		Channel:  e.Channel,
		Scope:    e.Scope,
		VesselID: e.VesselID,
		Seq:      e.Seq,
		From:     e.Sender,
		Role:     core.Role(e.Role),
		Text:     e.Text,
	}
}

func ActionEventToCore(e model.ActionEvent) core.ActionEvent {
	out := core.ActionEvent{
		Stamp:    stampToCore(e.Stamp),
		VesselID: e.VesselID,
		Role:     core.Role(e.Role),
		Kind:     e.Kind,
		AgentID:  e.AgentID,
		Seq:      e.Seq,
		Accepted: e.Accepted,
		Code:     e.Code,
		Error:    e.Error,
	}
	if len(e.Params) > 0 && string(e.Params) != "{}" {
		out.Params = json.RawMessage(e.Params)
	}
	return out
}

func DestroyedEventToCore(e model.DestroyedEvent) core.DestroyedEvent {
	return core.DestroyedEvent{
		Stamp:    stampToCore(e.Stamp),
		VesselID: e.VesselID,
		Name:     e.Name,
		KilledBy: e.KilledBy,
	}
}

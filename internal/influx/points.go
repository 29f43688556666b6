package influx

import (
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/OCAP2/navalsim/pkg/core"
)

// Measurement names.
const (
	MeasurementVessel    = "vessel"
	MeasurementShot      = "shot"
	MeasurementHit       = "hit"
	MeasurementAction    = "action"
	MeasurementCasualty  = "casualty"
	MeasurementDestroyed = "destroyed"
)

func newPoint(measurement, battle string, s core.Stamp) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(measurement).
		AddTag("battle", battle).
		AddField("tick", s.Tick).
		AddField("game_time", s.GameTime)
	p.SetTime(s.Time)
	return p
}

// EventPoint maps an event onto a metric point, or nil when the event has
// no metric.
func EventPoint(battle string, e core.Event) *influxdb2_write.Point {
	switch ev := e.(type) {
	case core.VesselState:
		return newPoint(MeasurementVessel, battle, ev.Stamp).
			AddTag("vessel", ev.VesselID).
			AddTag("side", ev.Side).
			AddField("lat", ev.Position.Lat).
			AddField("lon", ev.Position.Lon).
			AddField("heading", ev.Heading).
			AddField("speed", ev.Speed).
			AddField("commanded_speed", ev.CommandedSpeed).
			AddField("hull", ev.Hull).
			AddField("destroyed", ev.Destroyed)
	case core.FiredEvent:
		return newPoint(MeasurementShot, battle, ev.Stamp).
			AddTag("vessel", ev.VesselID).
			AddTag("weapon", ev.Weapon).
			AddField("range", ev.Range)
	case core.HitEvent:
		p := newPoint(MeasurementHit, battle, ev.Stamp).
			AddTag("shooter", ev.ShooterID).
			AddField("damage", ev.Damage).
			AddField("miss", ev.Miss)
		if !ev.Miss {
			p.AddTag("victim", ev.VictimID).
				AddTag("location", ev.Location).
				AddField("hull_after", ev.HullAfter)
		}
		return p
	case core.ActionEvent:
		return newPoint(MeasurementAction, battle, ev.Stamp).
			AddTag("vessel", ev.VesselID).
			AddTag("role", string(ev.Role)).
			AddTag("kind", ev.Kind).
			AddTag("code", ev.Code).
			AddField("accepted", ev.Accepted)
	case core.CasualtyEvent:
		return newPoint(MeasurementCasualty, battle, ev.Stamp).
			AddTag("vessel", ev.VesselID).
			AddTag("station", string(ev.Station)).
			AddField("roles", len(ev.Roles))
	case core.DestroyedEvent:
		return newPoint(MeasurementDestroyed, battle, ev.Stamp).
			AddTag("vessel", ev.VesselID).
			AddTag("killed_by", ev.KilledBy).
			AddField("count", 1)
	default:
		return nil
	}
}

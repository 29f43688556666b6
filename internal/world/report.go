package world

import (
	"fmt"

	"github.com/OCAP2/navalsim/internal/action"
	"github.com/OCAP2/navalsim/internal/crew"
	"github.com/OCAP2/navalsim/internal/vessel"
	"github.com/OCAP2/navalsim/pkg/core"
)

func (w *World) messageEvent(c *crew.Channel, vesselID string, m crew.Message) core.MessageEvent {
	return core.MessageEvent{
		Stamp:    w.stamp(),
		Channel:  c.Name(),
		Scope:    string(c.Scope()),
		VesselID: vesselID,
		Seq:      m.Seq,
		From:     m.From,
		Role:     m.Role,
		Text:     m.Text,
	}
}

func (w *World) postBridge(v *vessel.Vessel, from string, role core.Role, text string) {
	r := v.Roster()
	m := r.PostBridge(from, role, text)
	w.publish(w.messageEvent(r.Bridge(), v.ID(), m))
}

func (w *World) postDivision(v *vessel.Vessel, s core.Station, from string, role core.Role, text string) {
	r := v.Roster()
	m, err := r.PostDivision(s, from, role, text)
	if err != nil {
		return
	}
	c, _ := r.Division(s)
	w.publish(w.messageEvent(c, v.ID(), m))
}

func (w *World) postGlobal(v *vessel.Vessel, from string, role core.Role, text string) error {
	m, err := v.Roster().PostGlobal(from, role, text)
	if err != nil {
		return err
	}
	w.publish(w.messageEvent(w.global, v.ID(), m))
	return nil
}

// roleEvents publishes roster changes and announces them on the bridge.
func (w *World) roleEvents(v *vessel.Vessel, events []crew.Event) {
	r := v.Roster()
	for _, e := range events {
		if e.Kind == crew.EventKilled {
			continue
		}
		w.publish(core.RoleEvent{
			Stamp:    w.stamp(),
			VesselID: v.ID(),
			Role:     e.Role,
			AgentID:  e.Agent,
			Change:   e.Kind,
			Reason:   e.Reason,
		})

		name := e.Agent
		if m, ok := r.Member(e.Agent); ok {
			name = m.Name()
		}
		var text string
		switch e.Kind {
		case core.RoleVacated:
			text = fmt.Sprintf("%s vacated by %s (%s)", e.Role, name, e.Reason)
		case core.RoleSpawned:
			text = fmt.Sprintf("%s called up to the bridge as %s", name, e.Role)
		default:
			text = fmt.Sprintf("%s now %s (%s)", name, e.Role, e.Reason)
		}
		w.postBridge(v, crew.SystemSender, "", text)
		w.logger.Info("role change", "vessel", v.Name(), "role", e.Role, "change", e.Kind, "agent", name, "reason", e.Reason)
	}
}

// report publishes the outcome of one drained action.
func (w *World) report(res action.Result) {
	a := res.Action
	w.publish(res.Event(w.stamp()))

	v, ok := w.byID[a.Vessel]
	if !ok || a.Kind == action.KindReport {
		return
	}
	text := fmt.Sprintf("%s %s: %s", a.Role, a.Kind, res.Code())
	if res.Err != nil {
		text = fmt.Sprintf("%s %s rejected: %v", a.Role, a.Kind, res.Err)
	}
	w.postBridge(v, crew.SystemSender, a.Role, text)

	switch a.Kind {
	case action.KindFireGuns:
		w.postDivision(v, core.StationGunnery, crew.SystemSender, a.Role, text)
	case action.KindLaunchTorpedoes:
		w.postDivision(v, core.StationTorpedo, crew.SystemSender, a.Role, text)
	case action.KindSetSpeed:
		w.postDivision(v, core.StationEngineering, crew.SystemSender, a.Role, text)
	}
}

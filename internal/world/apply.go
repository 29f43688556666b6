package world

import (
	"fmt"

	"github.com/OCAP2/navalsim/internal/action"
	"github.com/OCAP2/navalsim/internal/vessel"
	"github.com/OCAP2/navalsim/internal/weapon"
	"github.com/OCAP2/navalsim/pkg/core"
)

// Apply executes an authorized action against its vessel. It is called only
// from the dispatcher drain inside Step.
func (w *World) Apply(a action.Action) error {
	v, ok := w.byID[a.Vessel]
	if !ok {
		return fmt.Errorf("%q: %w", a.Vessel, core.ErrUnknownVessel)
	}

	switch a.Kind {
	case action.KindSetSpeed:
		p, err := action.Decode[action.SetSpeed](a)
		if err != nil {
			return err
		}
		v.SetSpeed(p.Knots)
		return nil

	case action.KindSetHeading:
		p, err := action.Decode[action.SetHeading](a)
		if err != nil {
			return err
		}
		v.SetHeading(p.Degrees)
		return nil

	case action.KindFireGuns:
		return w.fire(v, a, weapon.KindGun)

	case action.KindLaunchTorpedoes:
		return w.fire(v, a, weapon.KindTorpedoLauncher)

	case action.KindReassignRole:
		p, err := action.Decode[action.RoleDirective](a)
		if err != nil {
			return err
		}
		return v.Roster().Reassign(p.Role, p.AgentID)

	case action.KindMultiplexRole:
		p, err := action.Decode[action.RoleDirective](a)
		if err != nil {
			return err
		}
		return v.Roster().Multiplex(p.Role, p.AgentID)

	case action.KindSummon:
		p, err := action.Decode[action.Summon](a)
		if err != nil {
			return err
		}
		return v.Roster().Summon(p.AgentID)

	case action.KindAbandonShip:
		if err := action.Validate(a); err != nil {
			return err
		}
		v.Roster().Abandon()
		w.postBridge(v, a.ProducedBy, a.Role, "Abandon ship")
		if err := w.postGlobal(v, a.ProducedBy, a.Role, v.Name()+" is abandoning ship"); err != nil {
			w.logger.Warn("abandon not announced on the global channel", "vessel", v.Name(), "error", err)
		}
		return nil

	case action.KindReport:
		p, err := action.Decode[action.Report](a)
		if err != nil {
			return err
		}
		if p.Channel == action.ReportGlobal {
			if a.Role != core.RoleCommander {
				return fmt.Errorf("%w: only the commander reports on the global channel", core.ErrInvalidActionParameters)
			}
			return w.postGlobal(v, a.ProducedBy, a.Role, p.Text)
		}
		w.postBridge(v, a.ProducedBy, a.Role, p.Text)
		return nil
	}
	return fmt.Errorf("%w: unknown action kind %q", core.ErrInvalidActionParameters, a.Kind)
}

func (w *World) fire(v *vessel.Vessel, a action.Action, kind weapon.Kind) error {
	p, err := action.Decode[action.Fire](a)
	if err != nil {
		return err
	}
	target, ok := w.byID[p.TargetID]
	if !ok || target.ID() == v.ID() {
		return fmt.Errorf("%w: no target %q", core.ErrInvalidActionParameters, p.TargetID)
	}
	shot, err := v.Fire(kind, p.Mount, target.Position())
	if err != nil {
		return err
	}
	w.launch(v, target, shot)
	return nil
}

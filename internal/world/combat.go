package world

import (
	"fmt"

	"github.com/OCAP2/navalsim/internal/combat"
	"github.com/OCAP2/navalsim/internal/crew"
	"github.com/OCAP2/navalsim/internal/geo"
	"github.com/OCAP2/navalsim/internal/vessel"
	"github.com/OCAP2/navalsim/internal/weapon"
	"github.com/OCAP2/navalsim/pkg/core"
)

// launch turns a successful shot into a projectile. Shells are aimed at the
// target's current position with range dependent dispersion; torpedoes run
// toward it until their range is spent.
func (w *World) launch(shooter, target *vessel.Vessel, shot weapon.Shot) *combat.Projectile {
	spec := shooter.Weapons()[shot.Mount].Spec()
	from := shooter.Position()

	p := combat.Projectile{
		Origin:   shooter.ID(),
		Target:   target.ID(),
		Mount:    shot.Mount,
		Weapon:   spec.Name,
		Position: from,
		Speed:    shot.Speed,
		Damage:   shot.Damage,
	}
	switch shot.Kind {
	case weapon.KindTorpedoLauncher:
		p.Kind = combat.KindTorpedo
		p.Aim = target.Position()
		p.Heading = shot.Bearing
		p.Remaining = spec.MaxRange
		if p.Remaining <= 0 {
			p.Remaining = shot.Range
		}
	default:
		p.Kind = combat.KindShell
		radius := combat.Dispersion(shot.Range, spec.MaxRange, w.cfg.Environment.Visibility)
		p.Aim = combat.Scatter(w.dice, target.Position(), radius)
		p.Heading = geo.Bearing(from, p.Aim)
		p.Remaining = geo.Distance(from, p.Aim)
	}

	proj := w.resolver.Launch(p)
	w.publish(core.FiredEvent{
		Stamp:        w.stamp(),
		ProjectileID: proj.ID,
		VesselID:     shooter.ID(),
		TargetID:     target.ID(),
		Mount:        shot.Mount,
		Weapon:       spec.Name,
		Origin:       from,
		Aim:          proj.Aim,
		Heading:      proj.Heading,
		Range:        shot.Range,
	})
	return proj
}

// impact resolves one projectile against its victim.
func (w *World) impact(im combat.Impact) {
	p := im.Projectile
	ev := core.HitEvent{
		Stamp:        w.stamp(),
		ProjectileID: p.ID,
		ShooterID:    p.Origin,
		Position:     im.Position,
		Damage:       p.Damage,
		Miss:         im.Miss(),
	}

	victim, ok := w.byID[im.Victim]
	if im.Miss() || !ok {
		ev.Miss = true
		ev.Damage = 0
		w.publish(ev)
		return
	}

	res := victim.ApplyHit(p.Damage, p.Origin, w.dice)
	ev.VictimID = victim.ID()
	ev.Location = string(res.Location)
	ev.HullAfter = res.HullAfter
	ev.Module = res.Module
	ev.ModuleDisabled = res.ModuleDisabled
	w.publish(ev)

	w.logger.Debug("hit",
		"shooter", p.Origin,
		"victim", victim.Name(),
		"location", res.Location,
		"damage", p.Damage,
		"hull", res.HullAfter)

	text := fmt.Sprintf("Hit by %s at %s, hull %d", p.Kind, res.Location, res.HullAfter)
	if res.ModuleDisabled {
		text += fmt.Sprintf(", %s out of action", res.Module)
	}
	w.postBridge(victim, crew.SystemSender, "", text)

	for _, id := range res.Killed {
		w.casualty(victim, id)
	}
	if shooter, ok := w.byID[p.Origin]; ok {
		w.postBridge(shooter, crew.SystemSender, "", fmt.Sprintf("%s struck %s", p.Weapon, victim.Name()))
	}
}

func (w *World) casualty(v *vessel.Vessel, agentID string) {
	m, ok := v.Roster().Member(agentID)
	if !ok {
		return
	}
	w.publish(core.CasualtyEvent{
		Stamp:    w.stamp(),
		VesselID: v.ID(),
		AgentID:  m.ID(),
		Name:     m.Name(),
		Station:  m.Station(),
	})
	w.postBridge(v, crew.SystemSender, "", fmt.Sprintf("%s killed in action", m.Name()))
}

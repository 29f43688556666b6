package vessel

import (
	"github.com/OCAP2/navalsim/internal/combat"
	"github.com/OCAP2/navalsim/internal/weapon"
)

// HitResult describes what a single impact did to the vessel.
type HitResult struct {
	Location       combat.Location
	HullAfter      int
	Module         string
	ModuleDisabled bool
	// Killed lists crew members killed at the struck station.
	Killed    []string
	Destroyed bool
}

// ApplyHit applies a projectile payload. The hull always takes the damage;
// the module and crew at the rolled location take it as well.
func (v *Vessel) ApplyHit(damage int, shooter string, d combat.Dice) HitResult {
	loc := combat.RollLocation(d)
	res := HitResult{Location: loc}
	if v.destroyed {
		res.HullAfter = v.hull
		res.Destroyed = true
		return res
	}

	v.hull -= damage
	if v.hull < 0 {
		v.hull = 0
	}

	switch loc {
	case combat.LocationGunMount:
		res.Module, res.ModuleDisabled = v.damageMount(weapon.KindGun, damage, d)
	case combat.LocationTorpedoMount:
		res.Module, res.ModuleDisabled = v.damageMount(weapon.KindTorpedoLauncher, damage, d)
	case combat.LocationEngineRoom:
		res.Module = "engine_room"
		res.ModuleDisabled = v.damageEngine(damage)
	}

	if station, ok := loc.Station(); ok {
		lethality := combat.Lethality(damage)
		for _, m := range v.roster.AtStation(station) {
			if combat.Roll(d, lethality) {
				v.roster.MarkKIA(m.ID())
				res.Killed = append(res.Killed, m.ID())
			}
		}
	}

	res.HullAfter = v.hull
	if v.hull == 0 {
		v.destroyed = true
		v.killedBy = shooter
		res.Destroyed = true
	}
	return res
}

func (v *Vessel) damageMount(kind weapon.Kind, damage int, d combat.Dice) (string, bool) {
	var mounts []*weapon.System
	for _, w := range v.weapons {
		if w.Kind() == kind {
			mounts = append(mounts, w)
		}
	}
	if len(mounts) == 0 {
		return "", false
	}
	i := int(d.Float64() * float64(len(mounts)))
	if i >= len(mounts) {
		i = len(mounts) - 1
	}
	w := mounts[i]
	if !w.Damage(damage) && combat.Roll(d, combat.DisableChance) {
		w.Disable()
	}
	return w.Spec().Name, w.State() == weapon.StateDisabled
}

func (v *Vessel) damageEngine(damage int) bool {
	if v.class.EngineHP <= 0 {
		return false
	}
	v.engineHP -= damage
	if v.engineHP < 0 {
		v.engineHP = 0
	}
	v.propulsion.Degrade(float64(v.engineHP) / float64(v.class.EngineHP))
	return v.engineHP == 0
}

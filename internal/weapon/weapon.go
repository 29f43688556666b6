// Package weapon implements the fire/reload state machines of gun mounts
// and torpedo launchers.
package weapon

import (
	"fmt"
	"math"
	"time"

	"github.com/OCAP2/navalsim/internal/geo"
	"github.com/OCAP2/navalsim/pkg/core"
)

// Kind is the type of weapon mount.
type Kind string

const (
	KindGun             Kind = "gun"
	KindTorpedoLauncher Kind = "torpedo_launcher"
)

// State of a weapon mount.
//
//	Ready -> Firing -> Reloading -> Ready
//	                             -> Empty     (launchers only, terminal)
//	any   -> Disabled                         (terminal)
type State string

const (
	StateReady     State = "ready"
	StateFiring    State = "firing"
	StateReloading State = "reloading"
	StateEmpty     State = "empty"
	StateDisabled  State = "disabled"
)

// Spec describes a weapon mount.
type Spec struct {
	Name   string        `json:"name" yaml:"name"`
	Kind   Kind          `json:"kind" yaml:"kind"`
	Reload time.Duration `json:"reload" yaml:"reload"`
	// Ammunition is the loaded tube count for launchers; ignored for guns.
	Ammunition int `json:"ammunition" yaml:"ammunition"`
	// ArcCenter is the mount orientation relative to the bow, ArcWidth the
	// total traverse arc. A width of 360 or more bears everywhere.
	ArcCenter       float64      `json:"arc_center" yaml:"arc_center"`
	ArcWidth        float64      `json:"arc_width" yaml:"arc_width"`
	MaxRange        float64      `json:"max_range" yaml:"max_range"` // meters
	ProjectileSpeed float64      `json:"projectile_speed" yaml:"projectile_speed"`
	Damage          int          `json:"damage" yaml:"damage"`
	HP              int          `json:"hp" yaml:"hp"`
	Station         core.Station `json:"station" yaml:"station"`
}

// Shot describes a successful firing, to be turned into a projectile.
type Shot struct {
	Mount   int
	Kind    Kind
	Bearing float64 // absolute, degrees
	Range   float64
	Speed   float64 // knots
	Damage  int
}

// System is one weapon mount and its state machine.
type System struct {
	mount      int
	spec       Spec
	state      State
	ammunition int
	reloadLeft time.Duration
	hp         int
}

// New creates a mount in the Ready state.
func New(mount int, spec Spec) *System {
	s := &System{
		mount:      mount,
		spec:       spec,
		state:      StateReady,
		ammunition: spec.Ammunition,
		hp:         spec.HP,
	}
	if spec.Kind == KindTorpedoLauncher && spec.Ammunition <= 0 {
		s.state = StateEmpty
	}
	return s
}

func (s *System) Mount() int                     { return s.mount }
func (s *System) Spec() Spec                     { return s.spec }
func (s *System) Kind() Kind                     { return s.spec.Kind }
func (s *System) State() State                   { return s.state }
func (s *System) HP() int                        { return s.hp }
func (s *System) ReloadRemaining() time.Duration { return s.reloadLeft }

// Ammunition returns the rounds left, or -1 for unlimited.
func (s *System) Ammunition() int {
	if s.spec.Kind == KindGun {
		return -1
	}
	return s.ammunition
}

// CanBear reports whether a bearing relative to the bow lies in the arc.
func (s *System) CanBear(relative float64) bool {
	if s.spec.ArcWidth >= 360 {
		return true
	}
	return math.Abs(geo.AngleDiff(s.spec.ArcCenter, relative)) <= s.spec.ArcWidth/2
}

// Fire releases one round toward the given absolute bearing. heading is the
// owning vessel's current heading. On error the mount is left untouched,
// except that a launcher found without ammunition settles in Empty.
func (s *System) Fire(heading, bearing, rangeM float64) (Shot, error) {
	if s.state == StateDisabled {
		return Shot{}, fmt.Errorf("mount %d: %w", s.mount, core.ErrModuleDisabled)
	}
	if s.spec.Kind == KindTorpedoLauncher && s.ammunition <= 0 {
		s.state = StateEmpty
		s.reloadLeft = 0
		return Shot{}, fmt.Errorf("mount %d: %w", s.mount, core.ErrOutOfAmmunition)
	}
	if s.state != StateReady {
		return Shot{}, fmt.Errorf("mount %d is %s: %w", s.mount, s.state, core.ErrWeaponNotReady)
	}
	if !s.CanBear(geo.AngleDiff(heading, bearing)) {
		return Shot{}, fmt.Errorf("mount %d cannot bear %.0f: %w", s.mount, bearing, core.ErrInvalidActionParameters)
	}
	if s.spec.MaxRange > 0 && rangeM > s.spec.MaxRange {
		return Shot{}, fmt.Errorf("mount %d: target at %.0fm beyond range %.0fm: %w",
			s.mount, rangeM, s.spec.MaxRange, core.ErrInvalidActionParameters)
	}

	if s.spec.Kind == KindTorpedoLauncher {
		s.ammunition--
	}
	s.state = StateFiring
	s.reloadLeft = s.spec.Reload

	return Shot{
		Mount:   s.mount,
		Kind:    s.spec.Kind,
		Bearing: geo.NormalizeHeading(bearing),
		Range:   rangeM,
		Speed:   s.spec.ProjectileSpeed,
		Damage:  s.spec.Damage,
	}, nil
}

// Advance moves the reload timer forward by dt.
func (s *System) Advance(dt time.Duration) {
	switch s.state {
	case StateFiring:
		s.state = StateReloading
	case StateReloading:
	default:
		return
	}

	s.reloadLeft -= dt
	if s.reloadLeft > 0 {
		return
	}
	s.reloadLeft = 0
	if s.spec.Kind == KindTorpedoLauncher && s.ammunition <= 0 {
		s.state = StateEmpty
		return
	}
	s.state = StateReady
}

// Disable forces the mount into the terminal Disabled state.
func (s *System) Disable() {
	s.state = StateDisabled
	s.reloadLeft = 0
}

// Damage applies damage to the mount and reports whether it is now disabled.
func (s *System) Damage(amount int) bool {
	if amount <= 0 {
		return s.state == StateDisabled
	}
	s.hp -= amount
	if s.hp <= 0 {
		s.hp = 0
		s.Disable()
	}
	return s.state == StateDisabled
}

// Status returns the snapshot view of the mount.
func (s *System) Status() core.ModuleStatus {
	return core.ModuleStatus{
		Mount:           s.mount,
		Name:            s.spec.Name,
		Kind:            string(s.spec.Kind),
		State:           string(s.state),
		Ammunition:      s.Ammunition(),
		ReloadRemaining: s.reloadLeft.Seconds(),
		HP:              s.hp,
	}
}

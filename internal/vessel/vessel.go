// Package vessel aggregates propulsion, weapons, hull and crew of one ship.
package vessel

import (
	"errors"
	"fmt"
	"time"

	"github.com/OCAP2/navalsim/internal/crew"
	"github.com/OCAP2/navalsim/internal/geo"
	"github.com/OCAP2/navalsim/internal/propulsion"
	"github.com/OCAP2/navalsim/internal/weapon"
	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/google/uuid"
)

// Class is the static description shared by vessels of one design.
type Class struct {
	Name       string          `json:"name" yaml:"name"`
	Hull       int             `json:"hull" yaml:"hull"`
	EngineHP   int             `json:"engine_hp" yaml:"engine_hp"`
	Propulsion propulsion.Spec `json:"propulsion" yaml:"propulsion"`
	Weapons    []weapon.Spec   `json:"weapons" yaml:"weapons"`
}

// Config describes one vessel at battle start.
type Config struct {
	ID       string
	Name     string
	Side     string
	Class    Class
	Position core.Position
	Heading  float64
	Speed    float64
	// Reserve caps the roster reserve; nil leaves it unlimited.
	Reserve *int
	NewID   func() string
}

// Vessel is one ship. It is mutated only by the world tick and by actions
// delivered through the dispatcher drain.
type Vessel struct {
	id    string
	name  string
	side  string
	class Class

	hull          int
	position      core.Position
	heading       float64
	targetHeading float64
	speed         float64

	engineHP   int
	propulsion *propulsion.Model
	weapons    []*weapon.System
	roster     *crew.Roster

	destroyed bool
	killedBy  string
}

// New creates a vessel from its configuration.
func New(cfg Config) (*Vessel, error) {
	if err := geo.Validate(cfg.Position); err != nil {
		return nil, fmt.Errorf("vessel %s: %w", cfg.Name, err)
	}
	if cfg.Class.Hull <= 0 {
		return nil, fmt.Errorf("vessel %s: hull must be positive", cfg.Name)
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	v := &Vessel{
		id:            cfg.ID,
		name:          cfg.Name,
		side:          cfg.Side,
		class:         cfg.Class,
		hull:          cfg.Class.Hull,
		position:      cfg.Position,
		heading:       geo.NormalizeHeading(cfg.Heading),
		targetHeading: geo.NormalizeHeading(cfg.Heading),
		engineHP:      cfg.Class.EngineHP,
		propulsion:    propulsion.New(cfg.Class.Propulsion),
		roster: crew.NewRoster(crew.RosterConfig{
			VesselID:   cfg.ID,
			VesselName: cfg.Name,
			Reserve:    cfg.Reserve,
			NewID:      cfg.NewID,
		}),
	}
	v.speed = v.propulsion.SetCommandedSpeed(cfg.Speed)
	for i, spec := range cfg.Class.Weapons {
		v.weapons = append(v.weapons, weapon.New(i, spec))
	}
	return v, nil
}

func (v *Vessel) ID() string                    { return v.id }
func (v *Vessel) Name() string                  { return v.name }
func (v *Vessel) Side() string                  { return v.side }
func (v *Vessel) Class() Class                  { return v.class }
func (v *Vessel) Hull() int                     { return v.hull }
func (v *Vessel) Position() core.Position       { return v.position }
func (v *Vessel) Heading() float64              { return v.heading }
func (v *Vessel) TargetHeading() float64        { return v.targetHeading }
func (v *Vessel) Speed() float64                { return v.speed }
func (v *Vessel) EngineHP() int                 { return v.engineHP }
func (v *Vessel) Destroyed() bool               { return v.destroyed }
func (v *Vessel) KilledBy() string              { return v.killedBy }
func (v *Vessel) Roster() *crew.Roster          { return v.roster }
func (v *Vessel) Propulsion() *propulsion.Model { return v.propulsion }

// Weapons returns the mounts in mount order.
func (v *Vessel) Weapons() []*weapon.System {
	return append([]*weapon.System(nil), v.weapons...)
}

// HitRadius is half the hull length.
func (v *Vessel) HitRadius() float64 {
	if r := v.class.Propulsion.LengthM / 2; r > 10 {
		return r
	}
	return 10
}

// Update advances the vessel by dt: speed and heading are integrated, the
// ship moves, and weapon reload timers run.
func (v *Vessel) Update(dt time.Duration) {
	if v.destroyed {
		return
	}
	before := v.speed
	v.speed = v.propulsion.Integrate(v.speed, dt)
	v.heading = v.propulsion.Turn(v.heading, v.targetHeading, dt)

	meters := propulsion.KnotsToMS((before+v.speed)/2) * dt.Seconds()
	v.position = geo.Move(v.position, v.heading, meters)

	for _, w := range v.weapons {
		w.Advance(dt)
	}
}

// SetSpeed sets the commanded speed and returns the clamped value.
func (v *Vessel) SetSpeed(knots float64) float64 {
	return v.propulsion.SetCommandedSpeed(knots)
}

// SetHeading sets the heading the helm turns toward.
func (v *Vessel) SetHeading(degrees float64) float64 {
	v.targetHeading = geo.NormalizeHeading(degrees)
	return v.targetHeading
}

// Fire fires a mount of the given kind at a position. A nil mount picks the
// first mount of that kind able to fire.
func (v *Vessel) Fire(kind weapon.Kind, mount *int, target core.Position) (weapon.Shot, error) {
	bearing := geo.Bearing(v.position, target)
	rng := geo.Distance(v.position, target)

	if mount != nil {
		i := *mount
		if i < 0 || i >= len(v.weapons) || v.weapons[i].Kind() != kind {
			return weapon.Shot{}, fmt.Errorf("%w: %s has no %s mount %d", core.ErrInvalidActionParameters, v.name, kind, i)
		}
		return v.weapons[i].Fire(v.heading, bearing, rng)
	}

	var errs []error
	for _, w := range v.weapons {
		if w.Kind() != kind {
			continue
		}
		shot, err := w.Fire(v.heading, bearing, rng)
		if err == nil {
			return shot, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return weapon.Shot{}, fmt.Errorf("%w: %s carries no %s", core.ErrInvalidActionParameters, v.name, kind)
	}
	return weapon.Shot{}, fmt.Errorf("%s: no %s could fire: %w", v.name, kind, errors.Join(errs...))
}

// Status returns the full snapshot view of the vessel.
func (v *Vessel) Status() core.VesselStatus {
	st := core.VesselStatus{
		ID:             v.id,
		Name:           v.name,
		Side:           v.side,
		Position:       v.position,
		Heading:        v.heading,
		Speed:          v.speed,
		CommandedSpeed: v.propulsion.Commanded(),
		MaxSpeed:       v.propulsion.MaxSpeed(),
		Hull:           v.hull,
		MaxHull:        v.class.Hull,
		EngineHP:       v.engineHP,
		Destroyed:      v.destroyed,
		Modules:        make([]core.ModuleStatus, 0, len(v.weapons)),
		Roles:          v.roster.Holders(),
		Abandoned:      v.roster.Abandoned(),
	}
	for _, w := range v.weapons {
		st.Modules = append(st.Modules, w.Status())
	}
	return st
}

// State returns the per-tick recording sample.
func (v *Vessel) State(stamp core.Stamp) core.VesselState {
	return core.VesselState{
		Stamp:          stamp,
		VesselID:       v.id,
		Name:           v.name,
		Side:           v.side,
		Position:       v.position,
		Heading:        v.heading,
		Speed:          v.speed,
		CommandedSpeed: v.propulsion.Commanded(),
		Hull:           v.hull,
		Destroyed:      v.destroyed,
	}
}

// Contact is what an observer at from knows about this vessel.
func (v *Vessel) Contact(from core.Position) core.Contact {
	return core.Contact{
		ID:       v.id,
		Name:     v.name,
		Side:     v.side,
		Position: v.position,
		Heading:  v.heading,
		Speed:    v.speed,
		Bearing:  geo.Bearing(from, v.position),
		Range:    geo.Distance(from, v.position),
	}
}

// Package propulsion models speed and heading changes of a single hull.
package propulsion

import (
	"math"
	"time"

	"github.com/OCAP2/navalsim/internal/geo"
)

const (
	// accelerationFactor converts kW per tonne into knots per minute.
	accelerationFactor = 0.06
	// minDeceleration applies even with the engine gone; water slows the hull.
	minDeceleration = 1.0
)

// Spec describes the fixed propulsion characteristics of a hull.
type Spec struct {
	PowerKW       float64 `json:"power_kw" yaml:"power_kw"`
	LengthM       float64 `json:"length_m" yaml:"length_m"`
	DisplacementT float64 `json:"displacement_t" yaml:"displacement_t"`
	MaxSpeedKnots float64 `json:"max_speed" yaml:"max_speed"`
	TurnRate      float64 `json:"turn_rate" yaml:"turn_rate"` // degrees per minute
}

// Model integrates speed toward a commanded value under an acceleration
// bound derived from engine power and displacement.
type Model struct {
	spec        Spec
	degradation float64
	commanded   float64
	maxSpeed    float64
}

// New creates a propulsion model at full power.
func New(spec Spec) *Model {
	m := &Model{spec: spec, degradation: 1}
	m.maxSpeed = m.computeMaxSpeed()
	return m
}

// Spec returns the static characteristics.
func (m *Model) Spec() Spec { return m.spec }

func (m *Model) computeMaxSpeed() float64 {
	power := m.spec.PowerKW * 1000 * m.degradation
	limit := MSToKnots(AchievableSpeed(power, m.spec.LengthM))
	if m.spec.MaxSpeedKnots > 0 && m.spec.MaxSpeedKnots < limit {
		return m.spec.MaxSpeedKnots
	}
	return limit
}

// MaxSpeed is the highest speed reachable with the power currently available.
func (m *Model) MaxSpeed() float64 { return m.maxSpeed }

// Commanded returns the current commanded speed in knots.
func (m *Model) Commanded() float64 { return m.commanded }

// SetCommandedSpeed stores the commanded speed clamped to [0, MaxSpeed] and
// returns the stored value. It never fails.
func (m *Model) SetCommandedSpeed(knots float64) float64 {
	m.commanded = clamp(knots, 0, m.maxSpeed)
	return m.commanded
}

// Acceleration is the current speed change bound in knots per minute.
func (m *Model) Acceleration() float64 {
	if m.spec.DisplacementT <= 0 {
		return 0
	}
	return accelerationFactor * m.spec.PowerKW * m.degradation / m.spec.DisplacementT
}

// Integrate returns the speed after dt, moving current toward the commanded
// speed without overshooting it. It does not mutate the model.
func (m *Model) Integrate(current float64, dt time.Duration) float64 {
	accel := m.Acceleration()
	if current > m.commanded {
		accel = math.Max(accel, minDeceleration)
	}
	return Step(m.commanded, current, accel, dt)
}

// Turn returns the heading after dt, rotating along the shortest arc toward
// target at the hull's turn rate.
func (m *Model) Turn(current, target float64, dt time.Duration) float64 {
	return Turn(current, target, m.spec.TurnRate, dt)
}

// Degrade scales the available power to factor (0..1) of nominal, typically
// after engine damage. The commanded speed is re-clamped to the new maximum.
func (m *Model) Degrade(factor float64) {
	m.degradation = clamp(factor, 0, 1)
	m.maxSpeed = m.computeMaxSpeed()
	m.commanded = clamp(m.commanded, 0, m.maxSpeed)
}

// Degradation returns the fraction of nominal power available.
func (m *Model) Degradation() float64 { return m.degradation }

// Step is the pure speed integration: move current toward commanded by at
// most accel (knots/min) over dt.
func Step(commanded, current, accel float64, dt time.Duration) float64 {
	maxDelta := accel * dt.Minutes()
	delta := commanded - current
	if math.Abs(delta) <= maxDelta {
		return commanded
	}
	if delta > 0 {
		return current + maxDelta
	}
	return current - maxDelta
}

// Turn is the pure heading integration along the shortest arc.
func Turn(current, target, ratePerMinute float64, dt time.Duration) float64 {
	diff := geo.AngleDiff(current, target)
	maxTurn := ratePerMinute * dt.Minutes()
	if math.Abs(diff) <= maxTurn {
		return geo.NormalizeHeading(target)
	}
	if diff > 0 {
		return geo.NormalizeHeading(current + maxTurn)
	}
	return geo.NormalizeHeading(current - maxTurn)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

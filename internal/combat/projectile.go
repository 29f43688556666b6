// Package combat integrates projectiles in flight and decides what they hit.
package combat

import (
	"math"
	"time"

	"github.com/OCAP2/navalsim/internal/geo"
	"github.com/OCAP2/navalsim/internal/propulsion"
	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/google/uuid"
)

// Kind of projectile.
type Kind string

const (
	KindShell   Kind = "shell"
	KindTorpedo Kind = "torpedo"
)

// Projectile is a shell or torpedo in flight.
type Projectile struct {
	ID     string
	Kind   Kind
	Origin string
	Target string
	Mount  int
	Weapon string
	// Aim is the point the projectile was fired at.
	Aim       core.Position
	Position  core.Position
	Heading   float64
	Speed     float64 // knots
	Remaining float64 // meters
	Damage    int
	Seq       uint64
}

// Status returns the snapshot view of the projectile.
func (p *Projectile) Status() core.ProjectileStatus {
	return core.ProjectileStatus{
		ID:        p.ID,
		Kind:      string(p.Kind),
		Origin:    p.Origin,
		Target:    p.Target,
		Position:  p.Position,
		Heading:   p.Heading,
		Speed:     p.Speed,
		Remaining: p.Remaining,
	}
}

// Target is anything a projectile can strike.
type Target interface {
	ID() string
	Position() core.Position
	HitRadius() float64
	Destroyed() bool
}

// Impact is a resolved projectile. Victim is empty for a miss.
type Impact struct {
	Projectile *Projectile
	Victim     string
	Position   core.Position
}

// Miss reports whether the projectile hit nothing.
func (i Impact) Miss() bool { return i.Victim == "" }

// Resolver owns every projectile in flight.
type Resolver struct {
	projectiles []*Projectile
	seq         uint64
	newID       func() string
}

// NewResolver creates an empty resolver. newID defaults to random UUIDs.
func NewResolver(newID func() string) *Resolver {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Resolver{newID: newID}
}

// Launch adds a projectile, assigning its ID and creation sequence.
func (r *Resolver) Launch(p Projectile) *Projectile {
	r.seq++
	p.ID = r.newID()
	p.Seq = r.seq
	proj := &p
	r.projectiles = append(r.projectiles, proj)
	return proj
}

// Len returns the number of projectiles in flight.
func (r *Resolver) Len() int { return len(r.projectiles) }

// Active returns the projectiles in flight in creation order.
func (r *Resolver) Active() []*Projectile {
	return append([]*Projectile(nil), r.projectiles...)
}

// Statuses returns snapshot views of the projectiles in flight.
func (r *Resolver) Statuses() []core.ProjectileStatus {
	out := make([]core.ProjectileStatus, 0, len(r.projectiles))
	for _, p := range r.projectiles {
		out = append(out, p.Status())
	}
	return out
}

// Advance moves every projectile forward by dt in creation order. Each
// impact is handed to apply before the next projectile moves, so damage
// from an earlier projectile is visible to later ones.
func (r *Resolver) Advance(dt time.Duration, targets []Target, apply func(Impact)) {
	remaining := r.projectiles[:0]
	for _, p := range r.projectiles {
		impact, done := step(p, dt, targets)
		if !done {
			remaining = append(remaining, p)
			continue
		}
		if apply != nil {
			apply(impact)
		}
	}
	for i := len(remaining); i < len(r.projectiles); i++ {
		r.projectiles[i] = nil
	}
	r.projectiles = remaining
}

func step(p *Projectile, dt time.Duration, targets []Target) (Impact, bool) {
	travel := propulsion.KnotsToMS(p.Speed) * dt.Seconds()
	if travel > p.Remaining {
		travel = p.Remaining
	}
	from := p.Position
	to := geo.Move(from, p.Heading, travel)

	var (
		victim Target
		best   = math.Inf(1)
	)
	for _, t := range targets {
		if t.ID() == p.Origin || t.Destroyed() {
			continue
		}
		if geo.SweptDistance(from, to, t.Position()) > t.HitRadius() {
			continue
		}
		// first vessel along the path
		if along := geo.Distance(from, t.Position()); along < best {
			victim, best = t, along
		}
	}

	if victim != nil {
		p.Position = victim.Position()
		p.Remaining = 0
		return Impact{Projectile: p, Victim: victim.ID(), Position: p.Position}, true
	}

	p.Position = to
	p.Remaining -= travel
	if p.Remaining <= 0 {
		p.Remaining = 0
		return Impact{Projectile: p, Position: to}, true
	}
	return Impact{}, false
}

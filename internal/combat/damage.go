package combat

import (
	"math"

	"github.com/OCAP2/navalsim/internal/geo"
	"github.com/OCAP2/navalsim/pkg/core"
)

// Dice is the source of randomness for combat rolls. *rand.Rand satisfies it.
type Dice interface {
	Float64() float64
}

// Location is where on a vessel a projectile strikes.
type Location string

const (
	LocationGunMount     Location = "gun_mount"
	LocationTorpedoMount Location = "torpedo_mount"
	LocationEngineRoom   Location = "engine_room"
	LocationBridge       Location = "bridge"
	LocationHull         Location = "hull"
)

var locationWeights = []struct {
	loc    Location
	weight float64
}{
	{LocationGunMount, 0.15},
	{LocationTorpedoMount, 0.10},
	{LocationEngineRoom, 0.25},
	{LocationBridge, 0.08},
}

// RollLocation picks a hit location.
func RollLocation(d Dice) Location {
	roll := d.Float64()
	for _, w := range locationWeights {
		if roll < w.weight {
			return w.loc
		}
		roll -= w.weight
	}
	return LocationHull
}

// Station returns the crew station exposed by a hit location.
func (l Location) Station() (core.Station, bool) {
	switch l {
	case LocationGunMount:
		return core.StationGunnery, true
	case LocationTorpedoMount:
		return core.StationTorpedo, true
	case LocationEngineRoom:
		return core.StationEngineering, true
	case LocationBridge:
		return core.StationBridge, true
	}
	return "", false
}

// DisableChance is the chance that a module survives the damage on paper
// but is knocked out anyway.
const DisableChance = 0.2

// Lethality is the chance a crew member at a struck station is killed.
func Lethality(damage int) float64 {
	return math.Min(0.9, float64(damage)/200)
}

// Roll reports whether an event of probability p happens.
func Roll(d Dice, p float64) bool {
	return d.Float64() < p
}

// Dispersion is the radius in meters of the circle a shell lands in.
// It grows with range and with poor visibility.
func Dispersion(rangeM, maxRange, visibility float64) float64 {
	if visibility <= 0 {
		visibility = 0.1
	}
	frac := 0.0
	if maxRange > 0 {
		frac = math.Min(rangeM/maxRange, 1)
	}
	return (50 + 400*frac) / math.Min(visibility, 1)
}

// Scatter returns a point uniformly distributed within radius of aim.
func Scatter(d Dice, aim core.Position, radius float64) core.Position {
	if radius <= 0 {
		return aim
	}
	r := radius * math.Sqrt(d.Float64())
	return geo.Move(aim, 360*d.Float64(), r)
}

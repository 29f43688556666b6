package propulsion

import "math"

const (
	seawaterDensity    = 1025.0  // kg/m^3
	kinematicViscosity = 1.19e-6 // m^2/s
	gravity            = 9.81
	// bisection bounds for achievable speed, m/s
	searchCeiling = 50.0
	searchSteps   = 60
)

// KnotsToMS converts knots to meters per second.
func KnotsToMS(knots float64) float64 { return knots * 1852 / 3600 }

// MSToKnots converts meters per second to knots.
func MSToKnots(ms float64) float64 { return ms * 3600 / 1852 }

func frictionCoefficient(speed, length float64) float64 {
	re := speed * length / kinematicViscosity
	// ITTC-57 line is meaningless in the laminar range
	if re < 1e3 {
		re = 1e3
	}
	d := math.Log10(re) - 2
	return 0.075 / (d * d)
}

func residualCoefficient(speed, length float64) float64 {
	fn := speed / math.Sqrt(gravity*length)
	return 0.0004 * math.Pow(fn, 4)
}

// Resistance returns the total hull resistance in newtons at the given
// speed (m/s) for a hull of the given waterline length (m).
func Resistance(speed, length float64) float64 {
	if speed <= 0 || length <= 0 {
		return 0
	}
	cf := frictionCoefficient(speed, length)
	cr := residualCoefficient(speed, length)
	return 0.5 * seawaterDensity * speed * speed * length * length * (cf + cr)
}

// AchievableSpeed solves Resistance(v)*v = power for v by bisection and
// returns the result in m/s. power is in watts.
func AchievableSpeed(power, length float64) float64 {
	if power <= 0 || length <= 0 {
		return 0
	}
	lo, hi := 0.0, searchCeiling
	if Resistance(hi, length)*hi <= power {
		return hi
	}
	for i := 0; i < searchSteps; i++ {
		mid := (lo + hi) / 2
		if Resistance(mid, length)*mid > power {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

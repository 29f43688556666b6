package geo

import (
	"errors"
	"math"

	"github.com/OCAP2/navalsim/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Movement happens in web mercator (EPSG:3857). Mercator distances are
// stretched by 1/cos(lat), so every metric quantity is rescaled by the local
// scale factor before it leaves this package.

// MetersPerNauticalMile converts nautical miles to meters.
const MetersPerNauticalMile = 1852.0

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

var (
	toMercator   = wgs84.EPSG().Transform(4326, 3857)
	fromMercator = wgs84.EPSG().Transform(3857, 4326)
)

// Validate checks that a position is a usable WGS84 coordinate.
func Validate(p core.Position) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || p.Lat < -85 || p.Lat > 85 || p.Lon < -180 || p.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Mercator projects a position into EPSG:3857 meters.
func Mercator(p core.Position) geom.XY {
	x, y, _ := toMercator(p.Lon, p.Lat, 0)
	return geom.XY{X: x, Y: y}
}

// FromMercator converts EPSG:3857 meters back into a position.
func FromMercator(xy geom.XY) core.Position {
	lon, lat, _ := fromMercator(xy.X, xy.Y, 0)
	return core.Position{Lat: lat, Lon: lon}
}

// scale is the mercator stretch factor at the given latitude.
func scale(lat float64) float64 {
	return 1 / math.Cos(lat*math.Pi/180)
}

// Move returns the position reached after travelling meters along bearing.
func Move(p core.Position, bearing, meters float64) core.Position {
	if meters == 0 {
		return p
	}
	k := scale(p.Lat)
	rad := bearing * math.Pi / 180
	xy := Mercator(p)
	xy.X += meters * math.Sin(rad) * k
	xy.Y += meters * math.Cos(rad) * k
	return FromMercator(xy)
}

// Distance returns the approximate distance in meters between two positions.
func Distance(a, b core.Position) float64 {
	pa, pb := Mercator(a), Mercator(b)
	return math.Hypot(pb.X-pa.X, pb.Y-pa.Y) / scale((a.Lat+b.Lat)/2)
}

// Bearing returns the rhumb-line bearing from a to b in degrees [0,360).
func Bearing(a, b core.Position) float64 {
	pa, pb := Mercator(a), Mercator(b)
	return NormalizeHeading(math.Atan2(pb.X-pa.X, pb.Y-pa.Y) * 180 / math.Pi)
}

// NormalizeHeading wraps an angle into [0,360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// AngleDiff returns the signed shortest rotation from a to b in (-180,180].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// Point creates a 3857 geom point for a position.
func Point(p core.Position) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   Mercator(p),
		Type: geom.DimXY,
	})
}

package geo

import (
	"github.com/OCAP2/navalsim/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Track builds a 3857 line string through the given positions.
func Track(points []core.Position) geom.LineString {
	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		xy := Mercator(p)
		flatCoords = append(flatCoords, xy.X, xy.Y)
	}
	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq)
}

// SweptDistance returns the closest approach in meters between target and
// the segment travelled from a to b.
func SweptDistance(a, b, target core.Position) float64 {
	if a == b {
		return Distance(a, target)
	}
	seg := Track([]core.Position{a, b})
	d, ok := geom.Distance(seg.AsGeometry(), Point(target).AsGeometry())
	if !ok {
		return Distance(a, target)
	}
	return d / scale(target.Lat)
}

package sde

import "github.com/sudorandom/telescope/pkg/mapengine"

const (
	// DefaultFactor shrinks raw SDE coordinates (metres) to map units.
	DefaultFactor = 50000000000000
	// DefaultRegionFactor spreads the schematic regional layout, whose
	// coordinates are small grid positions.
	DefaultRegionFactor = -2
)

// Correction is applied once when rows are read, never downstream. A factor
// above 1 divides, a factor below -1 multiplies by its magnitude, anything
// else leaves values alone. Invert flips the sign of every axis.
type Correction struct {
	Factor int64
	Invert bool
}

// Identity leaves coordinates untouched.
var Identity = Correction{Factor: 1}

func (c Correction) apply(v float64) float64 {
	switch {
	case c.Factor > 1:
		v /= float64(c.Factor)
	case c.Factor < -1:
		v *= float64(-c.Factor)
	}
	if c.Invert {
		v = -v
	}
	return v
}

// Point corrects a raw (x, y, z) triple. The map plane is x/z; y, the
// galactic height, is kept as the third axis.
func (c Correction) Point(x, y, z float64) (mapengine.Vec2, float64) {
	return mapengine.Vec2{X: c.apply(x), Y: c.apply(z)}, c.apply(y)
}

// Plane corrects a coordinate that is already planar.
func (c Correction) Plane(x, y float64) mapengine.Vec2 {
	return mapengine.Vec2{X: c.apply(x), Y: c.apply(y)}
}

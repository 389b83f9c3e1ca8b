// Package geometry holds the vector, quaternion and contour helpers used to
// place a cube on its target body.
package geometry

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
)

// Norm returns the Euclidean norm of v
func Norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Hat returns v scaled to unit length. A zero vector yields NaNs.
func Hat(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	floats.Scale(1/Norm(v), out)
	return out
}

// Deg180 wraps an angle in degrees into [-180, 180)
func Deg180(ang float64) float64 {
	return pmod(ang+180, 360) - 180
}

// Deg360 wraps an angle in degrees into [0, 360)
func Deg360(ang float64) float64 {
	return pmod(ang, 360)
}

// pmod is a modulo with the sign of the divisor
func pmod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	if r == m {
		return 0
	}
	return r
}

// LonLat converts a body-fixed cartesian vector into west longitude in
// [0, 360) and north latitude, both in degrees.
func LonLat(v r3.Vector) (lonW, lat float64) {
	lonW = Deg360(-math.Atan2(v.Y, v.X) * 180 / math.Pi)
	lat = math.Asin(v.Z/v.Norm()) * 180 / math.Pi
	return lonW, lat
}

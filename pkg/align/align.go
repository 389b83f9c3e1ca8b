// Package align estimates the shift between an image and its navigation
// backplanes.
package align

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"ssicube/pkg/ssi"
)

// Axis selects the direction of the offset
type Axis int

const (
	// Lines sums over lines and measures the offset along samples
	Lines Axis = 0
	// Samples sums over samples and measures the offset along lines
	Samples Axis = 1
)

var ErrShape = errors.New("data and navigation shapes differ")

// Offset returns the shift to apply to data so that it lines up with nav.
// Both images are summed along axis ignoring NaNs; nav only counts where its
// sum is positive. The offset is the negated lag of the cross-correlation
// maximum, lags being centred on half the profile length.
func Offset(data, nav *ssi.Image, axis Axis) (int, error) {
	if data.NS() != nav.NS() || data.NL() != nav.NL() {
		return 0, errors.Wrapf(ErrShape, "%dx%d and %dx%d", data.NS(), data.NL(), nav.NS(), nav.NL())
	}
	if axis != Lines && axis != Samples {
		return 0, errors.Errorf("axis must be 0 or 1, got %d", axis)
	}

	d := nansum(data, axis)
	n := nansum(nav, axis)
	for i, v := range n {
		if v > 0 {
			n[i] = 1
		} else {
			n[i] = 0
		}
	}

	cross := correlate(d, n)
	return len(cross)/2 - floats.MaxIdx(cross), nil
}

// Offsets returns the offsets along both axes (Lines, then Samples)
func Offsets(data, nav *ssi.Image) (int, int, error) {
	a, err := Offset(data, nav, Lines)
	if err != nil {
		return 0, 0, err
	}
	b, err := Offset(data, nav, Samples)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// nansum collapses an image along axis, skipping NaNs
func nansum(im *ssi.Image, axis Axis) []float64 {
	ns, nl := im.NS(), im.NL()
	values := im.Values()
	var out []float64
	if axis == Lines {
		out = make([]float64, ns)
	} else {
		out = make([]float64, nl)
	}
	for l := 0; l < nl; l++ {
		for s := 0; s < ns; s++ {
			v := float64(values[l*ns+s])
			if math.IsNaN(v) {
				continue
			}
			if axis == Lines {
				out[s] += v
			} else {
				out[l] += v
			}
		}
	}
	return out
}

// correlate is the cross-correlation of a and v at the len(a) lags centred
// on zero: c[i] = sum_n a[n+k] v[n] with k = i - len(a)/2.
func correlate(a, v []float64) []float64 {
	n := len(a)
	out := make([]float64, n)
	for i := range out {
		k := i - n/2
		for j := range v {
			if j+k >= 0 && j+k < n {
				out[i] += a[j+k] * v[j]
			}
		}
	}
	return out
}

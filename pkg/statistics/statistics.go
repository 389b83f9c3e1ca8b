// Package statistics summarises cube bands and compares bands with each other.
// NaN samples are counted but excluded from every other measure.
package statistics

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"ssicube/internal/models"
)

// entropyBins is the histogram resolution used for Shannon entropy
const entropyBins = 256

// BandStats describes the finite samples of one band.
type BandStats struct {
	// Band is the 1-based band number
	Band int `yaml:"band"`

	// Count is the number of samples in the band, NaN included
	Count int `yaml:"count"`

	// NaN is the number of invalid samples (special pixels)
	NaN int `yaml:"nan"`

	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
	Median float64 `yaml:"median"`

	// P01 and P99 are the 1st and 99th percentiles, a robust display range
	P01 float64 `yaml:"p01"`
	P99 float64 `yaml:"p99"`

	// Entropy is the Shannon entropy (bits) of a 256 bin histogram spanning
	// [Min, Max]. A constant band has zero entropy.
	Entropy float64 `yaml:"entropy"`
}

// finite returns the non-NaN samples as float64
func finite(data []float32) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0) {
			out = append(out, float64(v))
		}
	}
	return out
}

// Band computes the statistics of one band
func Band(data []float32, band int) BandStats {
	s := BandStats{Band: band, Count: len(data)}
	values := finite(data)
	s.NaN = len(data) - len(values)
	if len(values) == 0 {
		nan := math.NaN()
		s.Min, s.Max, s.Mean, s.StdDev, s.Median, s.P01, s.P99 = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sort.Float64s(values)
	s.Min, s.Max = values[0], values[len(values)-1]
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		s.StdDev = 0
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
	s.P01 = stat.Quantile(0.01, stat.Empirical, values, nil)
	s.P99 = stat.Quantile(0.99, stat.Empirical, values, nil)
	s.Entropy = entropy(values, s.Min, s.Max)
	return s
}

// Volume computes the statistics of every band
func Volume(v *models.Volume) ([]BandStats, error) {
	out := make([]BandStats, 0, v.Bands)
	for b := 0; b < v.Bands; b++ {
		data, err := v.Band(b)
		if err != nil {
			return nil, errors.Wrapf(err, "band %d", b+1)
		}
		out = append(out, Band(data, b+1))
	}
	return out, nil
}

// entropy computes the Shannon entropy of values within [min, max]
func entropy(values []float64, min, max float64) float64 {
	if len(values) == 0 || max <= min {
		return 0
	}
	hist := make([]float64, entropyBins)
	width := (max - min) / entropyBins
	for _, v := range values {
		i := int((v - min) / width)
		if i >= entropyBins {
			i = entropyBins - 1
		} else if i < 0 {
			i = 0
		}
		hist[i]++
	}

	h := 0.0
	n := float64(len(values))
	for _, c := range hist {
		if c > 0 {
			p := c / n
			h -= p * math.Log2(p)
		}
	}
	return h
}

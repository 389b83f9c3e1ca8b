package models

import (
	"fmt"
	"math"
)

// Volume holds the samples of an image cube
type Volume struct {
	// Data is the cube as a 1D array in band, line, sample order
	// (index = band*Lines*Samples + line*Samples + sample, all 0-based)
	Data []float32

	// Samples is the number of samples per line (image width)
	Samples int

	// Lines is the number of lines per band (image height)
	Lines int

	// Bands is the number of bands (layers) in the cube
	Bands int
}

// NewVolume allocates a volume of the given geometry
func NewVolume(samples, lines, bands int) *Volume {
	return &Volume{
		Data:    make([]float32, samples*lines*bands),
		Samples: samples,
		Lines:   lines,
		Bands:   bands,
	}
}

// Shape returns the dimensions as (bands, lines, samples)
func (v *Volume) Shape() [3]int {
	return [3]int{v.Bands, v.Lines, v.Samples}
}

// Index returns the flat index of a 0-based (band, line, sample) position
func (v *Volume) Index(band, line, sample int) int {
	return (band*v.Lines+line)*v.Samples + sample
}

// InBounds reports whether a 0-based position lies inside the volume
func (v *Volume) InBounds(band, line, sample int) bool {
	return band >= 0 && band < v.Bands &&
		line >= 0 && line < v.Lines &&
		sample >= 0 && sample < v.Samples
}

// At returns the value at a 0-based position
func (v *Volume) At(band, line, sample int) float32 {
	return v.Data[v.Index(band, line, sample)]
}

// Set stores a value at a 0-based position
func (v *Volume) Set(band, line, sample int, value float32) {
	v.Data[v.Index(band, line, sample)] = value
}

// Band returns the samples of one 0-based band, sharing the volume's storage
func (v *Volume) Band(band int) ([]float32, error) {
	if band < 0 || band >= v.Bands {
		return nil, fmt.Errorf("band %d outside [0, %d)", band, v.Bands)
	}
	size := v.Lines * v.Samples
	return v.Data[band*size : (band+1)*size], nil
}

// CountNaN returns the number of invalid samples
func (v *Volume) CountNaN() int {
	n := 0
	for _, x := range v.Data {
		if math.IsNaN(float64(x)) {
			n++
		}
	}
	return n
}

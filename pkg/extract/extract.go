// Package extract cuts planes, regions and spectra out of a cube volume and
// saves them as numpy arrays. Positions are 0-based.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"ssicube/internal/models"
	"ssicube/pkg/npy"
)

// Axis is the direction a plane is cut across
type Axis string

const (
	// BandAxis cuts a lines x samples image at one band
	BandAxis Axis = "band"
	// LineAxis cuts a bands x samples plane at one line
	LineAxis Axis = "line"
	// SampleAxis cuts a lines x bands plane at one sample
	SampleAxis Axis = "sample"
)

// ParseAxis accepts band, line or sample and their initials
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "band", "b":
		return BandAxis, nil
	case "line", "l":
		return LineAxis, nil
	case "sample", "s":
		return SampleAxis, nil
	}
	return "", errors.Errorf("invalid axis: %s (must be band, line or sample)", s)
}

// Plane is a 2D cut of a volume, stored row by row
type Plane struct {
	Data   []float32
	Width  int
	Height int
}

// Extractor cuts data out of a volume
type Extractor struct {
	vol *models.Volume
}

// New creates an extractor over vol
func New(vol *models.Volume) *Extractor {
	return &Extractor{vol: vol}
}

func (e *Extractor) extent(axis Axis) (int, error) {
	switch axis {
	case BandAxis:
		return e.vol.Bands, nil
	case LineAxis:
		return e.vol.Lines, nil
	case SampleAxis:
		return e.vol.Samples, nil
	}
	return 0, errors.Errorf("invalid axis: %s (must be band, line or sample)", axis)
}

// Plane extracts the plane at position along axis
func (e *Extractor) Plane(axis Axis, position int) (*Plane, error) {
	n, err := e.extent(axis)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= n {
		return nil, errors.Errorf("position %d outside [0, %d) along %s", position, n, axis)
	}

	v := e.vol
	var p *Plane
	switch axis {
	case BandAxis:
		p = &Plane{Width: v.Samples, Height: v.Lines, Data: make([]float32, v.Samples*v.Lines)}
		for l := 0; l < v.Lines; l++ {
			for s := 0; s < v.Samples; s++ {
				p.Data[l*v.Samples+s] = v.At(position, l, s)
			}
		}
	case LineAxis:
		p = &Plane{Width: v.Samples, Height: v.Bands, Data: make([]float32, v.Samples*v.Bands)}
		for b := 0; b < v.Bands; b++ {
			for s := 0; s < v.Samples; s++ {
				p.Data[b*v.Samples+s] = v.At(b, position, s)
			}
		}
	case SampleAxis:
		p = &Plane{Width: v.Bands, Height: v.Lines, Data: make([]float32, v.Bands*v.Lines)}
		for l := 0; l < v.Lines; l++ {
			for b := 0; b < v.Bands; b++ {
				p.Data[l*v.Bands+b] = v.At(b, l, position)
			}
		}
	}
	return p, nil
}

// Region extracts the sub-volume starting at (band, line, sample) with the given size
func (e *Extractor) Region(band, line, sample, bands, lines, samples int) (*models.Volume, error) {
	if band < 0 || line < 0 || sample < 0 {
		return nil, errors.New("start coordinates must be non-negative")
	}
	if bands <= 0 || lines <= 0 || samples <= 0 {
		return nil, errors.New("size dimensions must be positive")
	}
	v := e.vol
	if band+bands > v.Bands || line+lines > v.Lines || sample+samples > v.Samples {
		return nil, errors.New("region extends beyond volume boundaries")
	}

	region := models.NewVolume(samples, lines, bands)
	for b := 0; b < bands; b++ {
		for l := 0; l < lines; l++ {
			for s := 0; s < samples; s++ {
				region.Set(b, l, s, v.At(band+b, line+l, sample+s))
			}
		}
	}
	return region, nil
}

// Spectrum returns the value of every band at (sample, line)
func (e *Extractor) Spectrum(sample, line int) ([]float32, error) {
	v := e.vol
	if !v.InBounds(0, line, sample) {
		return nil, errors.Errorf("pixel (%d, %d) outside %dx%d", sample, line, v.Samples, v.Lines)
	}
	out := make([]float32, v.Bands)
	for b := range out {
		out[b] = v.At(b, line, sample)
	}
	return out, nil
}

// SavePlane saves a plane as a (height, width) .npy array
func SavePlane(p *Plane, filename string) error {
	return npy.WriteFile(filename, p.Data, p.Height, p.Width)
}

// SavePlaneSequence saves every plane along axis into outputDir, named
// plane_<axis>_<position>.npy
func (e *Extractor) SavePlaneSequence(axis Axis, outputDir string) ([]string, error) {
	n, err := e.extent(axis)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create %s", outputDir)
	}

	files := make([]string, 0, n)
	for pos := 0; pos < n; pos++ {
		p, err := e.Plane(axis, pos)
		if err != nil {
			return nil, err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("plane_%s_%03d.npy", axis, pos))
		if err := SavePlane(p, filename); err != nil {
			return nil, err
		}
		files = append(files, filename)
	}
	return files, nil
}

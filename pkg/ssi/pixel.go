package ssi

import (
	"fmt"

	"github.com/pkg/errors"
)

// Pixel is a 1-based (sample, line) position on an SSI cube
type Pixel struct {
	cube *SSI
	S, L int
}

// Pixel returns the pixel at sample s and line l
func (s *SSI) Pixel(sample, line int) (*Pixel, error) {
	if sample < 1 || sample > s.Samples() {
		return nil, errors.Wrapf(ErrOutOfRange, "sample %d must be between 1 and %d", sample, s.Samples())
	}
	if line < 1 || line > s.Lines() {
		return nil, errors.Wrapf(ErrOutOfRange, "line %d must be between 1 and %d", line, s.Lines())
	}
	return &Pixel{cube: s, S: sample, L: line}, nil
}

func (p *Pixel) String() string {
	return fmt.Sprintf("%s-S%d_L%d", p.cube.ImgID(), p.S, p.L)
}

func (p *Pixel) value(img *Image, err error) (float32, error) {
	if err != nil {
		return 0, err
	}
	return img.At(p.S, p.L)
}

// IF returns the pixel reflectance (I/F)
func (p *Pixel) IF() (float32, error) { return p.value(p.cube.Data()) }

// Lon returns the pixel west longitude (degrees)
func (p *Pixel) Lon() (float32, error) { return p.value(p.cube.Longitude()) }

// Lat returns the pixel north latitude (degrees)
func (p *Pixel) Lat() (float32, error) { return p.value(p.cube.Latitude()) }

// Inc returns the local incidence angle (degrees)
func (p *Pixel) Inc() (float32, error) { return p.value(p.cube.Incidence()) }

// Emi returns the local emission angle (degrees)
func (p *Pixel) Emi() (float32, error) { return p.value(p.cube.Emission()) }

// Phase returns the local phase angle (degrees)
func (p *Pixel) Phase() (float32, error) { return p.value(p.cube.Phase()) }

// Res returns the ground pixel resolution (km/pixel)
func (p *Pixel) Res() (float32, error) { return p.value(p.cube.Resolution()) }

// Describe lists the pixel values, skipping the backplanes the cube lacks
func (p *Pixel) Describe() string {
	out := fmt.Sprintf("%s\n - Sample: %d\n - Line: %d", p, p.S, p.L)
	fields := []struct {
		name, format string
		get          func() (float32, error)
	}{
		{"I/F", "%.2e", p.IF},
		{"Lon", "%.1f°W", p.Lon},
		{"Lat", "%.1f°N", p.Lat},
		{"Inc", "%.1f°", p.Inc},
		{"Emi", "%.1f°", p.Emi},
		{"Phase", "%.1f°", p.Phase},
		{"Res", "%.1f km/pix", p.Res},
	}
	for _, f := range fields {
		if v, err := f.get(); err == nil {
			out += fmt.Sprintf("\n - %s: "+f.format, f.name, v)
		}
	}
	return out
}

// Package ssi exposes Galileo Solid State Imaging cubes processed by ISIS:
// the calibrated I/F layer and the backplanes (angles, coordinates,
// resolution) stacked as named bands.
package ssi

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"ssicube/pkg/isis"
)

var (
	ErrLayerNotFound = errors.New("layer not found")
	ErrOutOfRange    = errors.New("pixel out of range")
)

// Backplane layer names written by the ISIS photometric pipeline
const (
	LayerPhase      = "Phase Angle"
	LayerIncidence  = "Incidence Angle"
	LayerEmission   = "Emission Angle"
	LayerLongitude  = "Longitude"
	LayerLatitude   = "Latitude"
	LayerResolution = "Pixel Resolution"
)

// SSI is a loaded Galileo SSI cube
type SSI struct {
	*isis.Cube
}

// Open loads the cube at path with all its bands
func Open(path string, opts ...isis.Option) (*SSI, error) {
	c, err := isis.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return &SSI{Cube: c}, nil
}

// ImgID is the file name up to its first dot
func (s *SSI) ImgID() string {
	base := filepath.Base(s.Path())
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

func (s *SSI) String() string { return s.ImgID() }

// Size returns the image size as (lines, samples)
func (s *SSI) Size() (int, int) { return s.Lines(), s.Samples() }

// FilterName returns BandBin/FilterName
func (s *SSI) FilterName() (string, error) {
	v, err := s.BandBin("FilterName")
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// Layers lists the band names from BandBin/Name
func (s *SSI) Layers() ([]string, error) {
	v, err := s.BandBin("Name")
	if err != nil {
		return nil, err
	}
	return v.Strings()
}

func (s *SSI) layer(name string) (int, error) {
	layers, err := s.Layers()
	if err != nil {
		return 0, errors.Wrap(ErrLayerNotFound, err.Error())
	}
	for i, l := range layers {
		if l == name {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrLayerNotFound, "%q", name)
}

// Band returns the layer called name
func (s *SSI) Band(name string) (*Image, error) {
	i, err := s.layer(name)
	if err != nil {
		return nil, err
	}
	return s.bandImage(i)
}

func (s *SSI) bandImage(i int) (*Image, error) {
	data, err := s.Cube.Data().Band(i)
	if err != nil {
		return nil, err
	}
	return NewImage(data, s.Samples(), s.Lines())
}

// Data returns the I/F layer, named after the filter. Cubes without a
// layer of that name keep the I/F in their first band.
func (s *SSI) Data() (*Image, error) {
	filter, err := s.FilterName()
	if err == nil {
		img, err := s.Band(filter)
		if err == nil {
			return img, nil
		}
		if !errors.Is(err, ErrLayerNotFound) {
			return nil, err
		}
	}
	return s.bandImage(0)
}

// Phase returns the phase angle layer (degrees)
func (s *SSI) Phase() (*Image, error) { return s.Band(LayerPhase) }

// Incidence returns the incidence angle layer (degrees)
func (s *SSI) Incidence() (*Image, error) { return s.Band(LayerIncidence) }

// Emission returns the emission angle layer (degrees)
func (s *SSI) Emission() (*Image, error) { return s.Band(LayerEmission) }

// Longitude returns the west longitude layer (degrees)
func (s *SSI) Longitude() (*Image, error) { return s.Band(LayerLongitude) }

// Latitude returns the north latitude layer (degrees)
func (s *SSI) Latitude() (*Image, error) { return s.Band(LayerLatitude) }

// Resolution returns the ground pixel resolution layer (km/pixel)
func (s *SSI) Resolution() (*Image, error) { return s.Band(LayerResolution) }

// Summary describes the cube on a few lines
func (s *SSI) Summary() string { return s.summary(s.FilterName, s.Exposure) }

// summary takes the filter and exposure readers so that instruments
// embedding SSI report their own values
func (s *SSI) summary(filter func() (string, error), exposure func() (float64, string, error)) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cube: %s\n", s.ImgID())
	fmt.Fprintf(&b, " - Size: (%d, %d)\n", s.Samples(), s.Lines())
	if t, err := s.StartTime(); err == nil {
		fmt.Fprintf(&b, " - Start time: %s\n", t.Format("2006-01-02T15:04:05.000"))
	}
	if f, err := filter(); err == nil {
		fmt.Fprintf(&b, " - Filter name: %s\n", f)
	}
	if v, unit, err := exposure(); err == nil {
		fmt.Fprintf(&b, " - Exposure: %g %s\n", v, unit)
	}
	if t, err := s.TargetName(); err == nil {
		fmt.Fprintf(&b, " - Main target: %s\n", t)
	}
	return b.String()
}

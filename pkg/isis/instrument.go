package isis

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"ssicube/internal/pvl"
)

// StartTime returns Instrument/StartTime in UTC
func (c *Cube) StartTime() (time.Time, error) {
	v, err := c.groupValue("Instrument", "StartTime")
	if err != nil {
		return time.Time{}, err
	}
	return v.AsTime()
}

// StopTime returns Instrument/StopTime in UTC
func (c *Cube) StopTime() (time.Time, error) {
	v, err := c.groupValue("Instrument", "StopTime")
	if err != nil {
		return time.Time{}, err
	}
	return v.AsTime()
}

// Duration returns the acquisition duration (stop - start)
func (c *Cube) Duration() (time.Duration, error) {
	start, err := c.StartTime()
	if err != nil {
		return 0, err
	}
	stop, err := c.StopTime()
	if err != nil {
		return 0, err
	}
	return stop.Sub(start), nil
}

// MidTime returns the middle of the acquisition
func (c *Cube) MidTime() (time.Time, error) {
	start, err := c.StartTime()
	if err != nil {
		return time.Time{}, err
	}
	d, err := c.Duration()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(d / 2), nil
}

// Exposure returns Instrument/ExposureDuration and its unit
func (c *Cube) Exposure() (float64, string, error) {
	v, err := c.groupValue("Instrument", "ExposureDuration")
	if err != nil {
		return 0, "", err
	}
	if v.IsList() && len(v.Items) > 0 {
		v = v.Items[0]
	}
	f, err := v.AsFloat()
	if err != nil {
		return 0, "", errors.Wrap(err, "Instrument/ExposureDuration")
	}
	return f, v.Unit, nil
}

// TargetName returns Instrument/TargetName
func (c *Cube) TargetName() (string, error) {
	v, err := c.groupValue("Instrument", "TargetName")
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// Kernels lists the SPICE kernel paths recorded in the Kernels group. Only
// values referencing a data area ($name) are kept.
func (c *Cube) Kernels() []string {
	g, ok := c.cube.Group("Kernels")
	if !ok {
		return nil
	}
	var kernels []string
	for _, it := range g.Keywords() {
		values, err := it.Value.Strings()
		if err != nil {
			continue
		}
		for _, s := range values {
			if strings.Contains(s, "$") {
				kernels = append(kernels, s)
			}
		}
	}
	return kernels
}

// TargetRadii returns the target body radii (km) from the NaifKeywords object
func (c *Cube) TargetRadii() ([]float64, error) {
	naif, ok := c.label.Object("NaifKeywords")
	if !ok {
		return nil, errors.Wrap(ErrKeyNotFound, "NaifKeywords object")
	}
	for _, it := range naif.Keywords() {
		if strings.Contains(strings.ToUpper(it.Key), "RADII") {
			return it.Value.Floats()
		}
	}
	return nil, errors.Wrap(ErrKeyNotFound, "target radii")
}

// TargetRadius returns the mean target radius (km): the cube root of the radii product
func (c *Cube) TargetRadius() (float64, error) {
	radii, err := c.TargetRadii()
	if err != nil {
		return 0, err
	}
	if len(radii) == 0 {
		return 0, errors.Wrap(ErrKeyNotFound, "target radii")
	}
	prod := 1.0
	for _, r := range radii {
		prod *= r
	}
	return math.Pow(prod, 1/float64(len(radii))), nil
}

// BandNumbers returns BandBin/OriginalBand
func (c *Cube) BandNumbers() ([]int64, error) {
	v, err := c.groupValue("BandBin", "OriginalBand")
	if err != nil {
		return nil, err
	}
	return v.Ints()
}

// Wavelengths returns the band central wavelengths from BandBin/Center
func (c *Cube) Wavelengths() ([]float64, error) {
	v, err := c.groupValue("BandBin", "Center")
	if err != nil {
		return nil, err
	}
	return v.Floats()
}

// BandBin returns a BandBin keyword
func (c *Cube) BandBin(key string) (pvl.Value, error) {
	return c.groupValue("BandBin", key)
}

// Instrument returns an Instrument keyword
func (c *Cube) Instrument(key string) (pvl.Value, error) {
	return c.groupValue("Instrument", key)
}

package ssi

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"ssicube/pkg/isis"
)

const (
	// AU is one astronomical unit in km
	AU = 1.49598e8
	// SolarFlux is the solar flux at 1 km (erg/cm2/s/Å/km2)
	SolarFlux = 176 * AU * AU
	// DefaultSpectralSource is the header keyword of the default radiance conversion factor
	DefaultSpectralSource = "RSOLAR"
)

var ErrDuplicateKey = errors.New("duplicate FITS header key")

// FITSHeader holds the FITS keywords of the original LORRI label. Values are
// float64, []float64, int64 or string.
type FITSHeader map[string]interface{}

// Float returns a numeric keyword; lists return their first element
func (h FITSHeader) Float(key string) (float64, error) {
	v, ok := h[key]
	if !ok {
		return 0, errors.Wrapf(isis.ErrKeyNotFound, "FITS header %s", key)
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case []float64:
		return x[0], nil
	}
	return 0, errors.Errorf("FITS header %s = %v is not a number", key, v)
}

// ParseFITSHeader reads "KEY = value" lines. Comment lines and lines without
// an assignment are skipped.
func ParseFITSHeader(lines []string) (FITSHeader, error) {
	hdr := FITSHeader{}
	for _, line := range lines {
		key, value, ok := parseFITSLine(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if _, dup := hdr[key]; dup {
			return nil, errors.Wrapf(ErrDuplicateKey, "%q", key)
		}
		hdr[key] = value
	}
	return hdr, nil
}

var fitsFloat = regexp.MustCompile(`-?\d+\.\d*(?:[eE]?[-+]?\d+)`)
var fitsInt = regexp.MustCompile(`^-?\d+`)

func parseFITSLine(line string) (string, interface{}, bool) {
	if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "COMMENT") {
		return "", nil, false
	}
	key, raw, ok := strings.Cut(line, " = ")
	if !ok {
		return "", nil, false
	}
	return strings.TrimSpace(key), fitsValue(strings.TrimSpace(raw)), true
}

// fitsValue keeps every float of a value, a leading integer standing alone,
// or the unquoted text
func fitsValue(raw string) interface{} {
	if m := fitsFloat.FindAllString(raw, -1); len(m) > 0 {
		floats := make([]float64, 0, len(m))
		for _, s := range m {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				continue
			}
			floats = append(floats, f)
		}
		if len(floats) == 1 {
			return floats[0]
		}
		if len(floats) > 1 {
			return floats
		}
	}
	if m := fitsInt.FindString(raw); m != "" && !intFollowedByWord(raw[len(m):]) {
		if i, err := strconv.ParseInt(m, 10, 64); err == nil {
			return i
		}
	}
	return strings.ReplaceAll(raw, `"`, "")
}

// intFollowedByWord reports whether the text after a digit run continues a
// word, a date or a path
func intFollowedByWord(rest string) bool {
	if rest == "" {
		return false
	}
	c := rest[0]
	return c == '_' || c == '-' || c == '/' || c == ':' || c == '.' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// LORRI is a New Horizons LORRI cube, read with the SSI camera model
type LORRI struct {
	*SSI
	src string
	hdr FITSHeader
}

// OpenLORRI loads a LORRI cube. src selects the header keyword of the
// spectral radiance conversion factor; empty means RSOLAR.
func OpenLORRI(path, src string, opts ...isis.Option) (*LORRI, error) {
	s, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	if src == "" {
		src = DefaultSpectralSource
	}
	return &LORRI{SSI: s, src: src}, nil
}

// Source returns the spectral radiance keyword in use
func (l *LORRI) Source() string { return l.src }

// FilterName is always None: LORRI is panchromatic
func (l *LORRI) FilterName() (string, error) { return "None", nil }

// Summary describes the cube with the LORRI filter and exposure unit
func (l *LORRI) Summary() string { return l.summary(l.FilterName, l.Exposure) }

// Exposure returns Instrument/ExposureDuration in seconds
func (l *LORRI) Exposure() (float64, string, error) {
	v, _, err := l.SSI.Exposure()
	return v, "sec", err
}

// Header returns the FITS header kept in the original label
func (l *LORRI) Header() (FITSHeader, error) {
	if l.hdr != nil {
		return l.hdr, nil
	}
	lines, err := l.OriginalLabels()
	if err != nil {
		return nil, err
	}
	if l.hdr, err = ParseFITSHeader(lines); err != nil {
		return nil, err
	}
	return l.hdr, nil
}

// SunDistance returns the Sun to target centre range (km), SPCTSORN
func (l *LORRI) SunDistance() (float64, error) {
	hdr, err := l.Header()
	if err != nil {
		return 0, err
	}
	return hdr.Float("SPCTSORN")
}

// Data returns the radiance calibrated I/F of the "Data" layer:
// I = DN / exposure / header[src] and F = SolarFlux / pi / SPCTSORN^2.
func (l *LORRI) Data() (*Image, error) {
	raw, err := l.Band("Data")
	if err != nil {
		return nil, err
	}
	exposure, _, err := l.Exposure()
	if err != nil {
		return nil, err
	}
	hdr, err := l.Header()
	if err != nil {
		return nil, err
	}
	radiance, err := hdr.Float(l.src)
	if err != nil {
		return nil, err
	}
	dist, err := l.SunDistance()
	if err != nil {
		return nil, err
	}
	flux := SolarFlux / math.Pi / (dist * dist)

	in := raw.Values()
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(float64(v) / exposure / radiance / flux)
	}
	return NewImage(out, raw.NS(), raw.NL())
}

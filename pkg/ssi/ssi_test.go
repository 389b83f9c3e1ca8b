package ssi

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"ssicube/internal/cubetest"
)

const bandBin = `
  Group = Instrument
    SpacecraftName   = "Galileo Orbiter"
    TargetName       = EUROPA
    StartTime        = 1997-11-06T12:00:00.000
    StopTime         = 1997-11-06T12:00:00.100
    ExposureDuration = 12.5 <Millisec>
  End_Group

  Group = BandBin
    FilterName = VIOLET
    Name       = (VIOLET, "Phase Angle", "Incidence Angle", "Emission Angle",
                  Latitude, Longitude, "Pixel Resolution")
  End_Group
`

// layered fills band b, line l, sample s with b*100 + l*10 + s (0-based)
func layered(ns, nl, nb int) []float32 {
	v := make([]float32, 0, ns*nl*nb)
	for b := 0; b < nb; b++ {
		for l := 0; l < nl; l++ {
			for s := 0; s < ns; s++ {
				v = append(v, float32(b*100+l*10+s))
			}
		}
	}
	return v
}

func openSSI(t *testing.T, groups string) *SSI {
	t.Helper()
	path := cubetest.Write(t, t.TempDir(), "C0420361400R.cal.cub", cubetest.Cube{
		Samples: 3, Lines: 2, Bands: 7,
		Payload: cubetest.Float32s(binary.LittleEndian, layered(3, 2, 7)...),
		Groups:  groups,
	})
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open cube: %v", err)
	}
	return s
}

// TestSSILayers verifies the named layers of an SSI cube
func TestSSILayers(t *testing.T) {
	s := openSSI(t, bandBin)

	if s.ImgID() != "C0420361400R" {
		t.Errorf("Expected image id C0420361400R, got %s", s.ImgID())
	}
	if nl, ns := s.Size(); nl != 2 || ns != 3 {
		t.Errorf("Expected size (2, 3), got (%d, %d)", nl, ns)
	}

	layers, err := s.Layers()
	if err != nil {
		t.Fatalf("Failed to list layers: %v", err)
	}
	if len(layers) != 7 || layers[1] != LayerPhase {
		t.Errorf("Unexpected layers %v", layers)
	}

	tests := []struct {
		name string
		get  func() (*Image, error)
		band int
	}{
		{"data", s.Data, 0},
		{"phase", s.Phase, 1},
		{"incidence", s.Incidence, 2},
		{"emission", s.Emission, 3},
		{"latitude", s.Latitude, 4},
		{"longitude", s.Longitude, 5},
		{"resolution", s.Resolution, 6},
	}
	for _, tc := range tests {
		img, err := tc.get()
		if err != nil {
			t.Errorf("Failed to read %s layer: %v", tc.name, err)
			continue
		}
		v, err := img.At(3, 2)
		if err != nil {
			t.Errorf("Failed to read %s S3 L2: %v", tc.name, err)
			continue
		}
		if want := float32(tc.band*100 + 12); v != want {
			t.Errorf("Layer %s: expected %f, got %f", tc.name, want, v)
		}
	}

	if _, err := s.Band("Albedo"); !errors.Is(err, ErrLayerNotFound) {
		t.Errorf("Expected ErrLayerNotFound, got %v", err)
	}

	summary := s.Summary()
	if !strings.Contains(summary, "Filter name: VIOLET") || !strings.Contains(summary, "Main target: EUROPA") {
		t.Errorf("Unexpected summary:\n%s", summary)
	}
}

// TestSSIDataFallback verifies that the first band is used when no layer
// matches the filter name
func TestSSIDataFallback(t *testing.T) {
	groups := strings.Replace(bandBin, "FilterName = VIOLET", "FilterName = CLEAR", 1)
	s := openSSI(t, groups)

	img, err := s.Data()
	if err != nil {
		t.Fatalf("Failed to read data: %v", err)
	}
	if v, _ := img.At(1, 1); v != 0 {
		t.Errorf("Expected first band value 0, got %f", v)
	}
}

// TestImage verifies 1-based access and windows
func TestImage(t *testing.T) {
	img, err := NewImage([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	if err != nil {
		t.Fatalf("Failed to create image: %v", err)
	}
	if v, _ := img.At(1, 1); v != 1 {
		t.Errorf("Expected 1 at S1 L1, got %f", v)
	}
	if v, _ := img.At(3, 2); v != 6 {
		t.Errorf("Expected 6 at S3 L2, got %f", v)
	}

	for _, pos := range [][2]int{{0, 1}, {4, 1}, {1, 0}, {1, 3}} {
		if _, err := img.At(pos[0], pos[1]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Expected ErrOutOfRange at S%d L%d, got %v", pos[0], pos[1], err)
		}
	}

	w, err := img.Window(2, 3, 1, 2)
	if err != nil {
		t.Fatalf("Failed to extract window: %v", err)
	}
	if w.NS() != 2 || w.NL() != 2 {
		t.Errorf("Expected 2x2 window, got %dx%d", w.NS(), w.NL())
	}
	want := []float32{2, 3, 5, 6}
	for i, v := range w.Values() {
		if v != want[i] {
			t.Errorf("Window value %d: expected %f, got %f", i, want[i], v)
		}
	}
	if _, err := img.Window(3, 2, 1, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Expected ErrOutOfRange for an inverted window, got %v", err)
	}

	if _, err := NewImage([]float32{1, 2}, 3, 2); err == nil {
		t.Error("Expected an error for a short buffer")
	}
}

// TestPixel verifies pixel naming, bounds and values
func TestPixel(t *testing.T) {
	s := openSSI(t, bandBin)

	p, err := s.Pixel(2, 1)
	if err != nil {
		t.Fatalf("Failed to get pixel: %v", err)
	}
	if p.String() != "C0420361400R-S2_L1" {
		t.Errorf("Expected C0420361400R-S2_L1, got %s", p)
	}
	if v, _ := p.IF(); v != 1 {
		t.Errorf("Expected I/F 1, got %f", v)
	}
	if v, _ := p.Lon(); v != 501 {
		t.Errorf("Expected longitude 501, got %f", v)
	}
	if v, _ := p.Res(); v != 601 {
		t.Errorf("Expected resolution 601, got %f", v)
	}
	if !strings.Contains(p.Describe(), "Phase: 101.0°") {
		t.Errorf("Unexpected description:\n%s", p.Describe())
	}

	for _, pos := range [][2]int{{0, 1}, {4, 1}, {1, 0}, {1, 3}} {
		if _, err := s.Pixel(pos[0], pos[1]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Expected ErrOutOfRange at S%d L%d, got %v", pos[0], pos[1], err)
		}
	}
}

// TestFITSHeader verifies the parsing of original FITS header lines
func TestFITSHeader(t *testing.T) {
	hdr, err := ParseFITSHeader([]string{
		"SIMPLE  = T",
		"NAXIS   = 2 / number of axes",
		"EXPTIME = 0.0995 / exposure",
		"RSOLAR  = 112500.0",
		"RANGE   = 1.5e+2 2.5e-1",
		"DATE    = 2015-07-14",
		"TARGET  = \"PLUTO\"",
		"COMMENT = ignored",
		"# also ignored",
		"HISTORY without assignment",
	})
	if err != nil {
		t.Fatalf("Failed to parse header: %v", err)
	}

	if hdr["SIMPLE"] != "T" {
		t.Errorf("Expected SIMPLE = T, got %v", hdr["SIMPLE"])
	}
	if hdr["NAXIS"] != int64(2) {
		t.Errorf("Expected NAXIS = 2, got %#v", hdr["NAXIS"])
	}
	if v, _ := hdr.Float("EXPTIME"); v != 0.0995 {
		t.Errorf("Expected EXPTIME = 0.0995, got %v", v)
	}
	if r, ok := hdr["RANGE"].([]float64); !ok || len(r) != 2 || r[1] != 0.25 {
		t.Errorf("Expected RANGE = [150 0.25], got %#v", hdr["RANGE"])
	}
	if hdr["DATE"] != "2015-07-14" {
		t.Errorf("Expected DATE kept as text, got %#v", hdr["DATE"])
	}
	if hdr["TARGET"] != "PLUTO" {
		t.Errorf("Expected TARGET = PLUTO, got %#v", hdr["TARGET"])
	}
	if _, ok := hdr["COMMENT"]; ok {
		t.Error("Expected COMMENT lines to be skipped")
	}
	if len(hdr) != 7 {
		t.Errorf("Expected 7 keys, got %d", len(hdr))
	}

	if _, err := ParseFITSHeader([]string{"A = 1", "A = 2"}); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

// TestLORRI verifies the radiance calibration of LORRI cubes
func TestLORRI(t *testing.T) {
	groups := `
  Group = Instrument
    SpacecraftName   = "NEW HORIZONS"
    TargetName       = PLUTO
    StartTime        = 2015-07-14T11:00:00
    ExposureDuration = 0.5
  End_Group

  Group = BandBin
    Name = Data
  End_Group
`
	dist := 4.9e9
	header := "Object = OriginalLabel\n" +
		"SPCTSORN= 1.0 / placeholder\n" +
		"SPCTSORN = 4900000000.0\n" +
		"\n" +
		"RSOLAR  = 2.0\n" +
		"RPLUTO  = 4.0\n" +
		"End_Object\n" +
		"End\n"
	path := cubetest.Write(t, t.TempDir(), "lor_0299174809_0x630_sci.cub", cubetest.Cube{
		Samples: 2, Lines: 1, Bands: 1,
		Payload:       cubetest.Float32s(binary.LittleEndian, 10, 20),
		Groups:        groups,
		OriginalLabel: header,
	})

	l, err := OpenLORRI(path, "")
	if err != nil {
		t.Fatalf("Failed to open LORRI cube: %v", err)
	}
	if f, _ := l.FilterName(); f != "None" {
		t.Errorf("Expected filter None, got %s", f)
	}
	if _, unit, _ := l.Exposure(); unit != "sec" {
		t.Errorf("Expected exposure in sec, got %s", unit)
	}
	summary := l.Summary()
	for _, want := range []string{" - Filter name: None\n", " - Exposure: 0.5 sec\n"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Expected summary to contain %q, got %q", want, summary)
		}
	}
	if l.Source() != DefaultSpectralSource {
		t.Errorf("Expected default source %s, got %s", DefaultSpectralSource, l.Source())
	}

	d, err := l.SunDistance()
	if err != nil || d != dist {
		t.Fatalf("Expected sun distance %v, got %v (%v)", dist, d, err)
	}

	img, err := l.Data()
	if err != nil {
		t.Fatalf("Failed to calibrate data: %v", err)
	}
	flux := SolarFlux / math.Pi / (dist * dist)
	for i, dn := range []float64{10, 20} {
		want := dn / 0.5 / 2.0 / flux
		got := float64(img.Values()[i])
		if math.Abs(got-want)/want > 1e-6 {
			t.Errorf("Sample %d: expected %g, got %g", i, want, got)
		}
	}

	other, err := OpenLORRI(path, "RPLUTO")
	if err != nil {
		t.Fatalf("Failed to open LORRI cube: %v", err)
	}
	img, err = other.Data()
	if err != nil {
		t.Fatalf("Failed to calibrate data: %v", err)
	}
	if want := 10 / 0.5 / 4.0 / flux; math.Abs(float64(img.Values()[0])-want)/want > 1e-6 {
		t.Errorf("Expected %g with RPLUTO, got %g", want, img.Values()[0])
	}
}

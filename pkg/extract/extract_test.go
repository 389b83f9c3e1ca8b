package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"ssicube/internal/models"
)

// gradient fills the volume with b*100 + l*10 + s
func gradient(samples, lines, bands int) *models.Volume {
	v := models.NewVolume(samples, lines, bands)
	for b := 0; b < bands; b++ {
		for l := 0; l < lines; l++ {
			for s := 0; s < samples; s++ {
				v.Set(b, l, s, float32(b*100+l*10+s))
			}
		}
	}
	return v
}

// TestParseAxis verifies axis names and initials
func TestParseAxis(t *testing.T) {
	for in, want := range map[string]Axis{"band": BandAxis, "L": LineAxis, "Sample": SampleAxis} {
		got, err := ParseAxis(in)
		if err != nil || got != want {
			t.Errorf("ParseAxis(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseAxis("z"); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

// TestPlane verifies that planes are cut along each axis
func TestPlane(t *testing.T) {
	samples, lines, bands := 6, 4, 3
	e := New(gradient(samples, lines, bands))

	// Test band planes
	for b := 0; b < bands; b++ {
		p, err := e.Plane(BandAxis, b)
		if err != nil {
			t.Fatalf("Failed to extract band plane %d: %v", b, err)
		}
		if p.Width != samples || p.Height != lines {
			t.Errorf("Expected band plane dimensions %dx%d, got %dx%d", samples, lines, p.Width, p.Height)
		}
		if got, want := p.Data[2*samples+5], float32(b*100+25); got != want {
			t.Errorf("Expected band plane value %f, got %f", want, got)
		}
	}

	// Test line plane
	p, err := e.Plane(LineAxis, 2)
	if err != nil {
		t.Fatalf("Failed to extract line plane: %v", err)
	}
	if p.Width != samples || p.Height != bands {
		t.Errorf("Expected line plane dimensions %dx%d, got %dx%d", samples, bands, p.Width, p.Height)
	}
	if got := p.Data[1*samples+3]; got != 123 {
		t.Errorf("Expected line plane value 123, got %f", got)
	}

	// Test sample plane
	p, err = e.Plane(SampleAxis, 4)
	if err != nil {
		t.Fatalf("Failed to extract sample plane: %v", err)
	}
	if p.Width != bands || p.Height != lines {
		t.Errorf("Expected sample plane dimensions %dx%d, got %dx%d", bands, lines, p.Width, p.Height)
	}
	if got := p.Data[3*bands+2]; got != 234 {
		t.Errorf("Expected sample plane value 234, got %f", got)
	}

	// Test out of bounds position
	if _, err := e.Plane(BandAxis, bands); err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}
	if _, err := e.Plane(Axis("z"), 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

// TestRegion verifies that sub-volumes are correctly extracted
func TestRegion(t *testing.T) {
	e := New(gradient(10, 8, 5))

	region, err := e.Region(1, 3, 2, 2, 3, 4)
	if err != nil {
		t.Fatalf("Failed to extract region: %v", err)
	}
	if region.Shape() != [3]int{2, 3, 4} {
		t.Errorf("Expected region shape [2 3 4], got %v", region.Shape())
	}
	for b := 0; b < 2; b++ {
		for l := 0; l < 3; l++ {
			for s := 0; s < 4; s++ {
				want := float32((b+1)*100 + (l+3)*10 + s + 2)
				if got := region.At(b, l, s); got != want {
					t.Errorf("Region value mismatch at (%d,%d,%d): expected %f, got %f", b, l, s, want, got)
				}
			}
		}
	}

	// Test invalid parameters
	if _, err := e.Region(-1, 0, 0, 1, 1, 1); err == nil {
		t.Error("Expected error for negative start coordinate, got nil")
	}
	if _, err := e.Region(0, 0, 0, 0, 1, 1); err == nil {
		t.Error("Expected error for zero size, got nil")
	}
	if _, err := e.Region(0, 0, 9, 1, 1, 2); err == nil {
		t.Error("Expected error for region extending beyond volume, got nil")
	}
}

// TestSpectrum verifies the per-band values of one pixel
func TestSpectrum(t *testing.T) {
	e := New(gradient(4, 3, 3))
	spec, err := e.Spectrum(2, 1)
	if err != nil {
		t.Fatalf("Failed to extract spectrum: %v", err)
	}
	for b, v := range spec {
		if want := float32(b*100 + 12); v != want {
			t.Errorf("Band %d: expected %f, got %f", b, want, v)
		}
	}
	if _, err := e.Spectrum(4, 0); err == nil {
		t.Error("Expected error for out of bounds pixel, got nil")
	}
}

// TestSavePlaneSequence verifies that a sequence of planes can be saved
func TestSavePlaneSequence(t *testing.T) {
	// Skip this test in short mode
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	e := New(gradient(5, 5, 3))
	outputDir := filepath.Join(t.TempDir(), "planes")
	files, err := e.SavePlaneSequence(BandAxis, outputDir)
	if err != nil {
		t.Fatalf("Failed to save plane sequence: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("Expected 3 files, got %d", len(files))
	}

	for b := 0; b < 3; b++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("plane_band_%03d.npy", b))
		info, err := os.Stat(filename)
		if os.IsNotExist(err) {
			t.Errorf("Expected plane file does not exist: %s", filename)
			continue
		}
		if info.Size() != 128+5*5*4 {
			t.Errorf("Expected %d bytes in %s, got %d", 128+5*5*4, filename, info.Size())
		}
	}

	if _, err := e.SavePlaneSequence(Axis("invalid"), outputDir); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

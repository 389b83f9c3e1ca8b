package align

import (
	"math"
	"testing"

	"github.com/pkg/errors"

	"ssicube/pkg/ssi"
)

// box draws a 3x3 box of value v with its top-left corner at (s0, l0), 0-based
func box(t *testing.T, ns, nl, s0, l0 int, v, fill float32) *ssi.Image {
	t.Helper()
	data := make([]float32, ns*nl)
	for i := range data {
		data[i] = fill
	}
	for l := l0; l < l0+3; l++ {
		for s := s0; s < s0+3; s++ {
			data[l*ns+s] = v
		}
	}
	im, err := ssi.NewImage(data, ns, nl)
	if err != nil {
		t.Fatalf("Failed to create image: %v", err)
	}
	return im
}

// TestOffset verifies that a known shift between data and navigation is recovered
func TestOffset(t *testing.T) {
	nan := float32(math.NaN())
	nav := box(t, 10, 8, 3, 2, 45, nan)
	data := box(t, 10, 8, 5, 3, 0.2, 0)

	ds, err := Offset(data, nav, Lines)
	if err != nil {
		t.Fatalf("Failed to compute offset: %v", err)
	}
	if ds != -2 {
		t.Errorf("Expected sample offset -2, got %d", ds)
	}

	dl, err := Offset(data, nav, Samples)
	if err != nil {
		t.Fatalf("Failed to compute offset: %v", err)
	}
	if dl != -1 {
		t.Errorf("Expected line offset -1, got %d", dl)
	}

	a, b, err := Offsets(data, nav)
	if err != nil || a != ds || b != dl {
		t.Errorf("Expected offsets (%d, %d), got (%d, %d) (%v)", ds, dl, a, b, err)
	}

	// aligned inputs need no shift
	if o, _ := Offset(nav, nav, Lines); o != 0 {
		t.Errorf("Expected no offset, got %d", o)
	}
}

func TestOffsetErrors(t *testing.T) {
	a := box(t, 5, 5, 0, 0, 1, 0)
	b := box(t, 6, 5, 0, 0, 1, 0)
	if _, err := Offset(a, b, Lines); !errors.Is(err, ErrShape) {
		t.Errorf("Expected ErrShape, got %v", err)
	}
	if _, err := Offset(a, a, Axis(2)); err == nil {
		t.Error("Expected an error for an invalid axis")
	}
}

func TestCorrelate(t *testing.T) {
	// numpy.correlate([1, 2, 3], [0, 1, 0.5], 'same') = [2, 3.5, 3]
	got := correlate([]float64{1, 2, 3}, []float64{0, 1, 0.5})
	want := []float64{2, 3.5, 3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Expected %v, got %v", want, got)
			break
		}
	}
}

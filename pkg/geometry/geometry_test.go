package geometry

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

const eps = 1e-9

// TestNormHat verifies vector norms and normalisation
func TestNormHat(t *testing.T) {
	if n := Norm([]float64{1, 0, 0}); n != 1 {
		t.Errorf("Expected norm 1, got %f", n)
	}
	if n := Norm([]float64{1, 1, 1}); math.Abs(n-math.Sqrt(3)) > eps {
		t.Errorf("Expected norm %f, got %f", math.Sqrt(3), n)
	}

	v := []float64{1, 1, 1}
	h := Hat(v)
	for i, x := range h {
		if math.Abs(x-1/math.Sqrt(3)) > eps {
			t.Errorf("Expected component %d to be %f, got %f", i, 1/math.Sqrt(3), x)
		}
	}
	if v[0] != 1 {
		t.Errorf("Hat must not modify its input, got %v", v)
	}
}

// TestAngleWrap verifies the [-180, 180) and [0, 360) ranges
func TestAngleWrap(t *testing.T) {
	tests := []struct {
		in, d180, d360 float64
	}{
		{0, 0, 0},
		{360, 0, 0},
		{270, -90, 270},
		{-90, -90, 270},
		{-270, 90, 90},
		{180, -180, 180},
	}
	for _, tc := range tests {
		if got := Deg180(tc.in); got != tc.d180 {
			t.Errorf("Deg180(%v): expected %v, got %v", tc.in, tc.d180, got)
		}
		if got := Deg360(tc.in); got != tc.d360 {
			t.Errorf("Deg360(%v): expected %v, got %v", tc.in, tc.d360, got)
		}
	}
}

// TestLonLat verifies the west longitude convention
func TestLonLat(t *testing.T) {
	tests := []struct {
		v        r3.Vector
		lon, lat float64
	}{
		{r3.Vector{X: 1}, 0, 0},
		{r3.Vector{Y: 1}, 270, 0},
		{r3.Vector{X: 1, Y: 1}, 315, 0},
		{r3.Vector{X: 1, Z: 1}, 0, 45},
		{r3.Vector{Y: -2}, 90, 0},
	}
	for _, tc := range tests {
		lon, lat := LonLat(tc.v)
		if math.Abs(lon-tc.lon) > eps || math.Abs(lat-tc.lat) > eps {
			t.Errorf("LonLat(%v): expected (%v, %v), got (%v, %v)", tc.v, tc.lon, tc.lat, lon, lat)
		}
	}
}

// TestQRot verifies a quarter turn about the z axis
func TestQRot(t *testing.T) {
	c := math.Cos(math.Pi / 4)
	q := Quaternion([4]float64{c, 0, 0, c})

	got := QRot(q, r3.Vector{X: 1})
	want := r3.Vector{Y: 1}
	if !near(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	// half turn about Z
	got = QRot(Quaternion([4]float64{0, 0, 0, 1}), r3.Vector{X: 1, Y: 2, Z: 3})
	if want := (r3.Vector{X: -1, Y: -2, Z: 3}); !near(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	// identity leaves vectors untouched
	v := r3.Vector{X: 1, Y: 2, Z: 3}
	if got := QRot(Quaternion([4]float64{1, 0, 0, 0}), v); !near(got, v) {
		t.Errorf("Expected %v, got %v", v, got)
	}
}

// near compares vectors component-wise within eps
func near(a, b r3.Vector) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

func square(m Mask, l0, s0, size int) {
	for l := l0; l < l0+size; l++ {
		for s := s0; s < s0+size; s++ {
			m[l][s] = true
		}
	}
}

// TestEdges verifies that only the boundary of a filled region is kept
func TestEdges(t *testing.T) {
	cond := NewMask(5, 5)
	square(cond, 1, 1, 3)

	e := Edges(cond)
	if e.Count() != 8 {
		t.Errorf("Expected 8 edge pixels, got %d", e.Count())
	}
	if e[2][2] {
		t.Error("Expected the centre pixel not to be an edge")
	}

	// a region touching the border keeps its border pixels
	full := NewMask(2, 2)
	square(full, 0, 0, 2)
	if got := Edges(full).Count(); got != 4 {
		t.Errorf("Expected 4 edge pixels, got %d", got)
	}
}

// TestContour verifies the clockwise trace of a square boundary
func TestContour(t *testing.T) {
	cond := NewMask(5, 5)
	square(cond, 1, 1, 3)
	cntr := Edges(cond)

	p, err := Contour(cntr)
	if err != nil {
		t.Fatalf("Failed to trace contour: %v", err)
	}

	lines := []int{1, 1, 1, 2, 3, 3, 3, 2, 1}
	samples := []int{1, 2, 3, 3, 3, 2, 1, 1, 1}
	if p.Len() != len(lines) {
		t.Fatalf("Expected %d points, got %d", len(lines), p.Len())
	}
	for i := range lines {
		if p.Lines[i] != lines[i] || p.Samples[i] != samples[i] {
			t.Errorf("Point %d: expected (%d, %d), got (%d, %d)", i, lines[i], samples[i], p.Lines[i], p.Samples[i])
		}
	}
	if cntr.Count() != 0 {
		t.Errorf("Expected traced points to be cleared, %d left", cntr.Count())
	}

	if _, err := Contour(cntr); !errors.Is(err, ErrEmptyContour) {
		t.Errorf("Expected ErrEmptyContour, got %v", err)
	}
}

// TestContours verifies that every polygon above the threshold is returned
func TestContours(t *testing.T) {
	cond := NewMask(10, 12)
	square(cond, 1, 1, 3)
	square(cond, 5, 6, 4)

	paths, err := Contours(Edges(cond), 5)
	if err != nil {
		t.Fatalf("Failed to trace contours: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Expected 2 contours, got %d", len(paths))
	}
	if paths[0].Len() != 9 {
		t.Errorf("Expected 9 points in the first contour, got %d", paths[0].Len())
	}
	if paths[1].Len() != 13 {
		t.Errorf("Expected 13 points in the second contour, got %d", paths[1].Len())
	}

	// the small square falls under the threshold
	paths, err = Contours(Edges(cond), 10)
	if err != nil {
		t.Fatalf("Failed to trace contours: %v", err)
	}
	if len(paths) != 1 || paths[0].Len() != 13 {
		t.Errorf("Expected only the large contour, got %d contours", len(paths))
	}

	if _, err := Contours(NewMask(3, 3), 0); !errors.Is(err, ErrEmptyContour) {
		t.Errorf("Expected ErrEmptyContour, got %v", err)
	}
}

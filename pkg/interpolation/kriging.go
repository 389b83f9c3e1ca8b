// Package interpolation fills invalid (NaN) pixels of a band by ordinary
// kriging from the nearest valid pixels.
package interpolation

import (
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"ssicube/internal/models"
)

var ErrNoValidPixels = errors.New("band has no valid pixel")

// Variogram models supported by the implementation
type VariogramModel int

const (
	Spherical VariogramModel = iota
	Exponential
	Gaussian
)

// ParseVariogramModel accepts spherical, exponential or gaussian
func ParseVariogramModel(s string) (VariogramModel, error) {
	switch strings.ToLower(s) {
	case "spherical", "":
		return Spherical, nil
	case "exponential":
		return Exponential, nil
	case "gaussian":
		return Gaussian, nil
	}
	return 0, errors.Errorf("unknown variogram model %q", s)
}

// Params holds the parameters for kriging interpolation
type Params struct {
	Model     VariogramModel // Type of variogram model to use
	Neighbors int            // Maximum number of valid pixels used per estimate
	Radius    float64        // Search radius in pixels, also the variogram range
	Nugget    float64        // Nugget effect, as a fraction of the sill
}

// DefaultParams returns a 16 neighbour spherical model over an 8 pixel radius
func DefaultParams() Params {
	return Params{Model: Spherical, Neighbors: 16, Radius: 8}
}

// point is a valid pixel position, indexing its value
type point struct {
	S, L float64
	idx  int
}

// Compare implements the kdtree.Comparable interface
func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(point)
	switch d {
	case 0:
		return p.S - q.S
	case 1:
		return p.L - q.L
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p point) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points
func (p point) Distance(c kdtree.Comparable) float64 {
	q := c.(point)
	ds, dl := p.S-q.S, p.L-q.L
	return ds*ds + dl*dl
}

// points is a collection of point that satisfies kdtree.Interface
type points []point

func (p points) Index(i int) kdtree.Comparable         { return p[i] }
func (p points) Len() int                              { return len(p) }
func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p points) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(plane{points: p, Dim: d}, kdtree.MedianOfRandoms(plane{points: p, Dim: d}, 100))
}

// plane implements sort.Interface and kdtree.SortSlicer for points
type plane struct {
	points
	kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.points[i].S < p.points[j].S
	case 1:
		return p.points[i].L < p.points[j].L
	default:
		panic("illegal dimension")
	}
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{points: p.points[start:end], Dim: p.Dim}
}

func (p plane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

// Kriging estimates values from the valid pixels of one band
type Kriging struct {
	params Params
	tree   *kdtree.Tree
	values []float64
	sill   float64
}

// NewKriging indexes the finite pixels of a line-major band of ns samples
func NewKriging(band []float32, ns int, params Params) (*Kriging, error) {
	if ns <= 0 || len(band)%ns != 0 {
		return nil, errors.Errorf("band of %d pixels is not a whole number of %d sample lines", len(band), ns)
	}
	if params.Neighbors <= 0 || params.Radius <= 0 {
		return nil, errors.Errorf("neighbors and radius must be positive, got %d and %g", params.Neighbors, params.Radius)
	}
	var pts points
	var values []float64
	for i, v := range band {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			continue
		}
		pts = append(pts, point{S: float64(i % ns), L: float64(i / ns), idx: len(values)})
		values = append(values, float64(v))
	}
	if len(values) == 0 {
		return nil, ErrNoValidPixels
	}

	sill := 0.0
	if len(values) > 1 {
		sill = stat.Variance(values, nil)
	}
	return &Kriging{
		params: params,
		tree:   kdtree.New(pts, false),
		values: values,
		sill:   sill,
	}, nil
}

// variogram calculates the semivariance between two points at distance h
func (k *Kriging) variogram(h float64) float64 {
	if h == 0 {
		return 0
	}
	r := k.params.Radius
	gamma := k.params.Nugget * k.sill
	switch k.params.Model {
	case Spherical:
		if h < r {
			x := h / r
			gamma += k.sill * (1.5*x - 0.5*x*x*x)
		} else {
			gamma += k.sill
		}
	case Exponential:
		gamma += k.sill * (1 - math.Exp(-3*h/r))
	case Gaussian:
		gamma += k.sill * (1 - math.Exp(-3*h*h/(r*r)))
	}
	return gamma
}

// Estimate returns the kriged value at 0-based (s, l), or NaN when no valid
// pixel lies within the search radius.
func (k *Kriging) Estimate(s, l float64) float64 {
	keeper := kdtree.NewNKeeper(k.params.Neighbors)
	k.tree.NearestSet(keeper, point{S: s, L: l})

	var near []point
	for _, item := range keeper.Heap {
		// Skip the sentinel value
		if item.Comparable == nil || item.Dist > k.params.Radius*k.params.Radius {
			continue
		}
		near = append(near, item.Comparable.(point))
	}
	switch {
	case len(near) == 0:
		return math.NaN()
	case len(near) <= 3 || k.sill == 0:
		return k.inverseDistance(near, s, l)
	}

	weights, err := k.weights(near, s, l)
	if err != nil {
		return k.inverseDistance(near, s, l)
	}
	estimate := 0.0
	for i, p := range near {
		estimate += weights[i] * k.values[p.idx]
	}
	return estimate
}

// weights solves the ordinary kriging system, the last row holding the
// unbiasedness constraint
func (k *Kriging) weights(near []point, s, l float64) ([]float64, error) {
	n := len(near)
	a := mat.NewDense(n+1, n+1, nil)
	b := mat.NewVecDense(n+1, nil)
	target := point{S: s, L: l}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, k.variogram(math.Sqrt(near[i].Distance(near[j]))))
		}
		a.Set(i, n, 1)
		a.Set(n, i, 1)
		b.SetVec(i, k.variogram(math.Sqrt(near[i].Distance(target))))
	}
	b.SetVec(n, 1)

	var w mat.VecDense
	if err := w.SolveVec(a, b); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = w.AtVec(i)
	}
	return out, nil
}

func (k *Kriging) inverseDistance(near []point, s, l float64) float64 {
	target := point{S: s, L: l}
	sum, total := 0.0, 0.0
	for _, p := range near {
		w := 1 / p.Distance(target)
		sum += w * k.values[p.idx]
		total += w
	}
	return sum / total
}

// Fill returns a copy of a line-major band of ns samples where every NaN
// pixel with a valid pixel in reach is replaced by its kriged estimate, and
// the number of pixels filled. Lines are processed in parallel.
func Fill(band []float32, ns int, params Params) ([]float32, int, error) {
	k, err := NewKriging(band, ns, params)
	if err != nil {
		return nil, 0, err
	}
	out := append([]float32(nil), band...)
	nl := len(band) / ns

	lines := make(chan int)
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		filled int
	)
	for w := 0; w < runtime.NumCPU(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := 0
			for l := range lines {
				for s := 0; s < ns; s++ {
					i := l*ns + s
					if !math.IsNaN(float64(band[i])) {
						continue
					}
					if v := k.Estimate(float64(s), float64(l)); !math.IsNaN(v) {
						out[i] = float32(v)
						n++
					}
				}
			}
			mu.Lock()
			filled += n
			mu.Unlock()
		}()
	}
	for l := 0; l < nl; l++ {
		lines <- l
	}
	close(lines)
	wg.Wait()
	return out, filled, nil
}

// FillVolume fills every band of vol. Bands without any valid pixel are left as they are.
func FillVolume(vol *models.Volume, params Params) (*models.Volume, int, error) {
	out := models.NewVolume(vol.Samples, vol.Lines, vol.Bands)
	total := 0
	for b := 0; b < vol.Bands; b++ {
		band, err := vol.Band(b)
		if err != nil {
			return nil, 0, err
		}
		filled, n, err := Fill(band, vol.Samples, params)
		if errors.Is(err, ErrNoValidPixels) {
			filled = band
		} else if err != nil {
			return nil, 0, errors.Wrapf(err, "band %d", b+1)
		}
		copy(out.Data[b*vol.Samples*vol.Lines:], filled)
		total += n
	}
	return out, total, nil
}

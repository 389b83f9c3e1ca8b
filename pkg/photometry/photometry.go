// Package photometry fits simplified photometric laws to the reflectance of
// a scene (Buratti et al. 1983, doi:10.1016/0019-1035(83)90053-2).
package photometry

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"ssicube/pkg/ssi"
)

var (
	ErrUnknownModel      = errors.New("unknown photometric model")
	ErrNotEnoughSamples  = errors.New("not enough finite samples to fit")
	ErrMismatchedSamples = errors.New("photometric inputs differ in length")
)

// Model names accepted by Fit
const (
	Minnaert = "minnaert"
	Hapke    = "hapke"
)

// Result is a photometric fit. Params holds (B0, k) for Minnaert and
// (A, f(alpha)) for Hapke. X and Y are the reduced samples the line
// Y = Slope*X + Intercept was fitted to.
type Result struct {
	Model     string
	Params    [2]float64
	Slope     float64
	Intercept float64
	X, Y      []float64
}

// Line returns the fitted line at the ends of the reduced X range
func (r Result) Line() (x, y [2]float64) {
	if len(r.X) == 0 {
		return x, y
	}
	x = [2]float64{floats.Min(r.X), floats.Max(r.X)}
	y = [2]float64{r.Slope*x[0] + r.Intercept, r.Slope*x[1] + r.Intercept}
	return x, y
}

// linearFit fits y = slope*x + intercept after dropping non-finite pairs
func linearFit(x, y []float64) (slope, intercept float64, xs, ys []float64, err error) {
	for i := range x {
		if isFinite(x[i]) && isFinite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	if len(xs) < 2 {
		return 0, 0, nil, nil, errors.Wrapf(ErrNotEnoughSamples, "%d samples", len(xs))
	}
	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	return slope, intercept, xs, ys, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkLengths(iF, mu0, mu1 []float64) error {
	if len(iF) != len(mu0) || len(iF) != len(mu1) {
		return errors.Wrapf(ErrMismatchedSamples, "I/F %d, mu0 %d, mu1 %d", len(iF), len(mu0), len(mu1))
	}
	return nil
}

// FitMinnaert fits I/F = B0 * mu0^k * mu1^(k-1), linearised as
// log(I/F) + log(mu1) = k * (log(mu0) + log(mu1)) + log(B0).
func FitMinnaert(iF, mu0, mu1 []float64) (Result, error) {
	if err := checkLengths(iF, mu0, mu1); err != nil {
		return Result{}, err
	}
	x := make([]float64, len(iF))
	y := make([]float64, len(iF))
	for i := range iF {
		x[i] = math.Log(mu0[i]) + math.Log(mu1[i])
		y[i] = math.Log(iF[i]) + math.Log(mu1[i])
	}
	a, b, xs, ys, err := linearFit(x, y)
	if err != nil {
		return Result{}, errors.Wrap(err, "minnaert")
	}
	return Result{Model: Minnaert, Params: [2]float64{math.Exp(b), a}, Slope: a, Intercept: b, X: xs, Y: ys}, nil
}

// FitHapke fits I/F = A * mu0/(mu0+mu1) * f(alpha) + (1-A) * mu0, linearised as
// I/F/mu0 - 1 = A*f(alpha) / (mu0+mu1) - A, so A = -intercept and
// f(alpha) = -slope/intercept.
func FitHapke(iF, mu0, mu1 []float64) (Result, error) {
	if err := checkLengths(iF, mu0, mu1); err != nil {
		return Result{}, err
	}
	x := make([]float64, len(iF))
	y := make([]float64, len(iF))
	for i := range iF {
		x[i] = 1 / (mu0[i] + mu1[i])
		y[i] = iF[i]/mu0[i] - 1
	}
	a, b, xs, ys, err := linearFit(x, y)
	if err != nil {
		return Result{}, errors.Wrap(err, "hapke")
	}
	return Result{Model: Hapke, Params: [2]float64{-b, -a / b}, Slope: a, Intercept: b, X: xs, Y: ys}, nil
}

// Scene is an observation with reflectance and illumination geometry layers
type Scene interface {
	Data() (*ssi.Image, error)
	Incidence() (*ssi.Image, error)
	Emission() (*ssi.Image, error)
}

// Fit selects the pixels of scene where cond is set and fits model to them.
// cond is line-major like the scene layers; nil selects every pixel.
func Fit(scene Scene, cond []bool, model string) (Result, error) {
	var fit func(iF, mu0, mu1 []float64) (Result, error)
	switch strings.ToLower(model) {
	case Minnaert:
		fit = FitMinnaert
	case Hapke:
		fit = FitHapke
	default:
		return Result{}, errors.Wrapf(ErrUnknownModel, "%q, only %s and %s are available", model, Minnaert, Hapke)
	}

	data, err := scene.Data()
	if err != nil {
		return Result{}, err
	}
	inc, err := scene.Incidence()
	if err != nil {
		return Result{}, err
	}
	emi, err := scene.Emission()
	if err != nil {
		return Result{}, err
	}
	if cond != nil && len(cond) != len(data.Values()) {
		return Result{}, errors.Wrapf(ErrMismatchedSamples, "mask of %d for %d pixels", len(cond), len(data.Values()))
	}

	var iF, mu0, mu1 []float64
	for i, v := range data.Values() {
		if cond != nil && !cond[i] {
			continue
		}
		iF = append(iF, float64(v))
		mu0 = append(mu0, cosd(inc.Values()[i]))
		mu1 = append(mu1, cosd(emi.Values()[i]))
	}
	return fit(iF, mu0, mu1)
}

func cosd(deg float32) float64 {
	return math.Cos(float64(deg) * math.Pi / 180)
}

package statistics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

var ErrLengthMismatch = errors.New("bands differ in length")

// Comparison measures how closely two bands agree, over the pixels finite in
// both. It is used to check calibrated products against a reference cube.
type Comparison struct {
	// Pixels is the number of pixels finite in both bands
	Pixels int `yaml:"pixels"`

	// RMSE is the root mean square difference
	RMSE float64 `yaml:"rmse"`

	// Correlation is the Pearson correlation coefficient
	Correlation float64 `yaml:"correlation"`

	// SSIM is the global structural similarity index, with the dynamic range
	// taken from the reference band
	SSIM float64 `yaml:"ssim"`

	// MutualInformation is the Gaussian approximation
	// 0.5 * log(var(a)var(b) / (var(a)var(b) - cov(a,b)^2))
	MutualInformation float64 `yaml:"mutual_information"`

	// EntropyDiff is the absolute difference of the band entropies
	EntropyDiff float64 `yaml:"entropy_diff"`
}

// Compare compares band b against the reference band a
func Compare(a, b []float32) (Comparison, error) {
	if len(a) != len(b) {
		return Comparison{}, errors.Wrapf(ErrLengthMismatch, "%d and %d samples", len(a), len(b))
	}
	var x, y []float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		if math.IsNaN(va) || math.IsNaN(vb) || math.IsInf(va, 0) || math.IsInf(vb, 0) {
			continue
		}
		x = append(x, va)
		y = append(y, vb)
	}
	c := Comparison{Pixels: len(x)}
	if len(x) < 2 {
		return c, errors.Errorf("only %d pixels are finite in both bands", len(x))
	}

	c.RMSE = rmse(x, y)
	c.Correlation = stat.Correlation(x, y, nil)
	c.SSIM = ssim(x, y)
	c.MutualInformation = mutualInformation(x, y)

	minX, maxX := minMax(x)
	minY, maxY := minMax(y)
	c.EntropyDiff = math.Abs(entropy(x, minX, maxX) - entropy(y, minY, maxY))
	return c, nil
}

func rmse(x, y []float64) float64 {
	mse := 0.0
	for i := range x {
		d := x[i] - y[i]
		mse += d * d
	}
	return math.Sqrt(mse / float64(len(x)))
}

// ssim computes a single-window structural similarity index
func ssim(x, y []float64) float64 {
	const k1, k2 = 0.01, 0.03
	lo, hi := minMax(x)
	L := hi - lo
	if L == 0 {
		L = 1
	}
	c1 := (k1 * L) * (k1 * L)
	c2 := (k2 * L) * (k2 * L)

	muX := stat.Mean(x, nil)
	muY := stat.Mean(y, nil)
	sigmaX := stat.Variance(x, nil)
	sigmaY := stat.Variance(y, nil)
	sigmaXY := stat.Covariance(x, y, nil)

	num := (2*muX*muY + c1) * (2*sigmaXY + c2)
	den := (muX*muX + muY*muY + c1) * (sigmaX + sigmaY + c2)
	if den == 0 {
		return 0
	}
	return num / den
}

func mutualInformation(x, y []float64) float64 {
	vx := stat.Variance(x, nil)
	vy := stat.Variance(y, nil)
	cov := stat.Covariance(x, y, nil)
	if vx <= 0 || vy <= 0 {
		return 0
	}
	det := vx*vy - cov*cov
	if det <= 0 {
		return math.Inf(1)
	}
	return 0.5 * math.Log(vx*vy/det)
}

func minMax(data []float64) (float64, float64) {
	lo, hi := data[0], data[0]
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

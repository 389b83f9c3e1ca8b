package ssi

import (
	"github.com/pkg/errors"
)

// Image is one band of a cube, indexed with 1-based sample and line numbers
// the way ISIS reports pixel positions.
type Image struct {
	data   []float32
	ns, nl int
}

// NewImage wraps line-major data of ns samples by nl lines
func NewImage(data []float32, ns, nl int) (*Image, error) {
	if ns <= 0 || nl <= 0 || len(data) != ns*nl {
		return nil, errors.Errorf("image of %dx%d samples cannot hold %d values", ns, nl, len(data))
	}
	return &Image{data: data, ns: ns, nl: nl}, nil
}

// NS returns the number of samples per line
func (im *Image) NS() int { return im.ns }

// NL returns the number of lines
func (im *Image) NL() int { return im.nl }

// Values returns the samples in line-major order. The slice is shared.
func (im *Image) Values() []float32 { return im.data }

// At returns the value at 1-based sample s and line l
func (im *Image) At(s, l int) (float32, error) {
	if err := im.check(s, l); err != nil {
		return 0, err
	}
	return im.data[(l-1)*im.ns+s-1], nil
}

// Window copies the inclusive 1-based range [s0, s1] x [l0, l1]
func (im *Image) Window(s0, s1, l0, l1 int) (*Image, error) {
	if err := im.check(s0, l0); err != nil {
		return nil, err
	}
	if err := im.check(s1, l1); err != nil {
		return nil, err
	}
	if s1 < s0 || l1 < l0 {
		return nil, errors.Wrapf(ErrOutOfRange, "empty window S%d-%d L%d-%d", s0, s1, l0, l1)
	}
	ns, nl := s1-s0+1, l1-l0+1
	out := make([]float32, 0, ns*nl)
	for l := l0; l <= l1; l++ {
		row := (l-1)*im.ns + s0 - 1
		out = append(out, im.data[row:row+ns]...)
	}
	return &Image{data: out, ns: ns, nl: nl}, nil
}

func (im *Image) check(s, l int) error {
	if s < 1 || s > im.ns {
		return errors.Wrapf(ErrOutOfRange, "sample %d must be between 1 and %d", s, im.ns)
	}
	if l < 1 || l > im.nl {
		return errors.Wrapf(ErrOutOfRange, "line %d must be between 1 and %d", l, im.nl)
	}
	return nil
}

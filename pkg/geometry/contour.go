package geometry

import (
	"github.com/pkg/errors"
)

var (
	ErrEmptyContour    = errors.New("contour is empty")
	ErrOpenPath        = errors.New("contour path cannot be closed")
	ErrTooManyPolygons = errors.New("too many polygons in the contour")
)

// DefaultContourThreshold is the minimum number of points kept in a contour
const DefaultContourThreshold = 250

// Mask is a boolean image indexed [line][sample]
type Mask [][]bool

// NewMask allocates an empty mask
func NewMask(lines, samples int) Mask {
	m := make(Mask, lines)
	for l := range m {
		m[l] = make([]bool, samples)
	}
	return m
}

// Count returns the number of set pixels
func (m Mask) Count() int {
	n := 0
	for _, row := range m {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

func (m Mask) at(l, s int) bool {
	return l >= 0 && l < len(m) && s >= 0 && s < len(m[l]) && m[l][s]
}

// Edges keeps the set pixels that touch an unset pixel, or the image border,
// in one of the four cardinal directions.
func Edges(cond Mask) Mask {
	out := NewMask(len(cond), 0)
	for l, row := range cond {
		out[l] = make([]bool, len(row))
		for s, v := range row {
			if !v {
				continue
			}
			out[l][s] = !cond.at(l-1, s) || !cond.at(l, s+1) || !cond.at(l+1, s) || !cond.at(l, s-1)
		}
	}
	return out
}

// Path is a traced contour, as 0-based line and sample indexes. A closed
// path ends on its first point.
type Path struct {
	Lines   []int
	Samples []int
}

// Len returns the number of points
func (p Path) Len() int { return len(p.Lines) }

// step is one move of the clockwise search. next is the order in which the
// neighbours are tried after moving.
type step struct {
	dl, ds int
	next   int
}

// The search order after a move starts from the neighbour at the back-left of
// the travel direction, so the boundary is followed clockwise.
var directions = [8]step{
	{-1, -1, 5}, // top-left -> bottom
	{-1, 0, 6},  // top -> bottom-left
	{-1, 1, 7},  // top-right -> left
	{0, 1, 0},   // right -> top-left
	{1, 1, 1},   // bottom-right -> top
	{1, 0, 2},   // bottom -> top-right
	{1, -1, 3},  // bottom-left -> right
	{0, -1, 4},  // left -> bottom-right
}

// Contour traces the first closed path of an edge mask (see Edges), starting
// from the first set pixel in row-major order. The traced points are cleared
// from cntr.
func Contour(cntr Mask) (Path, error) {
	l0, s0, ok := first(cntr)
	if !ok {
		return Path{}, ErrEmptyContour
	}

	l, s, start := l0, s0, 0
	path := Path{Lines: []int{l0}, Samples: []int{s0}}
	closed := false
	for n := 2 * cntr.Count(); n > 0; n-- {
		next := start
		for k := 0; k < 8; k++ {
			d := directions[(start+k)%8]
			next = d.next
			if cntr.at(l+d.dl, s+d.ds) {
				l, s = l+d.dl, s+d.ds
				path.Lines = append(path.Lines, l)
				path.Samples = append(path.Samples, s)
				break
			}
		}
		start = next
		if l == l0 && s == s0 {
			closed = true
			break
		}
	}
	if !closed {
		return Path{}, ErrOpenPath
	}

	for i := range path.Lines {
		cntr[path.Lines[i]][path.Samples[i]] = false
	}
	return path, nil
}

// Contours traces every path of an edge mask longer than threshold points.
// The search stops once fewer than threshold points remain.
func Contours(cntr Mask, threshold int) ([]Path, error) {
	total := cntr.Count()
	if total == 0 {
		return nil, ErrEmptyContour
	}

	var paths []Path
	for i := 0; i < total; i++ {
		p, err := Contour(cntr)
		if err != nil {
			return nil, err
		}
		if p.Len() > threshold {
			paths = append(paths, p)
		}
		if left := cntr.Count(); left == 0 || left < threshold {
			return paths, nil
		}
	}
	return nil, ErrTooManyPolygons
}

func first(m Mask) (int, int, bool) {
	for l, row := range m {
		for s, v := range row {
			if v {
				return l, s, true
			}
		}
	}
	return 0, 0, false
}

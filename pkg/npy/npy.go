// Package npy writes float32 arrays in numpy's .npy format (version 1.0).
package npy

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// headerUnits is the alignment of the magic, lengths and header together
const headerUnits = 64

var magic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y', 0x01, 0x00}

// Header returns the full preamble of a little-endian float32 C-order array
func Header(shape []int) []byte {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprint(d)
	}
	tuple := "(" + strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	tuple += ")"

	dict := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': %s, }", tuple)

	// magic + 2 length bytes + dict + padding + newline is a multiple of 64
	pre := len(magic) + 2
	total := (pre + len(dict) + 1 + headerUnits - 1) / headerUnits * headerUnits
	size := total - pre

	out := make([]byte, 0, total)
	out = append(out, magic...)
	out = binary.LittleEndian.AppendUint16(out, uint16(size))
	out = append(out, dict...)
	out = append(out, strings.Repeat(" ", size-len(dict)-1)...)
	return append(out, '\n')
}

// Write stores data with the given shape
func Write(w io.Writer, data []float32, shape ...int) error {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return errors.Errorf("negative dimension in shape %v", shape)
		}
		n *= d
	}
	if n != len(data) {
		return errors.Errorf("shape %v holds %d values, got %d", shape, n, len(data))
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(Header(shape)); err != nil {
		return errors.Wrap(err, "write npy header")
	}
	if err := binary.Write(bw, binary.LittleEndian, data); err != nil {
		return errors.Wrap(err, "write npy data")
	}
	return errors.Wrap(bw.Flush(), "flush npy data")
}

// WriteFile stores data with the given shape at path
func WriteFile(path string, data []float32, shape ...int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := Write(f, data, shape...); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

package npy

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestHeader verifies the magic, alignment and dictionary of the header
func TestHeader(t *testing.T) {
	tests := []struct {
		shape []int
		dict  string
	}{
		{[]int{3, 2, 4}, "'shape': (3, 2, 4), }"},
		{[]int{5}, "'shape': (5,), }"},
		{[]int{}, "'shape': (), }"},
	}
	for _, tc := range tests {
		h := Header(tc.shape)
		if len(h)%64 != 0 {
			t.Errorf("Expected header length to be a multiple of 64, got %d", len(h))
		}
		if !bytes.HasPrefix(h, []byte("\x93NUMPY\x01\x00")) {
			t.Errorf("Unexpected magic %q", h[:8])
		}
		if size := int(binary.LittleEndian.Uint16(h[8:10])); size != len(h)-10 {
			t.Errorf("Expected header size %d, got %d", len(h)-10, size)
		}
		if h[len(h)-1] != '\n' {
			t.Error("Expected the header to end with a newline")
		}
		text := string(h[10:])
		if !strings.HasPrefix(text, "{'descr': '<f4', 'fortran_order': False, ") || !strings.Contains(text, tc.dict) {
			t.Errorf("Unexpected header %q", text)
		}
	}
}

// TestWriteFile verifies that samples follow the header in little-endian order
func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plane.npy")
	data := []float32{1, 2.5, float32(math.NaN()), -4, 5, 6}
	if err := WriteFile(path, data, 2, 3); err != nil {
		t.Fatalf("Failed to write npy: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read npy: %v", err)
	}
	h := Header([]int{2, 3})
	if len(raw) != len(h)+4*len(data) {
		t.Fatalf("Expected %d bytes, got %d", len(h)+4*len(data), len(raw))
	}
	body := raw[len(h):]
	for i, want := range data {
		got := math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:]))
		if got != want && !(math.IsNaN(float64(got)) && math.IsNaN(float64(want))) {
			t.Errorf("Value %d: expected %f, got %f", i, want, got)
		}
	}

	if err := WriteFile(path, data, 4, 2); err == nil {
		t.Error("Expected an error for a mismatched shape")
	}
}

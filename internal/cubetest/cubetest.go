// Package cubetest writes small synthetic ISIS cubes for tests.
package cubetest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// LabelBytes is the size reserved for the attached label
const LabelBytes = 8192

// Field is one column group of a table
type Field struct {
	Name string
	Type string // Integer, Real, Double or Text
	Size int
}

// Table is an attached binary table. Each record holds one value per field
// element: float64 for numeric fields, string for text fields.
type Table struct {
	Name      string
	ByteOrder string
	Fields    []Field
	Records   [][]interface{}
}

// Cube describes a synthetic cube. Payload is given in band sequential
// order and is tiled by Write when TileSamples is set.
type Cube struct {
	Samples, Lines, Bands int
	Type                  string
	ByteOrder             string
	Base, Multiplier      float64
	TileSamples           int
	TileLines             int

	// Groups is extra label text placed inside the IsisCube object
	Groups string
	// Objects is extra label text placed after the IsisCube object
	Objects string

	Payload       []byte
	Tables        []Table
	OriginalLabel string
}

// Encode returns the binary encoding of a fixed-size value or slice
func Encode(order binary.ByteOrder, data interface{}) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, order, data); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Float32s encodes float32 samples
func Float32s(order binary.ByteOrder, values ...float32) []byte {
	return Encode(order, values)
}

// RealBits returns the float32 whose bit pattern is bits, for special pixels
func RealBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// Tile reorders band sequential bytes into padded tiles
func Tile(bsq []byte, samples, lines, bands, ts, tl, size int) []byte {
	across := (samples + ts - 1) / ts
	down := (lines + tl - 1) / tl
	out := make([]byte, 0, bands*across*down*ts*tl*size)
	pad := make([]byte, size)
	for b := 0; b < bands; b++ {
		for tr := 0; tr < down; tr++ {
			for tc := 0; tc < across; tc++ {
				for y := 0; y < tl; y++ {
					for x := 0; x < ts; x++ {
						l, s := tr*tl+y, tc*ts+x
						if l >= lines || s >= samples {
							out = append(out, pad...)
							continue
						}
						i := ((b*lines+l)*samples + s) * size
						out = append(out, bsq[i:i+size]...)
					}
				}
			}
		}
	}
	return out
}

func pixelSize(typ string) int {
	switch strings.ToLower(typ) {
	case "unsignedbyte", "signedbyte":
		return 1
	case "unsignedword", "signedword":
		return 2
	case "double":
		return 8
	}
	return 4
}

func (t Table) encode() ([]byte, error) {
	order := binary.ByteOrder(binary.LittleEndian)
	if strings.EqualFold(t.ByteOrder, "msb") {
		order = binary.BigEndian
	}
	var buf bytes.Buffer
	for r, rec := range t.Records {
		i := 0
		for _, f := range t.Fields {
			size := f.Size
			if size == 0 {
				size = 1
			}
			if strings.EqualFold(f.Type, "text") {
				s, _ := rec[i].(string)
				b := make([]byte, size)
				copy(b, s)
				buf.Write(b)
				i++
				continue
			}
			for k := 0; k < size; k++ {
				v, ok := rec[i].(float64)
				if !ok {
					return nil, fmt.Errorf("record %d value %d of table %s is not a float64", r, i, t.Name)
				}
				switch strings.ToLower(f.Type) {
				case "integer":
					binary.Write(&buf, order, int32(v))
				case "real":
					binary.Write(&buf, order, float32(v))
				default:
					binary.Write(&buf, order, v)
				}
				i++
			}
		}
	}
	return buf.Bytes(), nil
}

func (t Table) label(start, size int) string {
	var b strings.Builder
	order := t.ByteOrder
	if order == "" {
		order = "Lsb"
	}
	fmt.Fprintf(&b, "Object = Table\n  Name      = %s\n  StartByte = %d\n  Bytes     = %d\n  Records   = %d\n  ByteOrder = %s\n",
		t.Name, start, size, len(t.Records), order)
	for _, f := range t.Fields {
		s := f.Size
		if s == 0 {
			s = 1
		}
		fmt.Fprintf(&b, "  Group = Field\n    Name = %s\n    Type = %s\n    Size = %d\n  End_Group\n", f.Name, f.Type, s)
	}
	b.WriteString("End_Object\n\n")
	return b.String()
}

// Label renders the attached label, without padding
func (c Cube) Label() (string, []byte, error) {
	typ := c.Type
	if typ == "" {
		typ = "Real"
	}
	order := c.ByteOrder
	if order == "" {
		order = "Lsb"
	}
	mult := c.Multiplier
	if mult == 0 {
		mult = 1
	}

	payload := c.Payload
	format := "BandSequential"
	tiling := ""
	if c.TileSamples > 0 {
		format = "Tile"
		tiling = fmt.Sprintf("    TileSamples = %d\n    TileLines   = %d\n", c.TileSamples, c.TileLines)
		payload = Tile(payload, c.Samples, c.Lines, c.Bands, c.TileSamples, c.TileLines, pixelSize(typ))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Object = IsisCube\n  Object = Core\n    StartByte   = %d\n    Format      = %s\n%s", LabelBytes+1, format, tiling)
	fmt.Fprintf(&b, "\n    Group = Dimensions\n      Samples = %d\n      Lines   = %d\n      Bands   = %d\n    End_Group\n", c.Samples, c.Lines, c.Bands)
	fmt.Fprintf(&b, "\n    Group = Pixels\n      Type       = %s\n      ByteOrder  = %s\n      Base       = %g\n      Multiplier = %g\n    End_Group\n  End_Object\n",
		typ, order, c.Base, mult)
	b.WriteString(c.Groups)
	b.WriteString("End_Object\n\n")
	fmt.Fprintf(&b, "Object = Label\n  Bytes = %d\nEnd_Object\n\n", LabelBytes)

	blobs := append([]byte(nil), payload...)
	next := LabelBytes + len(payload) + 1
	for _, t := range c.Tables {
		data, err := t.encode()
		if err != nil {
			return "", nil, err
		}
		b.WriteString(t.label(next, len(data)))
		blobs = append(blobs, data...)
		next += len(data)
	}
	if c.OriginalLabel != "" {
		fmt.Fprintf(&b, "Object = OriginalLabel\n  Name      = IsisCube\n  StartByte = %d\n  Bytes     = %d\nEnd_Object\n\n", next, len(c.OriginalLabel))
		blobs = append(blobs, c.OriginalLabel...)
	}
	b.WriteString(c.Objects)
	b.WriteString("End\n")
	return b.String(), blobs, nil
}

// Write stores the cube as dir/name and returns its path
func Write(t testing.TB, dir, name string, c Cube) string {
	t.Helper()
	label, blobs, err := c.Label()
	if err != nil {
		t.Fatalf("Failed to build cube: %v", err)
	}
	if len(label) > LabelBytes {
		t.Fatalf("Label of %d bytes does not fit in %d bytes", len(label), LabelBytes)
	}
	data := make([]byte, LabelBytes, LabelBytes+len(blobs))
	copy(data, label)
	data = append(data, blobs...)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write cube: %v", err)
	}
	return path
}

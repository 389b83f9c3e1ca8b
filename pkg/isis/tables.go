package isis

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"

	"ssicube/internal/pvl"
)

// Field describes one column group of a table record
type Field struct {
	Name string
	Type string
	Size int
}

func (f Field) width() (int, error) {
	switch strings.ToLower(f.Type) {
	case "integer", "real":
		return 4, nil
	case "double":
		return 8, nil
	case "text":
		return 1, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedEncoding, "table field %s type %q", f.Name, f.Type)
}

// Table is a binary record table attached to a cube (spacecraft positions,
// pointing, body rotation, ...). Records are decoded on first access.
type Table struct {
	Name      string
	StartByte int64
	Bytes     int64
	records   int
	Fields    []Field

	path    string
	order   binary.ByteOrder
	block   *pvl.Block
	numeric map[string][]float64
	text    map[string][]string
}

// Tables returns every table described by the label, in label order
func (c *Cube) Tables() ([]*Table, error) {
	var tables []*Table
	for _, b := range c.label.Blocks(pvl.Object, "Table") {
		t, err := newTable(c.path, b)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Table returns the table called name
func (c *Cube) Table(name string) (*Table, error) {
	for _, b := range c.label.Blocks(pvl.Object, "Table") {
		if v, ok := b.Get("Name"); ok && strings.EqualFold(v.Text, name) {
			return newTable(c.path, b)
		}
	}
	return nil, errors.Wrapf(ErrTableNotFound, "%q", name)
}

func newTable(path string, b *pvl.Block) (*Table, error) {
	t := &Table{path: path, block: b}

	name, ok := b.Get("Name")
	if !ok {
		return nil, errors.Wrap(ErrMalformedLabel, "table without Name")
	}
	t.Name = name.Text

	start, err := positiveInt(b, "StartByte")
	if err != nil {
		return nil, errors.Wrapf(err, "table %s", t.Name)
	}
	t.StartByte = int64(start) - 1

	size, err := positiveInt(b, "Bytes")
	if err != nil {
		return nil, errors.Wrapf(err, "table %s", t.Name)
	}
	t.Bytes = int64(size)

	if t.records, err = positiveInt(b, "Records"); err != nil {
		return nil, errors.Wrapf(err, "table %s", t.Name)
	}

	order, _ := b.Get("ByteOrder")
	if t.order, err = ParseByteOrder(order.Text); err != nil {
		return nil, errors.Wrapf(err, "table %s", t.Name)
	}

	for _, g := range b.Blocks(pvl.Group, "Field") {
		f := Field{Size: 1}
		if v, ok := g.Get("Name"); ok {
			f.Name = v.Text
		}
		if v, ok := g.Get("Type"); ok {
			f.Type = v.Text
		}
		if v, ok := g.Get("Size"); ok {
			n, err := v.AsInt()
			if err != nil || n <= 0 {
				return nil, errors.Wrapf(ErrMalformedLabel, "table %s field %s size %s", t.Name, f.Name, v)
			}
			f.Size = int(n)
		}
		t.Fields = append(t.Fields, f)
	}
	return t, nil
}

// Label returns a keyword of the table object other than its fields (Description, ...)
func (t *Table) Label(key string) (pvl.Value, bool) {
	return t.block.Get(key)
}

// Records returns the number of records
func (t *Table) Records() int { return t.records }

// RecordBytes returns the size of one record
func (t *Table) RecordBytes() (int, error) {
	n := 0
	for _, f := range t.Fields {
		w, err := f.width()
		if err != nil {
			return 0, err
		}
		n += w * f.Size
	}
	return n, nil
}

// Names lists the column names. Array fields expand to Name_1 .. Name_n;
// text fields stay a single column.
func (t *Table) Names() []string {
	var names []string
	for _, f := range t.Fields {
		if f.Size == 1 || strings.EqualFold(f.Type, "text") {
			names = append(names, f.Name)
			continue
		}
		for i := 1; i <= f.Size; i++ {
			names = append(names, fmt.Sprintf("%s_%d", f.Name, i))
		}
	}
	return names
}

// Column returns the values of a numeric column, one per record
func (t *Table) Column(name string) ([]float64, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	col, ok := t.numeric[name]
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "table %s numeric column %q", t.Name, name)
	}
	return col, nil
}

// TextColumn returns the values of a text column, one per record
func (t *Table) TextColumn(name string) ([]string, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	col, ok := t.text[name]
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "table %s text column %q", t.Name, name)
	}
	return col, nil
}

func (t *Table) load() error {
	if t.numeric != nil {
		return nil
	}
	recBytes, err := t.RecordBytes()
	if err != nil {
		return err
	}
	need := int64(recBytes) * int64(t.records)
	if need > t.Bytes {
		return errors.Wrapf(ErrMalformedLabel, "table %s: %d records of %d bytes exceed %d bytes", t.Name, t.records, recBytes, t.Bytes)
	}

	f, err := os.Open(t.path)
	if err != nil {
		return errors.Wrapf(err, "open %s", t.path)
	}
	defer f.Close()

	raw := make([]byte, need)
	if n, err := f.ReadAt(raw, t.StartByte); int64(n) < need {
		if err == nil || errors.Is(err, io.EOF) {
			return errors.Wrapf(ErrTruncated, "table %s", t.Name)
		}
		return errors.Wrapf(err, "read table %s", t.Name)
	}

	numeric := make(map[string][]float64)
	text := make(map[string][]string)
	for r := 0; r < t.records; r++ {
		rec := raw[r*recBytes : (r+1)*recBytes]
		off := 0
		for _, fd := range t.Fields {
			w, _ := fd.width()
			if strings.EqualFold(fd.Type, "text") {
				s := strings.TrimRight(string(rec[off:off+fd.Size]), "\x00 ")
				text[fd.Name] = append(text[fd.Name], s)
				off += fd.Size
				continue
			}
			for i := 0; i < fd.Size; i++ {
				key := fd.Name
				if fd.Size > 1 {
					key = fmt.Sprintf("%s_%d", fd.Name, i+1)
				}
				numeric[key] = append(numeric[key], t.decodeField(fd.Type, rec[off:off+w]))
				off += w
			}
		}
	}
	t.numeric, t.text = numeric, text
	return nil
}

func (t *Table) decodeField(typ string, b []byte) float64 {
	switch strings.ToLower(typ) {
	case "integer":
		return float64(int32(t.order.Uint32(b)))
	case "real":
		return float64(math.Float32frombits(t.order.Uint32(b)))
	}
	return math.Float64frombits(t.order.Uint64(b))
}

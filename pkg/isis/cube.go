// Package isis reads ISIS3 image cubes: an attached PVL label followed by a
// binary payload of samples, optionally with tables and the original
// instrument label stored after it.
package isis

import (
	"encoding/binary"
	"io"
	"io/fs"
	"math"
	"os"
	"regexp"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"ssicube/internal/models"
	"ssicube/internal/pvl"
)

// DefaultMaxLabelBytes bounds how much of a file is scanned for the label
const DefaultMaxLabelBytes = 1 << 20

var magic = regexp.MustCompile(`(?i)^\s*Object\s*=\s*IsisCube\b`)

// options configures how a cube is read
type options struct {
	maxLabelBytes int64
	saturation    SaturationPolicy
	logger        zerolog.Logger
	err           error
}

// Option customises Open and Load
type Option func(*options)

// WithMaxLabelBytes sets how many bytes may be scanned for the label
func WithMaxLabelBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLabelBytes = n
		}
	}
}

// WithSaturation sets what high saturation samples become. The policy is
// case-insensitive; an unknown policy makes Open fail with ErrInvalidOption.
func WithSaturation(p SaturationPolicy) Option {
	return func(o *options) {
		if p == "" {
			return
		}
		policy, err := ParseSaturationPolicy(string(p))
		if err != nil {
			o.err = err
			return
		}
		o.saturation = policy
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// layout is the payload geometry declared by the Core object
type layout struct {
	samples, lines, bands int
	format                Format
	tileSamples           int
	tileLines             int
}

func (g layout) tilesAcross() int { return (g.samples-1)/g.tileSamples + 1 }
func (g layout) tilesDown() int   { return (g.lines-1)/g.tileLines + 1 }

// bandBytes is the number of stored bytes per band, tile padding included.
// It reports false when the product does not fit in an int64.
func (g layout) bandBytes(size int) (int64, bool) {
	if g.format == Tile {
		return mulInt64(int64(g.tilesAcross()), int64(g.tilesDown()), int64(g.tileSamples), int64(g.tileLines), int64(size))
	}
	return mulInt64(int64(g.samples), int64(g.lines), int64(size))
}

// mulInt64 multiplies positive factors, reporting false on overflow
func mulInt64(factors ...int64) (int64, bool) {
	p := int64(1)
	for _, f := range factors {
		if f <= 0 || p > math.MaxInt64/f {
			return 0, false
		}
		p *= f
	}
	return p, true
}

// Cube is an opened ISIS cube. The label is parsed on Open; samples are read
// by ReadData or ReadBand.
type Cube struct {
	path  string
	opts  options
	label *pvl.Block
	cube  *pvl.Block
	core  *pvl.Block

	geom       layout
	pixelType  PixelType
	byteOrder  binary.ByteOrder
	base       float64
	multiplier float64
	startByte  int64
	bandSize   int64

	data   *models.Volume
	counts SpecialCounts
}

// Open parses the label of the cube at path without reading samples
func Open(path string, opts ...Option) (*Cube, error) {
	o := options{
		maxLabelBytes: DefaultMaxLabelBytes,
		saturation:    SaturationMax,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrFileNotFound, "open %s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	head := make([]byte, o.maxLabelBytes)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "read label of %s", path)
	}
	head = head[:n]

	if !magic.Match(head[:min(len(head), 256)]) {
		return nil, errors.Wrapf(ErrNotISIS, "%s", path)
	}

	root, used, err := pvl.Parse(head)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedLabel, "%s: %v", path, err)
	}
	o.logger.Debug().Str("path", path).Int("labelBytes", used).Msg("parsed cube label")

	c := &Cube{path: path, opts: o, label: root}
	if err := c.readCore(); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if end := c.startByte + c.bandSize*int64(c.geom.bands); end > info.Size() {
		return nil, errors.Wrapf(ErrTruncated, "%s: payload ends at byte %d, file has %d", path, end, info.Size())
	}
	return c, nil
}

// Load opens the cube at path and reads all of its samples
func Load(path string, opts ...Option) (*Cube, error) {
	c, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := c.ReadData(); err != nil {
		return nil, err
	}
	return c, nil
}

// readCore extracts the payload layout and encoding from IsisCube/Core
func (c *Cube) readCore() error {
	cube, ok := c.label.Object("IsisCube")
	if !ok {
		return errors.Wrap(ErrMalformedLabel, "missing IsisCube object")
	}
	core, ok := cube.Object("Core")
	if !ok {
		return errors.Wrap(ErrMalformedLabel, "missing Core object")
	}
	c.cube, c.core = cube, core

	dims, ok := core.Group("Dimensions")
	if !ok {
		return errors.Wrap(ErrMalformedLabel, "missing Core/Dimensions group")
	}
	var err error
	if c.geom.samples, err = positiveInt(dims, "Samples"); err != nil {
		return err
	}
	if c.geom.lines, err = positiveInt(dims, "Lines"); err != nil {
		return err
	}
	if c.geom.bands, err = positiveInt(dims, "Bands"); err != nil {
		return err
	}

	start, err := positiveInt(core, "StartByte")
	if err != nil {
		return err
	}
	c.startByte = int64(start) - 1

	c.geom.format = BandSequential
	if v, ok := core.Get("Format"); ok {
		if c.geom.format, err = ParseFormat(v.Text); err != nil {
			return err
		}
	}
	if c.geom.format == Tile {
		if c.geom.tileSamples, err = positiveInt(core, "TileSamples"); err != nil {
			return err
		}
		if c.geom.tileLines, err = positiveInt(core, "TileLines"); err != nil {
			return err
		}
	}

	pixels, ok := core.Group("Pixels")
	if !ok {
		return errors.Wrap(ErrMalformedLabel, "missing Core/Pixels group")
	}
	typ, ok := pixels.Get("Type")
	if !ok {
		return errors.Wrap(ErrMalformedLabel, "missing Core/Pixels/Type")
	}
	if c.pixelType, err = ParsePixelType(typ.Text); err != nil {
		return err
	}
	order, _ := pixels.Get("ByteOrder")
	if c.byteOrder, err = ParseByteOrder(order.Text); err != nil {
		return err
	}

	c.base, c.multiplier = 0, 1
	if v, ok := pixels.Get("Base"); ok {
		if c.base, err = v.AsFloat(); err != nil {
			return errors.Wrapf(ErrMalformedLabel, "Core/Pixels/Base: %v", err)
		}
	}
	if v, ok := pixels.Get("Multiplier"); ok {
		if c.multiplier, err = v.AsFloat(); err != nil {
			return errors.Wrapf(ErrMalformedLabel, "Core/Pixels/Multiplier: %v", err)
		}
	}

	if c.bandSize, ok = c.geom.bandBytes(c.pixelType.Size()); !ok {
		return errors.Wrapf(ErrMalformedLabel, "band of %dx%d samples overflows", c.geom.samples, c.geom.lines)
	}
	payload, ok := mulInt64(c.bandSize, int64(c.geom.bands))
	if !ok || payload > math.MaxInt64-c.startByte {
		return errors.Wrapf(ErrMalformedLabel, "payload of %d bands of %d bytes overflows", c.geom.bands, c.bandSize)
	}
	return nil
}

func positiveInt(b *pvl.Block, key string) (int, error) {
	v, ok := b.Get(key)
	if !ok {
		return 0, errors.Wrapf(ErrMalformedLabel, "missing %s/%s", b.Name, key)
	}
	i, err := v.AsInt()
	if err != nil || i <= 0 {
		return 0, errors.Wrapf(ErrMalformedLabel, "invalid %s/%s = %s", b.Name, key, v)
	}
	return int(i), nil
}

// ReadData reads and decodes every band. The volume is cached on the cube.
func (c *Cube) ReadData() (*models.Volume, error) {
	if c.data != nil {
		return c.data, nil
	}
	vol, counts, err := c.readBands(0, c.geom.bands)
	if err != nil {
		return nil, err
	}
	c.data, c.counts = vol, counts
	return vol, nil
}

// ReadBand reads a single 1-based band without touching the others. High
// saturation samples are resolved against the maximum of that band only.
func (c *Cube) ReadBand(band int) ([]float32, error) {
	if band < 1 || band > c.geom.bands {
		return nil, errors.Errorf("band %d outside [1, %d]", band, c.geom.bands)
	}
	if c.data != nil {
		return c.data.Band(band - 1)
	}
	vol, _, err := c.readBands(band-1, 1)
	if err != nil {
		return nil, err
	}
	return vol.Data, nil
}

// readBands decodes count bands starting at the 0-based band first
func (c *Cube) readBands(first, count int) (*models.Volume, SpecialCounts, error) {
	size := c.pixelType.Size()
	offset := c.startByte + int64(first)*c.bandSize
	length := int64(count) * c.bandSize

	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, SpecialCounts{}, errors.Wrapf(ErrFileNotFound, "open %s", c.path)
		}
		return nil, SpecialCounts{}, errors.Wrapf(err, "open %s", c.path)
	}
	defer f.Close()

	raw := make([]byte, length)
	n, err := f.ReadAt(raw, offset)
	if int64(n) < length {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, SpecialCounts{}, errors.Wrapf(ErrTruncated, "%s: expected %d bytes at offset %d, got %d", c.path, length, offset, n)
		}
		return nil, SpecialCounts{}, errors.Wrapf(err, "read %s", c.path)
	}

	g := c.geom
	g.bands = count
	if g.format == Tile {
		raw = untile(raw, g, size)
	}

	vol := models.NewVolume(g.samples, g.lines, count)
	dec := sampleDecoder{pixelType: c.pixelType, order: c.byteOrder, base: c.base, multiplier: c.multiplier}
	st := dec.decode(vol.Data, raw)
	applySaturation(vol.Data, c.opts.saturation, st)

	c.opts.logger.Debug().
		Str("path", c.path).
		Int("firstBand", first+1).
		Int("bands", count).
		Int("special", st.counts.Total()).
		Msg("decoded cube samples")
	return vol, st.counts, nil
}

// Path returns the file the cube was opened from
func (c *Cube) Path() string { return c.path }

// Samples returns the number of samples per line
func (c *Cube) Samples() int { return c.geom.samples }

// Lines returns the number of lines per band
func (c *Cube) Lines() int { return c.geom.lines }

// Bands returns the number of bands
func (c *Cube) Bands() int { return c.geom.bands }

// Shape returns the cube dimensions as (bands, lines, samples)
func (c *Cube) Shape() [3]int { return [3]int{c.geom.bands, c.geom.lines, c.geom.samples} }

// PixelType returns the stored sample encoding
func (c *Cube) PixelType() PixelType { return c.pixelType }

// ByteOrder returns the stored byte order
func (c *Cube) ByteOrder() binary.ByteOrder { return c.byteOrder }

// Format returns the payload storage layout
func (c *Cube) Format() Format { return c.geom.format }

// TileSize returns the tile dimensions (samples, lines), zero for band sequential cubes
func (c *Cube) TileSize() (int, int) { return c.geom.tileSamples, c.geom.tileLines }

// Base returns the offset added to stored samples
func (c *Cube) Base() float64 { return c.base }

// Multiplier returns the factor applied to stored samples
func (c *Cube) Multiplier() float64 { return c.multiplier }

// StartByte returns the 0-based payload offset
func (c *Cube) StartByte() int64 { return c.startByte }

// Label returns the root of the parsed label
func (c *Cube) Label() *pvl.Block { return c.label }

// Data returns the decoded volume, or nil before ReadData
func (c *Cube) Data() *models.Volume { return c.data }

// SpecialCounts returns the special samples found by ReadData
func (c *Cube) SpecialCounts() SpecialCounts { return c.counts }

package isis

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Special classifies a stored sample. ISIS reserves a handful of values of each
// pixel type to flag samples that carry no measurement.
type Special uint8

const (
	Valid Special = iota
	Null
	LowReprSat
	LowInstrSat
	HighInstrSat
	HighReprSat
)

func (s Special) String() string {
	switch s {
	case Valid:
		return "Valid"
	case Null:
		return "Null"
	case LowReprSat:
		return "Lrs"
	case LowInstrSat:
		return "Lis"
	case HighInstrSat:
		return "His"
	case HighReprSat:
		return "Hrs"
	}
	return "Unknown"
}

// SpecialCounts tallies the special samples met while decoding
type SpecialCounts struct {
	Null         int `yaml:"null"`
	LowReprSat   int `yaml:"lrs"`
	LowInstrSat  int `yaml:"lis"`
	HighInstrSat int `yaml:"his"`
	HighReprSat  int `yaml:"hrs"`
}

func (c *SpecialCounts) add(s Special) {
	switch s {
	case Null:
		c.Null++
	case LowReprSat:
		c.LowReprSat++
	case LowInstrSat:
		c.LowInstrSat++
	case HighInstrSat:
		c.HighInstrSat++
	case HighReprSat:
		c.HighReprSat++
	}
}

// Total returns the number of special samples
func (c SpecialCounts) Total() int {
	return c.Null + c.LowReprSat + c.LowInstrSat + c.HighInstrSat + c.HighReprSat
}

// sentinels holds the reserved values of an integer encoding. Float encodings
// are classified through their bit patterns with the same table.
type sentinels[T constraints.Integer] struct {
	null, lrs, lis, his, hrs T
}

// classify checks null first, then the representation limits, so encodings
// sharing a value between several classes (UnsignedByte) resolve like ISIS does.
func (s sentinels[T]) classify(v T) Special {
	switch v {
	case s.null:
		return Null
	case s.lrs:
		return LowReprSat
	case s.hrs:
		return HighReprSat
	case s.lis:
		return LowInstrSat
	case s.his:
		return HighInstrSat
	}
	return Valid
}

var (
	unsignedByteSentinels    = sentinels[uint8]{null: 0, lrs: 0, lis: 0, his: 255, hrs: 255}
	signedByteSentinels      = sentinels[int8]{null: -128, lrs: -128, lis: -128, his: 127, hrs: 127}
	unsignedWordSentinels    = sentinels[uint16]{null: 0, lrs: 1, lis: 2, his: 65534, hrs: 65535}
	signedWordSentinels      = sentinels[int16]{null: -32768, lrs: -32767, lis: -32766, his: -32765, hrs: -32764}
	unsignedIntegerSentinels = sentinels[uint32]{null: 0, lrs: 1, lis: 2, his: 4294967294, hrs: 4294967295}
	signedIntegerSentinels   = sentinels[int32]{null: -8388613, lrs: -8388612, lis: -8388611, his: -8388610, hrs: -8388609}
	realSentinels            = sentinels[uint32]{null: 0xFF7FFFFB, lrs: 0xFF7FFFFC, lis: 0xFF7FFFFD, his: 0xFF7FFFFE, hrs: 0xFF7FFFFF}
	doubleSentinels          = sentinels[uint64]{
		null: 0xFFEFFFFFFFFFFFFB,
		lrs:  0xFFEFFFFFFFFFFFFC,
		lis:  0xFFEFFFFFFFFFFFFD,
		his:  0xFFEFFFFFFFFFFFFE,
		hrs:  0xFFEFFFFFFFFFFFFF,
	}
)

func classifyReal(v float32) Special {
	if s := realSentinels.classify(math.Float32bits(v)); s != Valid {
		return s
	}
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return Null
	}
	return Valid
}

func classifyDouble(v float64) Special {
	if s := doubleSentinels.classify(math.Float64bits(v)); s != Valid {
		return s
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Null
	}
	return Valid
}

// SaturationPolicy decides what high representation saturation samples become
type SaturationPolicy string

const (
	// SaturationMax replaces saturated samples with the largest valid value read
	SaturationMax SaturationPolicy = "max"
	// SaturationNaN treats saturated samples like every other special value
	SaturationNaN SaturationPolicy = "nan"
)

// ParseSaturationPolicy accepts max or nan in any case
func ParseSaturationPolicy(s string) (SaturationPolicy, error) {
	switch p := SaturationPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case SaturationMax, SaturationNaN:
		return p, nil
	}
	return "", errors.Wrapf(ErrInvalidOption, "saturation policy %q (must be max or nan)", s)
}

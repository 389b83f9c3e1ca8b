package isis

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

// PixelType is the on-disk sample encoding declared by Core/Pixels/Type
type PixelType int

const (
	UnsignedByte PixelType = iota
	SignedByte
	UnsignedWord
	SignedWord
	UnsignedInteger
	SignedInteger
	Real
	Double
)

var pixelTypeNames = map[string]PixelType{
	"unsignedbyte":    UnsignedByte,
	"signedbyte":      SignedByte,
	"unsignedword":    UnsignedWord,
	"signedword":      SignedWord,
	"unsignedinteger": UnsignedInteger,
	"signedinteger":   SignedInteger,
	"integer":         SignedInteger,
	"real":            Real,
	"double":          Double,
}

// ParsePixelType maps a label pixel type name to a PixelType
func ParsePixelType(name string) (PixelType, error) {
	pt, ok := pixelTypeNames[strings.ToLower(name)]
	if !ok {
		return 0, errors.Wrapf(ErrUnsupportedEncoding, "pixel type %q", name)
	}
	return pt, nil
}

// Size returns the number of bytes per sample
func (pt PixelType) Size() int {
	switch pt {
	case UnsignedByte, SignedByte:
		return 1
	case UnsignedWord, SignedWord:
		return 2
	case UnsignedInteger, SignedInteger, Real:
		return 4
	case Double:
		return 8
	}
	return 0
}

func (pt PixelType) String() string {
	switch pt {
	case UnsignedByte:
		return "UnsignedByte"
	case SignedByte:
		return "SignedByte"
	case UnsignedWord:
		return "UnsignedWord"
	case SignedWord:
		return "SignedWord"
	case UnsignedInteger:
		return "UnsignedInteger"
	case SignedInteger:
		return "SignedInteger"
	case Real:
		return "Real"
	case Double:
		return "Double"
	}
	return "Unknown"
}

// IsFloat reports whether samples are stored as floating point
func (pt PixelType) IsFloat() bool {
	return pt == Real || pt == Double
}

// ParseByteOrder maps Lsb, Msb and NoByteOrder to a binary.ByteOrder
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(name) {
	case "lsb":
		return binary.LittleEndian, nil
	case "msb":
		return binary.BigEndian, nil
	case "nobyteorder", "":
		return binary.NativeEndian, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedEncoding, "byte order %q", name)
}

// Format is the storage layout of the cube payload
type Format int

const (
	BandSequential Format = iota
	Tile
)

func (f Format) String() string {
	if f == Tile {
		return "Tile"
	}
	return "BandSequential"
}

// ParseFormat maps Core/Format to a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "bandsequential", "bsq":
		return BandSequential, nil
	case "tile":
		return Tile, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedEncoding, "storage format %q", name)
}

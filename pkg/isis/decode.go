package isis

import (
	"encoding/binary"
	"math"

	"golang.org/x/exp/constraints"
)

// saturated marks high representation saturation samples until the
// saturation policy has been applied. Valid samples are never infinite:
// classifyReal/classifyDouble send infinities to Null.
var saturated = float32(math.Inf(1))

// decodeStats is what a decoding pass learns about the samples
type decodeStats struct {
	counts   SpecialCounts
	maxValid float32
	hasValid bool
}

// sampleDecoder converts raw band-sequential bytes into scaled float32 samples
type sampleDecoder struct {
	pixelType  PixelType
	order      binary.ByteOrder
	base       float64
	multiplier float64
}

// decode fills dst from src. Special samples become NaN, except high
// representation saturation which is marked for applySaturation.
func (d sampleDecoder) decode(dst []float32, src []byte) decodeStats {
	order := d.order
	switch d.pixelType {
	case UnsignedByte:
		return decodeSamples(dst, src, 1, func(b []byte) uint8 { return b[0] }, unsignedByteSentinels.classify, d.base, d.multiplier)
	case SignedByte:
		return decodeSamples(dst, src, 1, func(b []byte) int8 { return int8(b[0]) }, signedByteSentinels.classify, d.base, d.multiplier)
	case UnsignedWord:
		return decodeSamples(dst, src, 2, order.Uint16, unsignedWordSentinels.classify, d.base, d.multiplier)
	case SignedWord:
		return decodeSamples(dst, src, 2, func(b []byte) int16 { return int16(order.Uint16(b)) }, signedWordSentinels.classify, d.base, d.multiplier)
	case UnsignedInteger:
		return decodeSamples(dst, src, 4, order.Uint32, unsignedIntegerSentinels.classify, d.base, d.multiplier)
	case SignedInteger:
		return decodeSamples(dst, src, 4, func(b []byte) int32 { return int32(order.Uint32(b)) }, signedIntegerSentinels.classify, d.base, d.multiplier)
	case Real:
		return decodeSamples(dst, src, 4, func(b []byte) float32 { return math.Float32frombits(order.Uint32(b)) }, classifyReal, d.base, d.multiplier)
	case Double:
		return decodeSamples(dst, src, 8, func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) }, classifyDouble, d.base, d.multiplier)
	}
	return decodeStats{}
}

func decodeSamples[T constraints.Integer | constraints.Float](dst []float32, src []byte, size int, load func([]byte) T, classify func(T) Special, base, multiplier float64) decodeStats {
	var st decodeStats
	nan := float32(math.NaN())
	for i := range dst {
		raw := load(src[i*size : (i+1)*size])
		switch s := classify(raw); s {
		case Valid:
			v := float32(float64(raw)*multiplier + base)
			dst[i] = v
			if !st.hasValid || v > st.maxValid {
				st.maxValid = v
				st.hasValid = true
			}
		case HighReprSat:
			st.counts.add(s)
			dst[i] = saturated
		default:
			st.counts.add(s)
			dst[i] = nan
		}
	}
	return st
}

// applySaturation resolves the saturated markers left by decode
func applySaturation(data []float32, policy SaturationPolicy, st decodeStats) {
	if st.counts.HighReprSat == 0 {
		return
	}
	replacement := float32(math.NaN())
	if policy != SaturationNaN && st.hasValid {
		replacement = st.maxValid
	}
	for i, v := range data {
		if v == saturated {
			data[i] = replacement
		}
	}
}

// untile reorders a tiled payload into band-sequential order. Tiles run
// band by band, then tile row by tile row, then left to right; tiles on the
// right and bottom edges are stored padded to full size.
func untile(src []byte, g layout, size int) []byte {
	dst := make([]byte, g.samples*g.lines*g.bands*size)
	across, down := g.tilesAcross(), g.tilesDown()
	tileBytes := g.tileSamples * g.tileLines * size

	for b := 0; b < g.bands; b++ {
		for tr := 0; tr < down; tr++ {
			for tc := 0; tc < across; tc++ {
				tileOff := ((b*down+tr)*across + tc) * tileBytes
				s0 := tc * g.tileSamples
				n := min(g.tileSamples, g.samples-s0)
				for y := 0; y < g.tileLines; y++ {
					line := tr*g.tileLines + y
					if line >= g.lines {
						break
					}
					from := tileOff + y*g.tileSamples*size
					to := ((b*g.lines+line)*g.samples + s0) * size
					copy(dst[to:to+n*size], src[from:from+n*size])
				}
			}
		}
	}
	return dst
}

package hal

import "math/bits"

// BytesPerPixel is the size of one pixel in every linear GOP format.
const BytesPerPixel = 4

// PackPixel encodes an 8-bit RGB triple in the mode's pixel format.
func PackPixel(info ModeInfo, r, g, b uint8) uint32 {
	switch info.Format {
	case PixelRGBReserved8:
		return uint32(r) | uint32(g)<<8 | uint32(b)<<16
	case PixelBGRReserved8:
		return uint32(b) | uint32(g)<<8 | uint32(r)<<16
	case PixelBitMask:
		return packMask(info.Mask.Red, r) | packMask(info.Mask.Green, g) | packMask(info.Mask.Blue, b)
	default:
		return 0
	}
}

// UnpackPixel decodes a pixel of the mode's format into 8-bit RGB.
func UnpackPixel(info ModeInfo, p uint32) (r, g, b uint8) {
	switch info.Format {
	case PixelRGBReserved8:
		return uint8(p), uint8(p >> 8), uint8(p >> 16)
	case PixelBGRReserved8:
		return uint8(p >> 16), uint8(p >> 8), uint8(p)
	case PixelBitMask:
		return unpackMask(info.Mask.Red, p), unpackMask(info.Mask.Green, p), unpackMask(info.Mask.Blue, p)
	default:
		return 0, 0, 0
	}
}

func packMask(mask uint32, v uint8) uint32 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	c := uint32(v)
	if width < 8 {
		c >>= 8 - width
	} else if width > 8 {
		c <<= width - 8
	}
	return (c << shift) & mask
}

func unpackMask(mask uint32, p uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	c := (p & mask) >> shift
	if width < 8 {
		return uint8((c * 255) / ((1 << width) - 1))
	}
	return uint8(c >> (width - 8))
}

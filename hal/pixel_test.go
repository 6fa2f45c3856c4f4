package hal

import "testing"

func TestPackPixelFormats(t *testing.T) {
	rgb := ModeInfo{Format: PixelRGBReserved8}
	bgr := ModeInfo{Format: PixelBGRReserved8}
	if got := PackPixel(rgb, 0x11, 0x22, 0x33); got != 0x332211 {
		t.Fatalf("rgb=%#x", got)
	}
	if got := PackPixel(bgr, 0x11, 0x22, 0x33); got != 0x112233 {
		t.Fatalf("bgr=%#x", got)
	}
	if got := PackPixel(ModeInfo{Format: PixelBltOnly}, 1, 2, 3); got != 0 {
		t.Fatalf("blt-only=%#x", got)
	}
}

func TestBitmaskRoundTrip565(t *testing.T) {
	info := ModeInfo{Format: PixelBitMask, Mask: PixelBitmask{Red: 0xF800, Green: 0x07E0, Blue: 0x001F}}
	p := PackPixel(info, 0xFF, 0x00, 0xFF)
	if p != 0xF81F {
		t.Fatalf("packed=%#x", p)
	}
	r, g, b := UnpackPixel(info, p)
	if r != 0xFF || g != 0 || b != 0xFF {
		t.Fatalf("unpacked=%d,%d,%d", r, g, b)
	}
}

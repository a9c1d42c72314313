package ocr

import (
	"image/color"
	"testing"
)

func TestDecodeVobsubFrameProducesOpaqueBitmap(t *testing.T) {
	var pal vobsubPalette
	pal[2] = color.NRGBA{R: 10, G: 20, B: 30, A: 255}

	packet := []byte{
		0x00, 0x00, // SIZE (unused)
		0x00, 0x08, // ctrlOffset = 8

		// even-field RLE data (offset 4): one row of 4 pixels, colorIdx 1 each
		0x55, 0x55,
		// odd-field RLE data (offset 6): same
		0x55, 0x55,

		// control block starts at offset 8
		0x00, 0x00, // date
		0x00, 0x00, // next control sequence offset (unused, not followed)

		0x05,                               // SET_DAREA
		0x00, 0x00, 0x03, 0x00, 0x00, 0x01, // x1=0 x2=3 y1=0 y2=1

		0x03,       // SET_COLOR
		0x02, 0x00, // colorMap = [0,2,0,0]

		0x04,       // SET_CONTR
		0x0F, 0x00, // alphaMap = [0,15,0,0]

		0x06, // SET_DSPXA
		0x00, 0x04, 0x00, 0x06, // evenOffset=4 oddOffset=6

		0xFF, // CMD_END
	}

	img, ok, err := decodeVobsubFrame(packet, pal)
	if err != nil {
		t.Fatalf("decodeVobsubFrame: %v", err)
	}
	if !ok {
		t.Fatal("expected a decoded bitmap, got none")
	}
	b := img.Bounds()
	if b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("bounds = %v, want 4x2", b)
	}
	if img.GrayAt(0, 0).Y == 255 {
		t.Fatal("expected a non-white (opaque) pixel at (0,0)")
	}
}

func TestDecodeVobsubFrameBlankWhenFullyTransparent(t *testing.T) {
	packet := []byte{
		0x00, 0x00,
		0x00, 0x04,
		0x00, 0x00, // date
		0x00, 0x00, // next offset
		0x05,                               // SET_DAREA
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // x1=0 x2=0 y1=0 y2=0 -> 1x1; no SET_CONTR, so alpha is 0
		0xFF,
	}
	var pal vobsubPalette
	img, ok, err := decodeVobsubFrame(packet, pal)
	if err != nil {
		t.Fatalf("decodeVobsubFrame: %v", err)
	}
	if ok {
		t.Fatalf("expected no bitmap for an all-transparent frame, got %v", img)
	}
}

func TestPGSDecoderRendersCompletedDisplaySet(t *testing.T) {
	d := newPGSDecoder()

	pds := []byte{0x00, 0x00, 0x05, 235, 128, 128, 255}
	rle := []byte{0x05, 0x05, 0x00, 0x00, 0x05, 0x05, 0x00, 0x00}
	ods := append([]byte{0x00, 0x01, 0x00, 0xC0, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x02}, rle...)

	frame := buildPGSFrame(pgsSegPalette, pds, pgsSegObject, ods, pgsSegEnd, nil)

	img, ok, err := d.pushFrame(frame)
	if err != nil {
		t.Fatalf("pushFrame: %v", err)
	}
	if !ok {
		t.Fatal("expected a rendered bitmap")
	}
	b := img.Bounds()
	if b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("bounds = %v, want 2x2", b)
	}
	if img.GrayAt(0, 0).Y == 255 {
		t.Fatal("expected a non-white pixel at (0,0)")
	}
}

func buildPGSFrame(pairs ...interface{}) []byte {
	var out []byte
	for i := 0; i < len(pairs); i += 2 {
		segType := byte(pairs[i].(int))
		var payload []byte
		if pairs[i+1] != nil {
			payload = pairs[i+1].([]byte)
		}
		out = append(out, segType, byte(len(payload)>>8), byte(len(payload)))
		out = append(out, payload...)
	}
	return out
}

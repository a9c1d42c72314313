package ocr

import (
	"encoding/binary"
	"image"
	"image/color"

	"mediacorral/internal/apperr"
)

// PGS (S_HDMV/PGS, Blu-ray "presentation graphic stream") subtitle frames
// are sequences of segments: a 1-byte type and 2-byte big-endian size
// prefix each segment's payload, with no PTS/DTS wrapper since Matroska
// already carries the frame's timestamp. This decoder only needs the
// palette (PDS) and object (ODS) segments; PCS/WDS/END are consumed only
// to find segment boundaries and detect a completed display set.
const (
	pgsSegPalette     = 0x14
	pgsSegObject      = 0x15
	pgsSegComposition = 0x16
	pgsSegWindow      = 0x17
	pgsSegEnd         = 0x80
)

type pgsDecoder struct {
	palette     [256]color.NRGBA
	havePalette bool

	objectBuf    []byte
	objectWidth  int
	objectHeight int
	objectReady  bool
}

func newPGSDecoder() *pgsDecoder { return &pgsDecoder{} }

// pushFrame feeds one MKV frame's raw segment stream to the decoder. When
// the frame completes a display set (an END segment) and a palette plus a
// fully-assembled object are both available, it returns the rendered
// grayscale bitmap; otherwise ok is false (e.g. a "clear" display set with
// no object, or a display set spread across frames that isn't done yet).
func (d *pgsDecoder) pushFrame(data []byte) (img *image.Gray, ok bool, err error) {
	pos := 0
	for pos+3 <= len(data) {
		segType := data[pos]
		size := int(binary.BigEndian.Uint16(data[pos+1 : pos+3]))
		pos += 3
		if pos+size > len(data) {
			return nil, false, apperr.Wrap(apperr.ErrDecode, component, "pgsDecoder.pushFrame", "segment payload exceeds frame", nil)
		}
		payload := data[pos : pos+size]
		pos += size

		switch segType {
		case pgsSegPalette:
			d.applyPalette(payload)
		case pgsSegObject:
			d.applyObject(payload)
		case pgsSegComposition, pgsSegWindow:
			// Composition geometry isn't needed: the object's own
			// width/height fully describes the bitmap to OCR.
		case pgsSegEnd:
			if d.havePalette && d.objectReady {
				bitmap, rerr := d.render()
				if rerr != nil {
					return nil, false, rerr
				}
				d.objectReady = false
				d.objectBuf = nil
				cropped := cropNRGBA(bitmap)
				if cropped.Bounds().Dx() == 0 || cropped.Bounds().Dy() == 0 {
					return nil, false, nil
				}
				return processNRGBA(cropped), true, nil
			}
			return nil, false, nil
		}
	}
	return nil, false, nil
}

func (d *pgsDecoder) applyPalette(payload []byte) {
	if len(payload) < 2 {
		return
	}
	// payload[0] = palette ID, payload[1] = version number; entries follow,
	// 5 bytes each: id, Y, Cr, Cb, alpha.
	for i := 2; i+5 <= len(payload); i += 5 {
		idx := payload[i]
		y, cr, cb, a := payload[i+1], payload[i+2], payload[i+3], payload[i+4]
		d.palette[idx] = ycrcbToNRGBA(y, cr, cb, a)
	}
	d.havePalette = true
}

func ycrcbToNRGBA(y, cr, cb, a uint8) color.NRGBA {
	yy := float64(y)
	cbf := float64(cb) - 128
	crf := float64(cr) - 128
	r := yy + 1.402*crf
	g := yy - 0.344136*cbf - 0.714136*crf
	b := yy + 1.772*cbf
	return color.NRGBA{R: clamp8(r), G: clamp8(g), B: clamp8(b), A: a}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// applyObject assembles a (possibly fragmented) object-data segment. The
// first fragment carries a 3-byte data length followed by width/height;
// later fragments (first-in-sequence flag bit 0x80 clear) only carry more
// RLE data.
func (d *pgsDecoder) applyObject(payload []byte) {
	if len(payload) < 4 {
		return
	}
	seqFlags := payload[3]
	const firstInSequence = 0x80
	// body is object_data_length(3) + width(2) + height(2) + rle_data...
	body := payload[4:]
	if seqFlags&firstInSequence != 0 {
		if len(body) < 7 {
			return
		}
		d.objectWidth = int(binary.BigEndian.Uint16(body[3:5]))
		d.objectHeight = int(binary.BigEndian.Uint16(body[5:7]))
		d.objectBuf = append([]byte(nil), body[7:]...)
	} else {
		d.objectBuf = append(d.objectBuf, body...)
	}
	d.objectReady = true
}

// render decodes the assembled object's byte-oriented RLE stream (distinct
// from VobSub's nibble-oriented scheme) into an NRGBA image via the
// current palette.
func (d *pgsDecoder) render() (*image.NRGBA, error) {
	if d.objectWidth <= 0 || d.objectHeight <= 0 {
		return nil, apperr.Wrap(apperr.ErrDecode, component, "pgsDecoder.render", "object has no dimensions", nil)
	}
	img := image.NewNRGBA(image.Rect(0, 0, d.objectWidth, d.objectHeight))
	x, y, i := 0, 0, 0
	data := d.objectBuf
	for i < len(data) && y < d.objectHeight {
		b0 := data[i]
		i++
		if b0 != 0 {
			img.SetNRGBA(x, y, d.palette[b0])
			x++
			continue
		}
		if i >= len(data) {
			break
		}
		b1 := data[i]
		i++
		if b1 == 0 {
			x = 0
			y++
			continue
		}
		length := int(b1 & 0x3F)
		hasColor := b1&0x80 != 0
		if b1&0x40 != 0 {
			if i >= len(data) {
				break
			}
			length = length<<8 | int(data[i])
			i++
		}
		var c color.NRGBA
		if hasColor {
			if i >= len(data) {
				break
			}
			c = d.palette[data[i]]
			i++
		}
		for n := 0; n < length && x < d.objectWidth; n++ {
			img.SetNRGBA(x, y, c)
			x++
		}
	}
	return img, nil
}

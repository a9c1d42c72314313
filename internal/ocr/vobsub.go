package ocr

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"mediacorral/internal/apperr"
)

// vobsubPalette is the 16-entry RGB palette carried in a VobSub track's
// CodecPrivate text block (the "palette:" line of an idx/sub header,
// copied verbatim into Matroska's CodecPrivate by mkvmerge).
type vobsubPalette [16]color.NRGBA

// parseVobsubPalette extracts the 16 hex RGB triples from a CodecPrivate
// block. Unrecognized lines are ignored: only the palette is needed to
// decode subpicture bitmaps.
func parseVobsubPalette(codecPrivate []byte) (vobsubPalette, error) {
	var pal vobsubPalette
	for _, line := range strings.Split(string(codecPrivate), "\n") {
		line = strings.TrimSpace(line)
		const prefix = "palette:"
		if !strings.HasPrefix(strings.ToLower(line), prefix) {
			continue
		}
		entries := strings.Split(line[len(prefix):], ",")
		if len(entries) != 16 {
			return pal, apperr.Wrap(apperr.ErrDecode, component, "parseVobsubPalette",
				"palette line does not have 16 entries", nil)
		}
		for i, e := range entries {
			v, err := strconv.ParseUint(strings.TrimSpace(e), 16, 32)
			if err != nil {
				return pal, apperr.Wrap(apperr.ErrDecode, component, "parseVobsubPalette", "invalid palette entry "+e, err)
			}
			pal[i] = color.NRGBA{
				R: uint8(v >> 16),
				G: uint8(v >> 8),
				B: uint8(v),
				A: 255,
			}
		}
		return pal, nil
	}
	return pal, apperr.Wrap(apperr.ErrDecode, component, "parseVobsubPalette", "no palette line found", nil)
}

// vobsubNibbleReader reads 4-bit nibbles from a byte slice, the unit VobSub
// run-length codes are built from.
type vobsubNibbleReader struct {
	data []byte
	pos  int // in nibbles
}

func (r *vobsubNibbleReader) nibble() int {
	if r.pos/2 >= len(r.data) {
		return 0
	}
	b := r.data[r.pos/2]
	var n byte
	if r.pos%2 == 0 {
		n = b >> 4
	} else {
		n = b & 0x0F
	}
	r.pos++
	return int(n)
}

// alignByte advances to the next whole-byte boundary, used at the end of
// each decoded line (VobSub pads every line's RLE stream to a byte).
func (r *vobsubNibbleReader) alignByte() {
	if r.pos%2 != 0 {
		r.pos++
	}
}

// nextRLECode reads one variable-length run-length code: (pixel run
// length, 2-bit color index). A code grows by one nibble at a time until
// its value no longer fits the "more nibbles needed" range, following the
// classic 4/8/12/16-bit VobSub RLE code-length ladder.
func (r *vobsubNibbleReader) nextRLECode() (length, colorIdx int) {
	code := r.nibble()
	if code < 0x4 {
		code = (code << 4) | r.nibble()
		if code < 0x10 {
			code = (code << 4) | r.nibble()
			if code < 0x40 {
				code = (code << 4) | r.nibble()
			}
		}
	}
	return code >> 2, code & 0x3
}

// decodeVobsubBitmap renders one control block's line-interleaved RLE
// bitmap (even lines from evenOffset, odd lines from oddOffset, both byte
// offsets into packet) into an NRGBA image using colorMap (palette indices
// for the 4 logical colors) and alphaMap (0-15 alpha per logical color).
func decodeVobsubBitmap(packet []byte, evenOffset, oddOffset int, width, height int, pal vobsubPalette, colorMap [4]int, alphaMap [4]int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	decodeField := func(offset int, startRow int) {
		if offset < 0 || offset >= len(packet) {
			return
		}
		reader := &vobsubNibbleReader{data: packet[offset:]}
		for y := startRow; y < height; y += 2 {
			x := 0
			for x < width {
				length, idx := reader.nextRLECode()
				if length == 0 {
					length = width - x
				}
				if x+length > width {
					length = width - x
				}
				palIdx := colorMap[idx]
				alpha := alphaMap[idx]
				c := pal[palIdx&0x0F]
				c.A = uint8(alpha * 17) // scale 0-15 to 0-255
				for i := 0; i < length; i++ {
					img.SetNRGBA(x+i, y, c)
				}
				x += length
			}
			reader.alignByte()
		}
	}
	decodeField(evenOffset, 0)
	decodeField(oddOffset, 1)
	return img
}

// vobsubControl is one parsed SET_DAREA/SET_COLOR/SET_CONTR/SET_DSPXA
// control sequence, the subset this decoder needs from the first control
// block in a subpicture unit (multi-block timed palette/area changes
// within a single SPU are not used by ripped discs' static subtitles).
type vobsubControl struct {
	x1, y1, x2, y2 int
	colorMap       [4]int
	alphaMap       [4]int
	evenOffset     int
	oddOffset      int
}

const (
	vobCmdForceDisplay = 0x00
	vobCmdStartDisplay = 0x01
	vobCmdStopDisplay  = 0x02
	vobCmdSetColor     = 0x03
	vobCmdSetContrast  = 0x04
	vobCmdSetDisplay   = 0x05
	vobCmdSetPixelData = 0x06
	vobCmdEnd          = 0xFF
)

func parseVobsubControl(packet []byte, ctrlOffset int) (vobsubControl, error) {
	var ctrl vobsubControl
	if ctrlOffset+4 > len(packet) {
		return ctrl, apperr.Wrap(apperr.ErrDecode, component, "parseVobsubControl", "control offset out of range", nil)
	}
	// Skip the 2-byte "date" and 2-byte "next control sequence offset"
	// fields; this decoder only uses the first control block, since ripped
	// discs' static subtitles never need a second timed update.
	pos := ctrlOffset + 4
	for pos < len(packet) {
		cmd := packet[pos]
		pos++
		switch cmd {
		case vobCmdForceDisplay, vobCmdStartDisplay, vobCmdStopDisplay:
			// no operands
		case vobCmdSetColor:
			if pos+2 > len(packet) {
				return ctrl, apperr.Wrap(apperr.ErrDecode, component, "parseVobsubControl", "truncated SET_COLOR", nil)
			}
			ctrl.colorMap = [4]int{
				int(packet[pos] >> 4), int(packet[pos] & 0x0F),
				int(packet[pos+1] >> 4), int(packet[pos+1] & 0x0F),
			}
			pos += 2
		case vobCmdSetContrast:
			if pos+2 > len(packet) {
				return ctrl, apperr.Wrap(apperr.ErrDecode, component, "parseVobsubControl", "truncated SET_CONTR", nil)
			}
			ctrl.alphaMap = [4]int{
				int(packet[pos] >> 4), int(packet[pos] & 0x0F),
				int(packet[pos+1] >> 4), int(packet[pos+1] & 0x0F),
			}
			pos += 2
		case vobCmdSetDisplay:
			if pos+6 > len(packet) {
				return ctrl, apperr.Wrap(apperr.ErrDecode, component, "parseVobsubControl", "truncated SET_DAREA", nil)
			}
			ctrl.x1 = int(packet[pos])<<4 | int(packet[pos+1])>>4
			ctrl.x2 = int(packet[pos+1]&0x0F)<<8 | int(packet[pos+2])
			ctrl.y1 = int(packet[pos+3])<<4 | int(packet[pos+4])>>4
			ctrl.y2 = int(packet[pos+4]&0x0F)<<8 | int(packet[pos+5])
			pos += 6
		case vobCmdSetPixelData:
			if pos+4 > len(packet) {
				return ctrl, apperr.Wrap(apperr.ErrDecode, component, "parseVobsubControl", "truncated SET_DSPXA", nil)
			}
			ctrl.evenOffset = int(packet[pos])<<8 | int(packet[pos+1])
			ctrl.oddOffset = int(packet[pos+2])<<8 | int(packet[pos+3])
			pos += 4
		case vobCmdEnd:
			return ctrl, nil
		default:
			return ctrl, apperr.Wrap(apperr.ErrDecode, component, "parseVobsubControl", "unrecognized control command", nil)
		}
	}
	return ctrl, apperr.Wrap(apperr.ErrDecode, component, "parseVobsubControl", "control block missing CMD_END", nil)
}

// decodeVobsubFrame decodes one S_VOBSUB track frame (a raw DVD subpicture
// unit: 2-byte size, 2-byte offset to the first control sequence, RLE
// bitmap data, then the control sequence itself) into a cropped, OCR-ready
// grayscale image. A frame with no opaque pixels (blank subpicture, used
// to clear the previous one) returns ok=false.
func decodeVobsubFrame(packet []byte, pal vobsubPalette) (img *image.Gray, ok bool, err error) {
	if len(packet) < 4 {
		return nil, false, apperr.Wrap(apperr.ErrDecode, component, "decodeVobsubFrame", "packet too short", nil)
	}
	ctrlOffset := int(packet[2])<<8 | int(packet[3])
	ctrl, err := parseVobsubControl(packet, ctrlOffset)
	if err != nil {
		return nil, false, err
	}
	width := ctrl.x2 - ctrl.x1 + 1
	height := ctrl.y2 - ctrl.y1 + 1
	if width <= 0 || height <= 0 {
		return nil, false, nil
	}
	bitmap := decodeVobsubBitmap(packet, ctrl.evenOffset, ctrl.oddOffset, width, height, pal, ctrl.colorMap, ctrl.alphaMap)
	cropped := cropNRGBA(bitmap)
	if cropped.Bounds().Dx() == 0 || cropped.Bounds().Dy() == 0 {
		return nil, false, nil
	}
	return processNRGBA(cropped), true, nil
}

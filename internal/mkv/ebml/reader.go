// Package ebml implements the minimal subset of the EBML binary format
// (element IDs, variable-length size integers, and big-endian unsigned/
// float/string element decoding) needed to walk a Matroska container.
// It is not a general-purpose EBML library: it knows nothing about any
// particular element schema, leaving that to package mkv.
package ebml

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrUnknownSize marks an element whose size field is the EBML "unknown
// size" all-ones sentinel. Only a few top-level elements (Segment,
// Cluster) are allowed to have this; callers of ReadHeader decide whether
// it's acceptable in context.
var ErrUnknownSize = errors.New("ebml: unknown-size element")

// Header is one element's ID and payload size, plus where its payload
// starts and ends in the stream (End is invalid when Unknown is set).
type Header struct {
	ID      uint32
	Size    uint64
	Start   int64
	End     int64
	Unknown bool
}

// Reader reads EBML elements from an underlying seekable stream.
type Reader struct {
	r io.ReadSeeker
}

// New wraps r for EBML element reading.
func New(r io.ReadSeeker) *Reader {
	return &Reader{r: r}
}

// Pos reports the reader's current stream offset.
func (r *Reader) Pos() (int64, error) {
	return r.r.Seek(0, io.SeekCurrent)
}

// Seek moves the underlying stream to an absolute offset.
func (r *Reader) Seek(offset int64) error {
	_, err := r.r.Seek(offset, io.SeekStart)
	return err
}

// ReadHeader reads one element ID and size at the current position.
func (r *Reader) ReadHeader() (Header, error) {
	id, err := r.readElementID()
	if err != nil {
		return Header{}, err
	}
	size, unknown, err := r.readVint(false)
	if err != nil {
		return Header{}, err
	}
	start, err := r.Pos()
	if err != nil {
		return Header{}, err
	}
	h := Header{ID: id, Size: size, Start: start, Unknown: unknown}
	if !unknown {
		h.End = start + int64(size)
	}
	return h, nil
}

// ReadVint reads a raw vint value (marker bit stripped), used for the
// track-number field in Block/SimpleBlock headers, which is encoded the
// same way as an element size.
func (r *Reader) ReadVint() (uint64, error) {
	v, _, err := r.readVint(false)
	return v, err
}

// Skip advances past an element's payload without reading it.
func (r *Reader) Skip(h Header) error {
	if h.Unknown {
		return errors.New("ebml: cannot skip an unknown-size element")
	}
	_, err := r.r.Seek(h.End, io.SeekStart)
	return err
}

// ReadBytes reads exactly n bytes of payload.
func (r *Reader) ReadBytes(n int64) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadUint reads a big-endian unsigned integer element payload of the
// given byte length (EBML uints are 0-8 bytes, left-padded with zeros).
func (r *Reader) ReadUint(n int64) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range buf {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// ReadInt reads a big-endian two's-complement signed integer payload.
func (r *Reader) ReadInt(n int64) (int64, error) {
	u, err := r.ReadUint(n)
	if err != nil {
		return 0, err
	}
	if n == 0 || n >= 8 {
		return int64(u), nil
	}
	signBit := uint64(1) << (n*8 - 1)
	if u&signBit != 0 {
		return int64(u) - int64(1<<(n*8)), nil
	}
	return int64(u), nil
}

// ReadFloat reads a 4- or 8-byte IEEE 754 float payload.
func (r *Reader) ReadFloat(n int64) (float64, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	switch n {
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(buf))), nil
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(buf)), nil
	default:
		return 0, errors.New("ebml: unsupported float width")
	}
}

// ReadString reads a payload as a raw string (ASCII/UTF-8 elements share
// encoding; trailing NUL padding is trimmed per the EBML spec).
func (r *Reader) ReadString(n int64) (string, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	i := len(buf)
	for i > 0 && buf[i-1] == 0 {
		i--
	}
	return string(buf[:i]), nil
}

// readElementID reads an EBML element ID: a vint whose leading-bit marker
// is kept as part of the ID's value (unlike size vints).
func (r *Reader) readElementID() (uint32, error) {
	v, _, err := r.readVint(true)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// readVint reads a size vint: the leading-bit length marker is stripped
// from the value unless keepMarker is set (element IDs keep it). The
// second return value reports whether every data bit across the whole
// vint is 1 -- the EBML "unknown size" sentinel.
func (r *Reader) readVint(keepMarker bool) (uint64, bool, error) {
	first := make([]byte, 1)
	if _, err := io.ReadFull(r.r, first); err != nil {
		return 0, false, err
	}
	length := vintLength(first[0])
	if length == 0 {
		return 0, false, errors.New("ebml: invalid vint leading byte")
	}

	marker := byte(0x80) >> uint(length-1)
	dataMask := marker - 1
	allOnes := first[0]&dataMask == dataMask

	var value uint64
	if keepMarker {
		value = uint64(first[0])
	} else {
		value = uint64(first[0] &^ marker)
	}

	for i := 1; i < length; i++ {
		b := make([]byte, 1)
		if _, err := io.ReadFull(r.r, b); err != nil {
			return 0, false, err
		}
		if b[0] != 0xFF {
			allOnes = false
		}
		value = value<<8 | uint64(b[0])
	}
	return value, allOnes, nil
}

// vintLength returns the total byte length of a vint given its leading
// byte, by counting leading zero bits before the marker bit (1-8).
func vintLength(b byte) int {
	for i := 0; i < 8; i++ {
		if b&(0x80>>uint(i)) != 0 {
			return i + 1
		}
	}
	return 0
}

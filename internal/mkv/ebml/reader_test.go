package ebml

import (
	"bytes"
	"testing"
)

func TestReadHeaderAndUint(t *testing.T) {
	// SimpleBlock element ID (0xA3, 1-byte vint), size=2 (0x82, 1-byte
	// vint), payload 0x12 0x34.
	data := []byte{0xA3, 0x82, 0x12, 0x34}
	r := New(bytes.NewReader(data))

	h, err := r.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.ID != 0xA3 {
		t.Fatalf("ID = %#x, want 0xA3", h.ID)
	}
	if h.Size != 2 {
		t.Fatalf("Size = %d, want 2", h.Size)
	}

	v, err := r.ReadUint(int64(h.Size))
	if err != nil {
		t.Fatalf("ReadUint: %v", err)
	}
	if v != 0x1234 {
		t.Fatalf("ReadUint = %#x, want 0x1234", v)
	}
}

func TestReadHeaderMultiByteID(t *testing.T) {
	// Tracks element ID (0x1654AE6B, 4-byte vint), size=0 (0x80).
	data := []byte{0x16, 0x54, 0xAE, 0x6B, 0x80}
	r := New(bytes.NewReader(data))

	h, err := r.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.ID != 0x1654AE6B {
		t.Fatalf("ID = %#x, want 0x1654AE6B", h.ID)
	}
	if h.Size != 0 {
		t.Fatalf("Size = %d, want 0", h.Size)
	}
}

func TestReadUnknownSize(t *testing.T) {
	// Segment element ID (0x18538067, 4-byte vint), unknown size
	// (1-byte vint 0xFF, all data bits set).
	data := []byte{0x18, 0x53, 0x80, 0x67, 0xFF}
	r := New(bytes.NewReader(data))

	h, err := r.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if !h.Unknown {
		t.Fatalf("expected unknown-size element")
	}
}

func TestReadStringTrimsNulPadding(t *testing.T) {
	data := []byte{'e', 'n', 'g', 0, 0}
	r := New(bytes.NewReader(data))
	s, err := r.ReadString(int64(len(data)))
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if s != "eng" {
		t.Fatalf("ReadString = %q, want %q", s, "eng")
	}
}

func TestReadFloat(t *testing.T) {
	// 1.0 as an 8-byte IEEE 754 double: 0x3FF0000000000000.
	data := []byte{0x3F, 0xF0, 0, 0, 0, 0, 0, 0}
	r := New(bytes.NewReader(data))
	f, err := r.ReadFloat(8)
	if err != nil {
		t.Fatalf("ReadFloat: %v", err)
	}
	if f != 1.0 {
		t.Fatalf("ReadFloat = %v, want 1.0", f)
	}
}

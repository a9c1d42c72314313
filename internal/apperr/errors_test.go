package apperr

import (
	"errors"
	"testing"
)

func TestWrapClassification(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrNotFound, "blobstore", "Open", "missing blob", cause)

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is to match ErrNotFound")
	}
	d := ExtractDetails(err)
	if d.Kind != KindNotFound {
		t.Fatalf("expected KindNotFound, got %s", d.Kind)
	}
	if d.Component != "blobstore" || d.Operation != "Open" {
		t.Fatalf("unexpected details: %+v", d)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestRPCCode(t *testing.T) {
	cases := []struct {
		marker error
		want   string
	}{
		{ErrNotFound, "NOT_FOUND"},
		{ErrPrecondition, "FAILED_PRECONDITION"},
		{ErrAuth, "UNAUTHENTICATED"},
		{ErrTemporary, "UNAVAILABLE"},
		{ErrIO, "INTERNAL"},
		{ErrOCR, "INTERNAL"},
		{ErrDecode, "FAILED_PRECONDITION"},
	}
	for _, tc := range cases {
		err := Wrap(tc.marker, "c", "op", "msg", nil)
		if got := RPCCode(err); got != tc.want {
			t.Errorf("RPCCode(%v) = %s, want %s", tc.marker, got, tc.want)
		}
	}
}

func TestWrapHintPropagatesNestedCode(t *testing.T) {
	inner := WrapHint(ErrIO, "blobstore", "rename", "cross-device", "E_XDEV", "retry with copy", nil)
	outer := Wrap(ErrIO, "blobstore", "import", "import failed", inner)
	d := ExtractDetails(outer)
	if d.Code != "E_XDEV" {
		t.Fatalf("expected nested code to propagate, got %q", d.Code)
	}
}

package export

import "testing"

func TestSanitizeReplacesUnsafeChars(t *testing.T) {
	got := Sanitize(`Who: A/B? "Special" <Edition>*`)
	want := `Who- A-B- -Special- -Edition--`
	if got != want {
		t.Errorf("Sanitize = %q, want %q", got, want)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	s := `a/b\c:d*e?f|g"h<i>j`
	once := Sanitize(s)
	twice := Sanitize(once)
	if once != twice {
		t.Errorf("Sanitize not idempotent: %q vs %q", once, twice)
	}
}

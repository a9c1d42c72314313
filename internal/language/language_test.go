package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"en-US", "en"},
		{"en-GB", "en"},
		{"fre", "fr"},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestToISO3(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "eng"},
		{"eng", "eng"},
		{"", "und"},
		{"en-US", "eng"},
	}
	for _, tt := range tests {
		if got := ToISO3(tt.input); got != tt.expected {
			t.Errorf("ToISO3(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		tag, preferred string
		want           bool
	}{
		{"eng", "en", true},
		{"en-US", "eng", true},
		{"fre", "en", false},
		{"", "en", false},
		{"fre", "", true}, // no preference configured matches everything
	}
	for _, tt := range tests {
		if got := Matches(tt.tag, tt.preferred); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.tag, tt.preferred, got, tt.want)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"ENG", "en", "fre", "fre"})
	want := []string{"en", "fr"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeList = %v, want %v", got, want)
		}
	}
}

package opensubtitles

import (
	"strings"
	"testing"
)

func TestNormalizeForComparisonStripsSrtFurniture(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:02,500\n<i>Hello, world!</i>\r\n\n2\n00:00:03,000 --> 00:00:04,000\nGoodbye.\n"
	got := NormalizeForComparison(raw)

	if strings.Contains(got, "-->") {
		t.Fatalf("expected time-range line to be stripped: %q", got)
	}
	if strings.Contains(got, "<i>") || strings.Contains(got, "</i>") {
		t.Fatalf("expected tags to be stripped: %q", got)
	}
	if !strings.Contains(got, "Hello, world!") {
		t.Fatalf("expected prose to survive: %q", got)
	}
	if !strings.Contains(got, "Goodbye.") {
		t.Fatalf("expected prose to survive: %q", got)
	}
}

func TestNormalizeForComparisonCollapsesWhitespace(t *testing.T) {
	got := NormalizeForComparison("Hello\n\n\nworld")
	if strings.Contains(got, "  ") {
		t.Fatalf("expected collapsed whitespace, got %q", got)
	}
}

package srt

import (
	"testing"
	"time"
)

func TestEncodeRoundTrip(t *testing.T) {
	cues := []Cue{
		{Timestamp: 0, Duration: 2 * time.Second, HasEnd: true, Data: "Hello\n"},
		{Timestamp: 3 * time.Second, HasEnd: false, Data: "World"},
		{Timestamp: 5 * time.Second, Duration: time.Second, HasEnd: true, Data: "!"},
	}
	encoded := Encode(cues, 10*time.Second)

	parsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(parsed))
	}
	if parsed[0].Data != "Hello" {
		t.Errorf("cue 0 data = %q, want %q (trailing newline stripped)", parsed[0].Data, "Hello")
	}
	if parsed[1].Timestamp != 3*time.Second {
		t.Errorf("cue 1 timestamp = %v", parsed[1].Timestamp)
	}
	// cue 1 had no explicit duration: its end should be cue 2's start (5s).
	if parsed[1].Timestamp+parsed[1].Duration != 5*time.Second {
		t.Errorf("cue 1 end = %v, want 5s", parsed[1].Timestamp+parsed[1].Duration)
	}
}

func TestEncodeLastCueUsesContainerDuration(t *testing.T) {
	cues := []Cue{{Timestamp: 0, Data: "only cue"}}
	encoded := Encode(cues, 42*time.Second)
	parsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed[0].Duration != 42*time.Second {
		t.Errorf("expected duration 42s, got %v", parsed[0].Duration)
	}
}

func TestEncodeTerminatesWithSingleNewline(t *testing.T) {
	encoded := Encode([]Cue{{Data: "x"}}, time.Second)
	if encoded[len(encoded)-1] != '\n' {
		t.Fatalf("expected trailing newline")
	}
	if len(encoded) >= 2 && encoded[len(encoded)-2] == '\n' {
		t.Fatalf("expected exactly one trailing newline, got more")
	}
}

func TestParseRejectsNonSequentialNumbers(t *testing.T) {
	bad := "1\n00:00:00,000 --> 00:00:01,000\nhi\n\n3\n00:00:01,000 --> 00:00:02,000\nbye\n"
	if _, err := Parse(bad); err == nil {
		t.Fatalf("expected error for non-sequential cue numbers")
	}
}

func TestFormatTimestampBoundary(t *testing.T) {
	got := formatTimestamp(3723*time.Second + 45*time.Millisecond)
	want := "01:02:03,045"
	if got != want {
		t.Errorf("formatTimestamp = %q, want %q", got, want)
	}
}

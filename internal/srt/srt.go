// Package srt implements the SubRip text subtitle codec: encoding a
// sequence of timed cues to SRT text, and parsing SRT text back into cues.
// Encode and Parse are inverse operations for any cue sequence produced by
// Encode itself.
package srt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mediacorral/internal/apperr"
)

// Cue is one timed subtitle entry. Timestamp and Duration are
// container-relative time.Duration values, as the Matroska analyzer hands
// them over; Encode writes them at millisecond resolution.
type Cue struct {
	Timestamp time.Duration
	Duration  time.Duration // zero means "no explicit duration"
	HasEnd    bool          // whether Duration should be treated as authoritative
	Data      string
}

// Encode renders cues as SRT text. containerDuration is used as the end
// time for the final cue when it carries no explicit duration. Each cue's
// Data has exactly one trailing newline stripped before it is written, and
// the whole file ends with exactly one trailing newline. This mirrors the
// original implementation's format_subtitles_srt, resolving the ambiguity
// between its two slightly divergent in-tree copies in favor of the
// strip-one-trailing-newline rule.
func Encode(cues []Cue, containerDuration time.Duration) string {
	var b strings.Builder
	for i, cue := range cues {
		if i != 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')

		start := cue.Timestamp
		end := containerDuration
		switch {
		case cue.HasEnd:
			end = start + cue.Duration
		case i+1 < len(cues):
			end = cues[i+1].Timestamp
		}

		b.WriteString(formatTimestamp(start))
		b.WriteString(" --> ")
		b.WriteString(formatTimestamp(end))
		b.WriteByte('\n')
		b.WriteString(strings.TrimSuffix(cue.Data, "\n"))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatTimestamp(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1_000
	ms -= seconds * 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// Parse reads SRT text into cues, requiring strictly increasing sequence
// numbers starting at 1 and well-formed "start --> end" ranges. Duration is
// always set (HasEnd is always true on parse output, since a parsed file
// carries explicit end times).
func Parse(text string) ([]Cue, error) {
	blocks := splitBlocks(text)
	cues := make([]Cue, 0, len(blocks))
	expected := 1
	for _, block := range blocks {
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, apperr.Wrap(apperr.ErrDecode, "srt", "Parse", "cue block too short", nil)
		}
		seq, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrDecode, "srt", "Parse", "invalid sequence number: "+lines[0], err)
		}
		if seq != expected {
			return nil, apperr.Wrap(apperr.ErrDecode, "srt", "Parse",
				fmt.Sprintf("non-sequential cue number: expected %d, got %d", expected, seq), nil)
		}
		expected++

		start, end, err := parseRange(lines[1])
		if err != nil {
			return nil, err
		}
		data := strings.Join(lines[2:], "\n")
		cues = append(cues, Cue{
			Timestamp: start,
			Duration:  end - start,
			HasEnd:    true,
			Data:      data,
		})
	}
	return cues, nil
}

func splitBlocks(text string) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n\n")
	blocks := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r != "" {
			blocks = append(blocks, r)
		}
	}
	return blocks
}

func parseRange(line string) (start, end time.Duration, err error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, apperr.Wrap(apperr.ErrDecode, "srt", "Parse", "malformed timing line: "+line, nil)
	}
	start, err = parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err = parseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTimestamp(s string) (time.Duration, error) {
	var h, m, sec, ms int
	n, err := fmt.Sscanf(s, "%d:%d:%d,%d", &h, &m, &sec, &ms)
	if err != nil || n != 4 {
		return 0, apperr.Wrap(apperr.ErrDecode, "srt", "Parse", "malformed timestamp: "+s, err)
	}
	total := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond
	return total, nil
}

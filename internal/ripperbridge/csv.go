package ripperbridge

import "strings"

// splitCSVRow splits a single MakeMKV output line into its comma-separated
// cells, honoring double-quoted fields where a doubled quote ("") is an
// escaped literal quote inside the field. This is MakeMKV's own dialect,
// not full RFC 4180 (no embedded newlines within a field), so a small
// hand-rolled scanner is used rather than a general CSV package.
func splitCSVRow(line string) []string {
	var cells []string
	var cur strings.Builder
	inQuotes := false
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inQuotes:
			if c == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					cur.WriteRune('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			cur.WriteRune(c)
		case c == '"':
			inQuotes = true
		case c == ',':
			cells = append(cells, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	cells = append(cells, cur.String())
	return cells
}

package export

import "regexp"

// unsafeChars matches every character forbidden (or awkward) in a path
// component across the filesystems this module targets.
var unsafeChars = regexp.MustCompile(`[/\\?%*:|"<>\x7F\x00-\x1F]`)

// Sanitize replaces filesystem-unsafe characters in a path component with
// a dash. It is idempotent: Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	return unsafeChars.ReplaceAllString(s, "-")
}

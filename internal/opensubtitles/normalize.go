package opensubtitles

import "regexp"

// stripRe strips HTML-like tags, SRT sequence numbers, time-range lines,
// carriage returns, and any punctuation outside [A-Za-z0-9 .,?!], leaving
// only the prose text two subtitle files can be meaningfully diffed on.
var stripRe = regexp.MustCompile(`(?m)(?:<\s*[^>]*>|<\s*/\s*a>)|(?:^.*-->.*$|^[0-9]+$|[^a-zA-Z0-9 ?.,!\n]|^\s*-*\s*|\r)`)

// collapseWhitespaceRe collapses runs of newlines and spaces left behind by
// stripRe into a single space.
var collapseWhitespaceRe = regexp.MustCompile(`[\n ]{1,}`)

// NormalizeForComparison reduces raw subtitle text to prose suitable for
// edit-distance comparison. The stored/downloaded copy is always the raw
// text; normalization exists only to make triangulation (and the matcher's
// reference-to-local comparison) robust to formatting differences between
// otherwise-identical subtitle files.
func NormalizeForComparison(raw string) string {
	stripped := stripRe.ReplaceAllString(raw, "")
	return collapseWhitespaceRe.ReplaceAllString(stripped, " ")
}

// Package language normalizes language tags across the ISO 639-1/639-3
// boundary: Matroska tracks carry 3-letter (or IETF) tags, OpenSubtitles'
// API speaks 2-letter codes, and C3/C6 need to compare the two when
// selecting a subtitle track or filtering catalog results. Conversions are
// delegated to github.com/barbashov/iso639-3 rather than a hand-rolled
// table.
package language

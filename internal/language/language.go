package language

import (
	"strings"

	iso6393 "github.com/barbashov/iso639-3"
)

// ToISO2 converts any recognized language code (2-letter, 3-letter, or an
// IETF tag like "en-US") to ISO 639-1 (2-letter). Returns the lowercased
// primary subtag (region subtag dropped) if it is not recognized.
func ToISO2(code string) string {
	code = normalizeTag(code)
	if code == "" {
		return ""
	}
	if entry := iso6393.FromAnyCode(code); entry != nil && entry.Part1 != "" {
		return entry.Part1
	}
	if len(code) == 2 {
		return code
	}
	return code
}

// ToISO3 converts any recognized language code to ISO 639-3 (3-letter),
// matching Matroska's LanguageIETF/Language track tags. Returns "und" for
// empty input and for input that cannot be resolved to a known language,
// except that an unrecognized 3-letter code is returned as is.
func ToISO3(code string) string {
	code = normalizeTag(code)
	if code == "" {
		return "und"
	}
	if entry := iso6393.FromAnyCode(code); entry != nil {
		return entry.Id
	}
	if len(code) == 3 {
		return code
	}
	return "und"
}

// DisplayName returns a human-readable language name for any recognized
// code, or the uppercased code itself when unrecognized.
func DisplayName(code string) string {
	trimmed := normalizeTag(code)
	if trimmed == "" {
		return "Unknown"
	}
	if entry := iso6393.FromAnyCode(trimmed); entry != nil && entry.RefName != "" {
		return entry.RefName
	}
	return strings.ToUpper(trimmed)
}

// Matches reports whether tag (a Matroska Language/LanguageIETF value, or an
// OpenSubtitles two-letter attribute) names the same language as preferred,
// regardless of which of ISO 639-1/639-2/639-3 each uses. An empty
// preferred matches everything (no language filtering configured); an empty
// tag never matches a non-empty preferred.
func Matches(tag, preferred string) bool {
	preferred = normalizeTag(preferred)
	if preferred == "" {
		return true
	}
	tag = normalizeTag(tag)
	if tag == "" {
		return false
	}
	if tag == preferred {
		return true
	}
	return ToISO3(tag) == ToISO3(preferred)
}

// NormalizeList deduplicates and normalizes a list of language codes to
// ISO 639-1, preserving first-seen order.
func NormalizeList(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		normalized := ToISO2(code)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func normalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if idx := strings.IndexAny(tag, "-_"); idx > 0 {
		// IETF tags like "en-US"/"en-GB" carry a region subtag the 639
		// tables don't know about; the primary subtag is what identifies
		// the language.
		tag = tag[:idx]
	}
	return tag
}

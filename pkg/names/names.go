// Package names holds the pure string transforms used to compare and store
// game names. Channel and role names on Discord typically look like
// "🔫・Valorant"; these helpers split off the emoji prefix and collapse the
// remainder into comparable keys.
package names

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Separators seen between an emoji prefix and the actual name.
const separators = "・|•"

// Emoji prefixes longer than this many runes are not treated as emoji.
// Generous enough for multi-codepoint emoji (ZWJ sequences, variation
// selectors).
const maxEmojiRunes = 8

// splitPrefix splits raw into an emoji-ish prefix and the rest around the
// first separator. ok is false when no separator is present or the
// separator leads the string.
func splitPrefix(raw string) (prefix, rest string, ok bool) {
	idx := strings.IndexAny(raw, separators)
	if idx <= 0 {
		return "", "", false
	}
	_, sepLen := utf8.DecodeRuneInString(raw[idx:])
	return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+sepLen:]), true
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeForComparison reduces a display name to its canonical comparison
// key: the emoji prefix is dropped, accents are decomposed and removed, and
// every character outside [a-z0-9] is stripped. Two names refer to the same
// game iff their keys are equal and non-empty. Garbage in, best-effort
// string out; never fails.
func NormalizeForComparison(raw string) string {
	s := ExtractCleanName(raw)
	s = strings.ToLower(s)
	if folded, _, err := transform.String(stripDiacritics, s); err == nil {
		s = folded
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtractEmoji returns the emoji prefix of raw, or "" when raw has no
// prefix within the length bound.
func ExtractEmoji(raw string) string {
	prefix, _, ok := splitPrefix(raw)
	if !ok || prefix == "" {
		return ""
	}
	if utf8.RuneCountInString(prefix) > maxEmojiRunes {
		return ""
	}
	return prefix
}

// ExtractCleanName returns the part of raw after the emoji prefix, or raw
// trimmed when no separator is found.
func ExtractCleanName(raw string) string {
	if _, rest, ok := splitPrefix(raw); ok {
		return rest
	}
	return strings.TrimSpace(raw)
}

// ToKebabKey produces the stable storage key for a display name: lowercase,
// spaces become hyphens, everything outside [a-z0-9-] is dropped. Unlike
// NormalizeForComparison this keeps hyphens, so the result stays readable
// as a dropdown option value.
func ToKebabKey(raw string) string {
	s := strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteRune('-')
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

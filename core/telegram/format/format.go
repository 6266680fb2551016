// Package format holds small text helpers for message rendering.
package format

import "unicode/utf8"

// Deref returns *p, or def when p is nil.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Shorten cuts s to at most limit runes, ending with "…" when cut.
func Shorten(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-1]) + "…"
}

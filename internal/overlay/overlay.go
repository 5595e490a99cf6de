// Package overlay renders the capture-time caption burned into each clip.
//
// Everything here is pure: the encoder package takes the escaped string and
// places it in the drawtext filter.
package overlay

import (
	"strings"
	"time"
)

// Layout renders e.g. "January 05, 2024 at 9:07am".
const Layout = "January 02, 2006 at 3:04pm"

// FormatTimestamp renders t in local time using Layout.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(Layout)
}

// ffmpeg unescapes a drawtext caption three times. The filtergraph parser
// splits filters on the graphSpecial runes, the option parser splits
// key=value pairs on ':', and drawtext expands '%{...}' sequences. Every
// level treats a backslash as an escape; the first two also open a quoted
// span at a single quote, inside which a backslash is literal.
const (
	graphSpecial  = `\'[],;`
	optionSpecial = `\':`
	expandSpecial = `\%`
	whitespace    = " \n\t\r"
)

// EscapeDrawtext escapes a caption for an unquoted drawtext text= value
// inside a -vf filtergraph. The result survives all three unescaping passes
// unchanged.
func EscapeDrawtext(s string) string {
	return EscapeFilterValue(escapeRunes(s, expandSpecial, false))
}

// EscapeFilterValue escapes an option value (such as a font path) for an
// unquoted position inside a -vf filtergraph.
func EscapeFilterValue(s string) string {
	return escapeRunes(escapeRunes(s, optionSpecial, true), graphSpecial, false)
}

// escapeRunes prefixes every rune in special with a backslash. With edges
// set, leading and trailing whitespace is escaped too, since the option
// parser trims unescaped whitespace at both ends of a value.
func escapeRunes(s, special string, edges bool) string {
	notSpace := func(r rune) bool { return !strings.ContainsRune(whitespace, r) }
	first := strings.IndexFunc(s, notSpace)
	last := strings.LastIndexFunc(s, notSpace)

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i, r := range s {
		edge := edges && (first < 0 || i < first || i > last) && !notSpace(r)
		if edge || strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Text returns the caption for a clip captured at t, prefixed with prefix.
// The result is unescaped.
func Text(t time.Time, prefix string) string {
	return prefix + FormatTimestamp(t)
}

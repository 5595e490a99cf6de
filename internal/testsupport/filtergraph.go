package testsupport

import (
	"fmt"
	"strings"
)

const ffmpegWhitespace = " \n\t\r"

// FFmpegToken mirrors libavutil's av_get_token: it skips leading
// whitespace, reads up to the first unescaped, unquoted rune in term,
// resolves backslash escapes and single-quoted spans, and trims trailing
// whitespace that was neither escaped nor quoted. It returns the token and
// the unread remainder (starting at the terminator, if any).
func FFmpegToken(buf, term string) (string, string) {
	p := strings.TrimLeft(buf, ffmpegWhitespace)
	var out []byte
	end := 0
	for len(p) > 0 && !strings.ContainsRune(term, rune(p[0])) {
		c := p[0]
		p = p[1:]
		switch {
		case c == '\\' && len(p) > 0:
			out = append(out, p[0])
			p = p[1:]
			end = len(out)
		case c == '\'':
			i := strings.IndexByte(p, '\'')
			if i < 0 {
				out = append(out, p...)
				p = ""
				break
			}
			out = append(out, p[:i]...)
			p = p[i+1:]
			end = len(out)
		default:
			out = append(out, c)
		}
	}
	for len(out) > end && strings.ContainsRune(ffmpegWhitespace, rune(out[len(out)-1])) {
		out = out[:len(out)-1]
	}
	return string(out), p
}

// ParseFilterOptions decodes a single "name=k=v:k=v" -vf value the way
// ffmpeg does: the filtergraph pass first, then the key=value option pass.
// It fails when the graph pass does not consume the whole string, which is
// what happens when an unescaped separator leaks out of a value.
func ParseFilterOptions(filter string) (string, map[string]string, error) {
	name, args, ok := strings.Cut(filter, "=")
	if !ok {
		return filter, nil, nil
	}
	graphArgs, rest := FFmpegToken(args, "[],;")
	if rest != "" {
		return name, nil, fmt.Errorf("filtergraph stopped early at %q", rest)
	}

	opts := make(map[string]string)
	for graphArgs != "" {
		key, tail, ok := strings.Cut(graphArgs, "=")
		if !ok {
			return name, nil, fmt.Errorf("option without value at %q", graphArgs)
		}
		value, remainder := FFmpegToken(tail, ":")
		if _, dup := opts[key]; dup {
			return name, nil, fmt.Errorf("duplicate option %q", key)
		}
		opts[key] = value
		graphArgs = strings.TrimPrefix(remainder, ":")
	}
	return name, opts, nil
}

// ExpandDrawtext resolves drawtext's own backslash escapes in a text value.
// It reports an error for a bare '%', which drawtext rejects.
func ExpandDrawtext(text string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '\\' && i+1 < len(text):
			i++
			b.WriteByte(text[i])
		case c == '%':
			return "", fmt.Errorf("stray %% at offset %d", i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

package encoder

import (
	"strconv"
	"strings"

	"clipreel/internal/overlay"
)

func preamble(s Settings) []string {
	return []string{s.binary(), "-hide_banner", "-nostdin", "-y", "-loglevel", "error"}
}

func appendCodecs(args []string, s Settings) []string {
	args = append(args, "-c:v", s.VideoCodec)
	if s.VideoCodec != "copy" {
		args = append(args,
			"-crf", strconv.Itoa(s.CRF),
			"-preset", s.Preset,
		)
	}
	return append(args, "-c:a", s.AudioCodec)
}

// DrawtextFilter returns the -vf value for text, which must already be
// escaped with overlay.EscapeDrawtext.
func DrawtextFilter(s Settings, text string) string {
	opts := make([]string, 0, 8)
	if s.FontFile != "" {
		opts = append(opts, "fontfile="+overlay.EscapeFilterValue(s.FontFile))
	}
	opts = append(opts,
		"text="+text,
		"x="+strconv.Itoa(s.X),
		"y="+strconv.Itoa(s.Y),
		"fontcolor="+s.FontColor,
		"fontsize="+strconv.Itoa(s.FontSize),
	)
	if s.Box {
		opts = append(opts, "box=1", "boxcolor="+s.BoxColor)
	}
	return "drawtext=" + strings.Join(opts, ":")
}

// BuildAnnotateArgs returns the full argv (binary first) that re-encodes in
// to out with text burned into the frame.
func BuildAnnotateArgs(s Settings, in, out, text string) []string {
	args := make([]string, 0, 24)
	args = append(args, preamble(s)...)
	args = append(args, "-i", in, "-vf", DrawtextFilter(s, text))
	args = appendCodecs(args, s)
	return append(args, out)
}

// BuildConcatArgs returns the full argv that joins the clips listed in the
// concat manifest into out.
func BuildConcatArgs(s Settings, manifest, out string) []string {
	args := make([]string, 0, 24)
	args = append(args, preamble(s)...)
	args = append(args, "-f", "concat", "-safe", "0", "-i", manifest)
	if strings.EqualFold(s.ConcatMode, ConcatCopy) {
		args = append(args, "-c", "copy")
	} else {
		args = appendCodecs(args, s)
	}
	return append(args, out)
}

package encoder

import (
	"strings"

	"clipreel/internal/config"
)

// Concat modes.
const (
	ConcatReencode = config.ConcatModeReencode
	ConcatCopy     = config.ConcatModeCopy
)

// Settings controls codec and overlay parameters.
type Settings struct {
	Binary     string
	VideoCodec string
	AudioCodec string
	CRF        int
	Preset     string
	FontFile   string
	FontSize   int
	FontColor  string
	X          int
	Y          int
	Box        bool
	BoxColor   string
	ConcatMode string
}

// FromConfig maps the [encoder] config section to Settings.
func FromConfig(cfg *config.Config) Settings {
	enc := cfg.Encoder
	return Settings{
		Binary:     cfg.FFmpegBinary(),
		VideoCodec: enc.VideoCodec,
		AudioCodec: enc.AudioCodec,
		CRF:        enc.CRF,
		Preset:     enc.Preset,
		FontFile:   enc.FontFile,
		FontSize:   enc.FontSize,
		FontColor:  enc.FontColor,
		X:          enc.X,
		Y:          enc.Y,
		Box:        enc.Box,
		BoxColor:   enc.BoxColor,
		ConcatMode: enc.ConcatMode,
	}
}

func (s Settings) binary() string {
	if b := strings.TrimSpace(s.Binary); b != "" {
		return b
	}
	return "ffmpeg"
}

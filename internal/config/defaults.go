package config

const (
	defaultSourceDir        = "/media/sdcard/DCIM"
	defaultBackupDir        = "~/Video Backups"
	defaultCompilationsName = "Compilations"
	defaultStateDir         = "~/.local/share/clipreel"
	defaultRunLog           = "video_compilation.log"
	defaultExtension        = ".mp4"
	defaultVideoCodec       = "libx264"
	defaultAudioCodec       = "aac"
	defaultCRF              = 23
	defaultPreset           = "fast"
	defaultFontSize         = 24
	defaultFontColor        = "white"
	defaultOverlayX         = 100
	defaultOverlayY         = 100
	defaultBoxColor         = "black@0.5"
	defaultConcatMode       = ConcatModeReencode
	defaultCaptureTime      = CaptureTimeMetadata
	defaultWatchPollSeconds = 1
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Concat modes.
const (
	ConcatModeReencode = "reencode"
	ConcatModeCopy     = "copy"
)

// Capture time policies.
const (
	CaptureTimeMetadata   = "metadata"
	CaptureTimeFilesystem = "filesystem"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			BackupDir: defaultBackupDir,
			StateDir:  defaultStateDir,
			RunLog:    defaultRunLog,
		},
		Ingest: Ingest{
			Extensions: []string{defaultExtension},
		},
		Encoder: Encoder{
			VideoCodec: defaultVideoCodec,
			AudioCodec: defaultAudioCodec,
			CRF:        defaultCRF,
			Preset:     defaultPreset,
			FontSize:   defaultFontSize,
			FontColor:  defaultFontColor,
			X:          defaultOverlayX,
			Y:          defaultOverlayY,
			Box:        true,
			BoxColor:   defaultBoxColor,
			ConcatMode: defaultConcatMode,
		},
		Workflow: Workflow{
			CaptureTime:      defaultCaptureTime,
			WatchPollSeconds: defaultWatchPollSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

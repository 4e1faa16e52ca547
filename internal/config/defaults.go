package config

const (
	defaultDataDir            = "~/.local/share/ytplayer"
	defaultDatabaseName       = "library.db"
	defaultYouTubeBaseURL     = "https://www.googleapis.com/youtube/v3"
	defaultSnippetTimeoutMS   = 1500
	defaultDetailsTimeoutMS   = 3500
	defaultThumbnailTimeoutMS = 1500
	defaultPageSize           = 50
	defaultRequestsPerSecond  = 5.0
	defaultMaxItemMinutes     = 45
	defaultFetchBinary        = "yt-dlp"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultQuality            = 6
	defaultSegmentSeconds     = 10
	defaultMaxItems           = 50
	defaultCleanupDelayMS     = 1000
	defaultStagingMaxAgeHours = 48
	defaultUsernamePattern    = `^[A-Za-z0-9_.-]{3,32}$`
	defaultPasswordPattern    = `^\S{8,72}$`
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

// DefaultAudioFilters is the ffmpeg -af chain applied between download and
// encode: denoise, two compressor stages, then loudness normalization.
var DefaultAudioFilters = []string{
	"anlmdn=s=25",
	"acompressor=ratio=2:threshold=-50dB:attack=1",
	"acompressor=ratio=4.35:threshold=-36dB:attack=1:release=120",
	"loudnorm=I=-17:LRA=10:TP=-0.5",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		YouTube: YouTube{
			BaseURL:            defaultYouTubeBaseURL,
			SnippetTimeoutMS:   defaultSnippetTimeoutMS,
			DetailsTimeoutMS:   defaultDetailsTimeoutMS,
			ThumbnailTimeoutMS: defaultThumbnailTimeoutMS,
			PageSize:           defaultPageSize,
			RequestsPerSecond:  defaultRequestsPerSecond,
			MaxItemMinutes:     defaultMaxItemMinutes,
		},
		Download: Download{
			FetchBinary:        defaultFetchBinary,
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
			Quality:            defaultQuality,
			SegmentSeconds:     defaultSegmentSeconds,
			MaxItems:           defaultMaxItems,
			AudioFilters:       append([]string(nil), DefaultAudioFilters...),
			CleanupDelayMS:     defaultCleanupDelayMS,
			GeoBypass:          true,
			StagingMaxAgeHours: defaultStagingMaxAgeHours,
		},
		Workers: Workers{
			LimitToCores: true,
		},
		Accounts: Accounts{
			UsernamePattern: defaultUsernamePattern,
			PasswordPattern: defaultPasswordPattern,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

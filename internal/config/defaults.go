package config

const (
	defaultStagingDir       = "~/.local/share/scribeq/staging"
	defaultLogDir           = "~/.local/share/scribeq/logs"
	defaultBaseURL          = "https://api.lingo.example.com"
	defaultRequestTimeout   = 60
	defaultTargetLanguage   = "en-US"
	defaultOutputTemplate   = "{name}.{lang}.{ext}"
	defaultOutputFormat     = "srt"
	defaultSampleSeconds    = 240
	defaultItemDelaySeconds = 1
	defaultPollInterval     = 10
	defaultPollTimeout      = 7200
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

func defaultVideoExtensions() []string {
	return []string{".mp4", ".mkv", ".avi", ".mov", ".webm", ".m4v", ".mpg", ".mpeg", ".wmv"}
}

func defaultAudioExtensions() []string {
	return []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".aac", ".wma", ".opus"}
}

func defaultSubtitleExtensions() []string {
	return []string{".srt", ".vtt", ".ass", ".ssa", ".sub"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		API: API{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Models: Models{
			TargetLanguage: defaultTargetLanguage,
		},
		Files: Files{
			VideoExtensions:    defaultVideoExtensions(),
			AudioExtensions:    defaultAudioExtensions(),
			SubtitleExtensions: defaultSubtitleExtensions(),
		},
		Batch: Batch{
			ChainTranslation:    false,
			AutoRemoveCompleted: false,
			OutputTemplate:      defaultOutputTemplate,
			OutputFormat:        defaultOutputFormat,
		},
		Detection: Detection{
			AutoDetectMedia:  true,
			SampleSeconds:    defaultSampleSeconds,
			ItemDelaySeconds: defaultItemDelaySeconds,
		},
		Polling: Polling{
			IntervalSeconds: defaultPollInterval,
			TimeoutSeconds:  defaultPollTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

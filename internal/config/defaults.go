package config

const (
	defaultConfigPath             = "~/.config/matchreel/config.toml"
	defaultWatchDir               = "~/Videos/OBS"
	defaultLogDir                 = "~/.local/share/matchreel"
	defaultAPIBind                = "127.0.0.1:7488"
	defaultWatchMode              = "fsnotify"
	defaultWatchPollInterval      = 2
	defaultWatchQueueSize         = 64
	defaultTimezone               = "America/New_York"
	defaultWindowSeconds          = 3 * 60 * 60
	defaultHistoryLimit           = 200
	defaultOpenDotaBaseURL        = "https://api.opendota.com/api"
	defaultOpenDotaTimeout        = 30
	defaultOpenDotaRequestsPerMin = 60
	defaultPrivacyStatus          = "unlisted"
	defaultChunkSizeMiB           = 8
	defaultUploadMaxAttempts      = 5
	defaultUploadRetryBase        = 2
	defaultUploadTimeout          = 2 * 60 * 60
	defaultNotifyTimeout          = 30
	defaultStableSeconds          = 20
	defaultStablePollInterval     = 2
	defaultMissingGraceSeconds    = 60
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

var defaultExtensions = []string{".mp4", ".mkv"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir: defaultWatchDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Watch: Watch{
			Extensions:   append([]string(nil), defaultExtensions...),
			Mode:         defaultWatchMode,
			PollInterval: defaultWatchPollInterval,
			QueueSize:    defaultWatchQueueSize,
		},
		Recording: Recording{
			Timezone: defaultTimezone,
		},
		Matching: Matching{
			WindowBeforeSeconds: defaultWindowSeconds,
			WindowAfterSeconds:  defaultWindowSeconds,
			HistoryLimit:        defaultHistoryLimit,
		},
		OpenDota: OpenDota{
			BaseURL:           defaultOpenDotaBaseURL,
			RequestTimeout:    defaultOpenDotaTimeout,
			RequestsPerMinute: defaultOpenDotaRequestsPerMin,
		},
		YouTube: YouTube{
			PrivacyStatus:    defaultPrivacyStatus,
			ChunkSizeMiB:     defaultChunkSizeMiB,
			MaxAttempts:      defaultUploadMaxAttempts,
			RetryBaseSeconds: defaultUploadRetryBase,
			UploadTimeout:    defaultUploadTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Workflow: Workflow{
			StableSeconds:       defaultStableSeconds,
			StablePollInterval:  defaultStablePollInterval,
			MissingGraceSeconds: defaultMissingGraceSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package config

const (
	defaultLogDir           = "~/.local/share/snapsort/logs"
	defaultCacheDir         = "~/.cache/snapsort"
	defaultWorkers          = 4
	defaultProgressInterval = 1000
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		Organize: Organize{
			Workers:          defaultWorkers,
			ProgressInterval: defaultProgressInterval,
		},
		Dedup: Dedup{
			HashCache: true,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

package config

const (
	defaultDataDir                = "~/.local/share/marquee/data/ml-latest-small"
	defaultDatabaseDir            = "~/.local/share/marquee/database"
	defaultLogDir                 = "~/.local/share/marquee/logs"
	defaultCachePath              = "~/.cache/marquee/omdb_cache.json"
	defaultOMDbBaseURL            = "https://www.omdbapi.com/"
	defaultOMDbRateLimitSeconds   = 0.25
	defaultOMDbTimeoutSeconds     = 10
	defaultBatchSize              = 1000
	defaultSampleLimit            = 100
	defaultDatasetDownloadURL     = "https://files.grouplens.org/datasets/movielens/ml-latest-small.zip"
	defaultDatasetDownloadTimeout = 300
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			DatabaseDir: defaultDatabaseDir,
			LogDir:      defaultLogDir,
			CachePath:   defaultCachePath,
		},
		OMDb: OMDb{
			BaseURL:          defaultOMDbBaseURL,
			RateLimitSeconds: defaultOMDbRateLimitSeconds,
			TimeoutSeconds:   defaultOMDbTimeoutSeconds,
		},
		ETL: ETL{
			BatchSize:   defaultBatchSize,
			SampleLimit: defaultSampleLimit,
		},
		Dataset: Dataset{
			DownloadURL:            defaultDatasetDownloadURL,
			DownloadTimeoutSeconds: defaultDatasetDownloadTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

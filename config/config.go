package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Server configuration
	Server struct {
		// Port the HTTP server listens on
		Port int `env:"PORT" envDefault:"5250"`

		// Path to the SQLite database file
		DatabasePath string `env:"DATABASE_PATH" envDefault:"data/property.db"`
	}

	// Fetch configuration for the upstream data sources
	Fetch struct {
		// User agent sent with every upstream request
		UserAgent string `env:"FETCH_USER_AGENT" envDefault:"uk-property-investment/1.0"`

		// Directory holding the persistent geocode cache
		GeocodeCacheDir string `env:"GEOCODE_CACHE_DIR" envDefault:"data"`
	}

	// Prediction engine configuration
	Prediction struct {
		// Seed for the jitter source, 0 means seed from the clock
		Seed int64 `env:"PREDICTION_SEED" envDefault:"0"`

		// Path to the area baseline table
		AreaProfilePath string `env:"AREA_PROFILE_PATH" envDefault:"config/area_profiles.json"`
	}

	// Refresh configuration for the background warmers
	Refresh struct {
		// Postcodes refreshed by the scheduled jobs
		Postcodes []string `env:"REFRESH_POSTCODES" envSeparator:"," envDefault:"SW1A 1AA,M1 1AE,EH1 1YZ,CF10 1EP"`

		// Number of concurrent refresh workers
		WorkerCount int `env:"REFRESH_WORKER_COUNT" envDefault:"4"`

		// Cron expression for the hourly economic warm-up
		EconomicCron string `env:"REFRESH_ECONOMIC_CRON" envDefault:"0 * * * *"`

		// Cron expression for the nightly metrics refresh
		MetricsCron string `env:"REFRESH_METRICS_CRON" envDefault:"0 3 * * *"`

		// Cron expression for the weekly full refresh including crime
		FullCron string `env:"REFRESH_FULL_CRON" envDefault:"30 4 * * 1"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of records to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Maximum time to wait before processing a non-full batch (in seconds)
		MaxBatchWaitTime int `env:"BATCH_WAIT_TIME" envDefault:"30"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	// Telegram notification configuration
	Telegram struct {
		// Bot token, notifications are disabled when empty
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`

		// Chat the refresh summaries are sent to
		ChatID string `env:"TELEGRAM_CHAT_ID"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TelegramEnabled reports whether both telegram settings are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

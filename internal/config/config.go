package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	StorageDir string

	BackupDir      string
	MaxBackups     int
	BackupSchedule string

	NATSURL         string
	NATSConnTimeout time.Duration

	ScrapeDelayMin   time.Duration
	ScrapeDelayMax   time.Duration
	ScrapeBatchLimit int

	OTELCollectorURL string
}

func LoadConfig() (*Config, error) {
	// A missing .env file is fine; real environment variables win either way.
	_ = godotenv.Load()

	config := &Config{
		StorageDir:       getEnvString("STORAGE_DIR", "data/active"),
		BackupDir:        getEnvString("BACKUP_DIR", "data/backups"),
		MaxBackups:       getEnvInt("MAX_BACKUPS", 5),
		BackupSchedule:   getEnvString("BACKUP_SCHEDULE", ""),
		NATSURL:          getEnvString("NATS_URL", ""),
		NATSConnTimeout:  getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),
		ScrapeDelayMin:   getEnvDuration("SCRAPE_DELAY_MIN", 800*time.Millisecond),
		ScrapeDelayMax:   getEnvDuration("SCRAPE_DELAY_MAX", 1800*time.Millisecond),
		ScrapeBatchLimit: getEnvInt("SCRAPE_BATCH_LIMIT", 0),
		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
	}

	if config.ScrapeDelayMax < config.ScrapeDelayMin {
		config.ScrapeDelayMax = config.ScrapeDelayMin
	}

	return config, nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

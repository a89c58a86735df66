package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Index source. Exactly one is used, preferred in this order:
	// database, object storage, local file.
	IndexPath   string `envconfig:"INDEX_PATH" default:"data/search-index.json"`
	IndexKey    string `envconfig:"INDEX_KEY" default:"search-index.json"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"concierge-index"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	SchedulePath string `envconfig:"SCHEDULE_PATH" default:"data/agenda.json"`

	// Day-name aliases resolving to event dates,
	// e.g. "monday:2025-10-20,tuesday:2025-10-21".
	DayMap map[string]string `envconfig:"DAY_MAP"`

	TopK                int           `envconfig:"TOP_K" default:"6"`
	ConfidenceThreshold float64       `envconfig:"CONFIDENCE_THRESHOLD" default:"0.75"`
	MinFallbackCount    int           `envconfig:"MIN_FALLBACK_COUNT" default:"3"`
	ReloadInterval      time.Duration `envconfig:"RELOAD_INTERVAL" default:"0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CONCIERGE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

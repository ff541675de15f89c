package config

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultCatalogBaseURL is the datos.gob.es dataset catalog endpoint.
const DefaultCatalogBaseURL = "https://datos.gob.es/apidata/catalog/dataset"

// Config holds all run settings, populated from environment variables.
type Config struct {
	CatalogBaseURL  string
	CatalogPageSize int
	CatalogSort     string
	CatalogTimeout  time.Duration

	// MaxPages caps the number of pages fetched. Zero disables the cap.
	MaxPages int

	DBPath    string
	OutputDir string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional catalog event sink. Disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	catalogTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("CATALOG_TIMEOUT", "60s"))
	if err != nil || catalogTimeout <= 0 {
		return nil, errors.New("invalid CATALOG_TIMEOUT")
	}

	pageSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("CATALOG_PAGE_SIZE", "5"))
	if err != nil || pageSize < 1 || pageSize > 1000 {
		return nil, errors.New("CATALOG_PAGE_SIZE must be between 1 and 1000")
	}

	maxPages, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAX_PAGES", "100"))
	if err != nil || maxPages < 0 {
		return nil, errors.New("MAX_PAGES must be a non-negative integer (0 disables the cap)")
	}

	var brokers []string
	if raw := strings.TrimSpace(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		CatalogBaseURL:  sharedcfg.EnvOrDefault("CATALOG_BASE_URL", DefaultCatalogBaseURL),
		CatalogPageSize: pageSize,
		CatalogSort:     sharedcfg.EnvOrDefault("CATALOG_SORT", "-modified"),
		CatalogTimeout:  catalogTimeout,
		MaxPages:        maxPages,
		DBPath:          sharedcfg.EnvOrDefault("DB_PATH", "datosgob.db"),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "data"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ""),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    brokers,
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "catalog-datasets"),
	}

	if u, err := url.Parse(cfg.CatalogBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("CATALOG_BASE_URL must be an absolute URL")
	}
	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether ingested datasets are published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/pricetracker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Store configuration
	DatabaseDriver string
	DatabaseURL    string

	// Scrape configuration
	CitiesFile     string
	ScrapeDriver   string
	RodControlURL  string
	ScrapeInterval time.Duration

	// Display configuration
	HTTPAddr        string
	Sites           []string
	ListingCacheTTL time.Duration

	// Redis configuration (price change stream)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration (listing cache)
	MemcacheAddr string

	// Environment
	Environment  string
	ErrorLogFile string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "10000"))
	scrapeInterval, _ := strconv.Atoi(getEnv("SCRAPE_INTERVAL_SECONDS", "0"))
	listingCache, _ := strconv.Atoi(getEnv("LISTING_CACHE_SECONDS", "60"))

	return &Config{
		DatabaseDriver:       getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:          getEnv("DATABASE_URL", "pricetracker.db"),
		CitiesFile:           getEnv("CITIES_FILE", "cities.json"),
		ScrapeDriver:         getEnv("SCRAPE_DRIVER", "http"),
		RodControlURL:        getEnv("ROD_CONTROL_URL", ""),
		ScrapeInterval:       time.Duration(scrapeInterval) * time.Second,
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		Sites:                splitList(getEnv("SITES", "dodo")),
		ListingCacheTTL:      time.Duration(listingCache) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "pricetracker:changes"),
		RedisStreamMaxLength: streamMaxLength,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		Environment:          getEnv("PRICETRACKER_ENVIRONMENT", "development"),
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", ""),
	}
}

// Validate checks the values that LoadConfig cannot default sensibly
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver), nil)
	}
	if c.DatabaseURL == "" {
		return apperrors.NewConfiguration("DATABASE_URL must be set", nil)
	}
	switch c.ScrapeDriver {
	case "http", "rod":
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unsupported SCRAPE_DRIVER %q", c.ScrapeDriver), nil)
	}
	if c.ScrapeInterval < 0 {
		return apperrors.NewConfiguration("SCRAPE_INTERVAL_SECONDS must not be negative", nil)
	}
	if len(c.Sites) == 0 {
		return apperrors.NewConfiguration("SITES must name at least one site", nil)
	}
	if c.RedisAddr != "" && c.RedisStream == "" {
		return apperrors.NewConfiguration("REDIS_STREAM must be set when REDIS_ADDR is", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

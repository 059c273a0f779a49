package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL      string
	AppID        string
	BatchSize    int
	ItemDelay    time.Duration
	PollInterval time.Duration
	Timeout      time.Duration
	OutputFile   string
	OutputFormat string // csv, json, or dual
	MetricsAddr  string
	UserAgent    string
	Verbose      bool
	DedupeSize   int
}

// DefaultConfig returns conservative defaults for the workshop target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "https://steamcommunity.com",
		AppID:        "2168680",
		BatchSize:    4,
		ItemDelay:    500 * time.Millisecond,
		PollInterval: 500 * time.Millisecond,
		Timeout:      30 * time.Second,
		OutputFile:   "output/workshop.csv",
		OutputFormat: "csv",
		MetricsAddr:  "",
		UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:      false,
		DedupeSize:   4096,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.AppID == "" {
		return fmt.Errorf("app id cannot be empty")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.ItemDelay < 0 {
		return fmt.Errorf("item delay cannot be negative")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DedupeSize <= 0 {
		return fmt.Errorf("dedupe cache size must be positive")
	}

	return nil
}

// SeedURL derives the listing base URL for a seed identifier. An
// all-digit seed is treated as a numeric profile id, anything else as
// a custom vanity name.
func (c *Config) SeedURL(seed string) string {
	if isDigits(seed) {
		return fmt.Sprintf("%s/profiles/%s/myworkshopfiles/?appid=%s", c.BaseURL, seed, c.AppID)
	}
	return fmt.Sprintf("%s/id/%s/myworkshopfiles/?appid=%s", c.BaseURL, seed, c.AppID)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// EnvString reads a string environment variable, reporting presence.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	return value, ok
}

// EnvInt reads an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, true, nil
}

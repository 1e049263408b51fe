package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds pipeline configuration.
type Config struct {
	BaseURL          string
	Concurrency      int
	MaxAttempts      int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RequestTimeout   time.Duration
	IncludeAnalogs   bool
	OffersPerArticle int
	ProxyDatabaseURL string
	ProxyTypeFilter  string
	ExportDir        string
	MetricsAddr      string
	UserAgent        string
	Verbose          bool
}

// DefaultConfig returns the defaults used against stparts.ru.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://stparts.ru",
		Concurrency:      10,
		MaxAttempts:      3,
		RetryBaseDelay:   time.Second,
		RetryMaxDelay:    60 * time.Second,
		RequestTimeout:   30 * time.Second,
		IncludeAnalogs:   false,
		OffersPerArticle: 10,
		ProxyDatabaseURL: "",
		ProxyTypeFilter:  "",
		ExportDir:        "exports",
		MetricsAddr:      "",
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36",
		Verbose:          false,
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

	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive")
	}
	if c.RetryMaxDelay <= 0 {
		return fmt.Errorf("retry max delay must be positive")
	}
	if c.RetryBaseDelay > c.RetryMaxDelay {
		return fmt.Errorf("retry base delay (%s) cannot exceed retry max delay (%s)", c.RetryBaseDelay, c.RetryMaxDelay)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.OffersPerArticle <= 0 {
		return fmt.Errorf("offers per article must be positive")
	}
	if c.ExportDir == "" {
		return fmt.Errorf("export directory cannot be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

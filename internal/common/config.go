// Package common provides shared utilities for Hindsight
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Hindsight
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Cache       CacheConfig    `toml:"cache"`
	Clients     ClientsConfig  `toml:"clients"`
	Analysis    AnalysisConfig `toml:"analysis"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// CacheConfig holds market-data cache configuration.
type CacheConfig struct {
	Path string `toml:"path"`
	TTL  string `toml:"ttl"` // duration string, default "24h"
}

// GetTTL parses and returns the cache TTL duration
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo         YahooConfig         `toml:"yahoo"`
	CurrencyLayer CurrencyLayerConfig `toml:"currencylayer"`
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CurrencyLayerConfig holds currencylayer API configuration
type CurrencyLayerConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *CurrencyLayerConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// AnalysisConfig holds valuation engine configuration.
type AnalysisConfig struct {
	BenchmarkSymbol string `toml:"benchmark_symbol"` // benchmark index ticker, default "^GSPC"
	HistoryYears    int    `toml:"history_years"`    // how far back market data is requested
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Cache: CacheConfig{
			Path: "data/market",
			TTL:  "24h",
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
			CurrencyLayer: CurrencyLayerConfig{
				BaseURL:   "https://apilayer.net",
				RateLimit: 1,
				Timeout:   "30s",
			},
		},
		Analysis: AnalysisConfig{
			BenchmarkSymbol: "^GSPC",
			HistoryYears:    3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("HINDSIGHT_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("HINDSIGHT_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("HINDSIGHT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("HINDSIGHT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("HINDSIGHT_CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}

	if key := os.Getenv("CURRENCYLAYER_API_KEY"); key != "" {
		config.Clients.CurrencyLayer.APIKey = key
	}

	if benchmark := os.Getenv("HINDSIGHT_BENCHMARK"); benchmark != "" {
		config.Analysis.BenchmarkSymbol = benchmark
	}
}

// Package app wires configuration, clients, storage, and services into a
// runnable application core shared by the server entry point and tests.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/hindsight/internal/clients/currencylayer"
	"github.com/bobmcallan/hindsight/internal/clients/yahoo"
	"github.com/bobmcallan/hindsight/internal/common"
	"github.com/bobmcallan/hindsight/internal/interfaces"
	"github.com/bobmcallan/hindsight/internal/services/analysis"
	"github.com/bobmcallan/hindsight/internal/services/marketdata"
	"github.com/bobmcallan/hindsight/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	Cache             *storage.FileCache
	MarketDataService interfaces.MarketDataService
	Analyzer          interfaces.PortfolioAnalyzer
	StartupTime       time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, cache, clients, and services.
// configPath may be empty, in which case resolution falls back to the
// HINDSIGHT_CONFIG environment variable, then hindsight.toml next to the
// binary, then the development config path.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("HINDSIGHT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "hindsight.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/hindsight.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Relative cache paths resolve against the binary, not the cwd
	if config.Cache.Path != "" && !filepath.IsAbs(config.Cache.Path) {
		config.Cache.Path = filepath.Join(binDir, config.Cache.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	cache, err := storage.NewFileCache(logger, config.Cache.Path, config.Cache.GetTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)

	if config.Clients.CurrencyLayer.APIKey == "" {
		logger.Warn().Msg("CurrencyLayer API key not configured - non-USD prices will pass through unconverted")
	}
	fxClient := currencylayer.NewClient(config.Clients.CurrencyLayer.APIKey,
		currencylayer.WithBaseURL(config.Clients.CurrencyLayer.BaseURL),
		currencylayer.WithLogger(logger),
		currencylayer.WithRateLimit(config.Clients.CurrencyLayer.RateLimit),
		currencylayer.WithTimeout(config.Clients.CurrencyLayer.GetTimeout()),
	)

	marketDataService := marketdata.NewService(yahooClient, fxClient, cache, logger)
	analyzer := analysis.NewService(marketDataService, config.Analysis.BenchmarkSymbol, logger)

	a := &App{
		Config:            config,
		Logger:            logger,
		Cache:             cache,
		MarketDataService: marketDataService,
		Analyzer:          analyzer,
		StartupTime:       startupStart,
	}

	logger.Info().
		Str("benchmark", config.Analysis.BenchmarkSymbol).
		Str("cache", config.Cache.Path).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info().Msg("App shutdown complete")
	}
	return nil
}

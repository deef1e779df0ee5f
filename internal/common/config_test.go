package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_DefaultBenchmark(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Analysis.BenchmarkSymbol != "^GSPC" {
		t.Errorf("Analysis.BenchmarkSymbol default = %q, want %q", cfg.Analysis.BenchmarkSymbol, "^GSPC")
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("HINDSIGHT_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_BenchmarkEnvOverride(t *testing.T) {
	t.Setenv("HINDSIGHT_BENCHMARK", "^NDX")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Analysis.BenchmarkSymbol != "^NDX" {
		t.Errorf("Analysis.BenchmarkSymbol = %q, want %q", cfg.Analysis.BenchmarkSymbol, "^NDX")
	}
}

func TestConfig_CurrencyLayerKeyEnvOverride(t *testing.T) {
	t.Setenv("CURRENCYLAYER_API_KEY", "from-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.CurrencyLayer.APIKey != "from-env" {
		t.Errorf("CurrencyLayer.APIKey = %q, want %q", cfg.Clients.CurrencyLayer.APIKey, "from-env")
	}
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hindsight.toml")
	content := `
environment = "test"

[server]
port = 7001

[cache]
ttl = "1h"

[analysis]
benchmark_symbol = "^FTSE"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Environment != "test" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "test")
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 7001)
	}
	if cfg.Cache.GetTTL() != time.Hour {
		t.Errorf("Cache.GetTTL() = %v, want %v", cfg.Cache.GetTTL(), time.Hour)
	}
	if cfg.Analysis.BenchmarkSymbol != "^FTSE" {
		t.Errorf("Analysis.BenchmarkSymbol = %q, want %q", cfg.Analysis.BenchmarkSymbol, "^FTSE")
	}
}

func TestConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/hindsight.toml")
	if err != nil {
		t.Fatalf("LoadConfig with missing file: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, 8080)
	}
}

func TestCacheConfig_BadTTLFallsBack(t *testing.T) {
	c := CacheConfig{TTL: "not-a-duration"}
	if c.GetTTL() != 24*time.Hour {
		t.Errorf("GetTTL() = %v, want 24h fallback", c.GetTTL())
	}
}

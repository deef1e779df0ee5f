// Package storage provides file-based JSON caching for fetched market data.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobmcallan/hindsight/internal/common"
	"github.com/bobmcallan/hindsight/internal/models"
)

// subdirectories defines the directory layout under basePath.
var subdirectories = []string{"market", "charts"}

// FileCache caches per-symbol market data as JSON files. Entries are keyed
// by (symbol, from, to) and expire by file modification time.
type FileCache struct {
	basePath string
	ttl      time.Duration
	logger   *common.Logger
}

// NewFileCache creates a FileCache and ensures all subdirectories exist.
func NewFileCache(logger *common.Logger, path string, ttl time.Duration) (*FileCache, error) {
	fc := &FileCache{
		basePath: path,
		ttl:      ttl,
		logger:   logger,
	}

	for _, sub := range subdirectories {
		dir := filepath.Join(fc.basePath, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger.Debug().Str("path", path).Dur("ttl", ttl).Msg("FileCache opened")
	return fc, nil
}

// sanitizeKey makes a key safe for use as a filename.
// Replaces /, \, : with _ and collapses ".." to "_" to prevent path traversal.
// Preserves single dots (safe in filenames, common in tickers like VOD.UK).
func (fc *FileCache) sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_", "^", "_", "=", "_")
	return r.Replace(key)
}

func (fc *FileCache) cacheKey(symbol string, from, to time.Time) string {
	return fmt.Sprintf("%s_%s_%s", symbol, models.DateKey(from), models.DateKey(to))
}

func (fc *FileCache) filePath(symbol string, from, to time.Time) string {
	return filepath.Join(fc.basePath, "market", fc.sanitizeKey(fc.cacheKey(symbol, from, to))+".json")
}

// Get returns the cached record for a key, or ok=false on miss or when the
// entry is older than the cache TTL.
func (fc *FileCache) Get(symbol string, from, to time.Time) (*models.TickerMarketData, bool) {
	path := fc.filePath(symbol, from, to)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if fc.ttl > 0 && time.Since(info.ModTime()) > fc.ttl {
		fc.logger.Debug().Str("symbol", symbol).Msg("Cache entry expired")
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return nil, false
	}

	var record models.TickerMarketData
	if err := json.Unmarshal(data, &record); err != nil {
		fc.logger.Warn().Str("symbol", symbol).Err(err).Msg("Corrupt cache entry, ignoring")
		return nil, false
	}

	return &record, true
}

// Put stores a record for a key.
func (fc *FileCache) Put(symbol string, from, to time.Time, record *models.TickerMarketData) error {
	jsonData, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	if err := fc.writeAtomic(fc.filePath(symbol, from, to), jsonData); err != nil {
		return err
	}

	fc.logger.Debug().Str("symbol", symbol).Msg("Market data cached")
	return nil
}

// Purge removes all cached market entries, returning the count deleted.
func (fc *FileCache) Purge() (int, error) {
	dir := filepath.Join(fc.basePath, "market")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	count := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err == nil {
			count++
		}
	}

	fc.logger.Debug().Int("count", count).Msg("Cache purged")
	return count, nil
}

// WriteChart writes rendered chart bytes to the charts directory.
func (fc *FileCache) WriteChart(name string, data []byte) (string, error) {
	target := filepath.Join(fc.basePath, "charts", fc.sanitizeKey(name))
	if err := fc.writeAtomic(target, data); err != nil {
		return "", err
	}
	return target, nil
}

// writeAtomic writes to a temp file in the target directory, then renames.
func (fc *FileCache) writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobmcallan/hindsight/internal/common"
	"github.com/bobmcallan/hindsight/internal/models"
)

func newTestCache(t *testing.T, ttl time.Duration) *FileCache {
	t.Helper()
	fc, err := NewFileCache(common.NewSilentLogger(), t.TempDir(), ttl)
	if err != nil {
		t.Fatalf("NewFileCache failed: %v", err)
	}
	return fc
}

func sampleRecord() *models.TickerMarketData {
	record := models.NewTickerMarketData("AAPL")
	record.Currency = "USD"
	record.LongName = "Apple Inc."
	record.Price["2024-03-01"] = 180.75
	record.SplitAdjustedPrice["2024-03-01"] = 180.75
	return record
}

func TestFileCache_PutGetRoundTrip(t *testing.T) {
	fc := newTestCache(t, time.Hour)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := fc.Put("AAPL", from, to, sampleRecord()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := fc.Get("AAPL", from, to)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Currency != "USD" {
		t.Errorf("currency = %q, want USD", got.Currency)
	}
	if got.Price["2024-03-01"] != 180.75 {
		t.Errorf("price = %v, want 180.75", got.Price["2024-03-01"])
	}
}

func TestFileCache_MissOnDifferentRange(t *testing.T) {
	fc := newTestCache(t, time.Hour)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := fc.Put("AAPL", from, to, sampleRecord()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, ok := fc.Get("AAPL", from.AddDate(0, 0, 1), to); ok {
		t.Error("expected miss for a different range key")
	}
	if _, ok := fc.Get("MSFT", from, to); ok {
		t.Error("expected miss for a different symbol")
	}
}

func TestFileCache_TTLExpiry(t *testing.T) {
	fc := newTestCache(t, 50*time.Millisecond)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := fc.Put("AAPL", from, to, sampleRecord()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Backdate the entry past the TTL instead of sleeping
	path := fc.filePath("AAPL", from, to)
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	if _, ok := fc.Get("AAPL", from, to); ok {
		t.Error("expected miss for expired entry")
	}
}

func TestFileCache_CorruptEntryIgnored(t *testing.T) {
	fc := newTestCache(t, time.Hour)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	path := fc.filePath("AAPL", from, to)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, ok := fc.Get("AAPL", from, to); ok {
		t.Error("expected miss for corrupt entry")
	}
}

func TestFileCache_Purge(t *testing.T) {
	fc := newTestCache(t, time.Hour)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	fc.Put("AAPL", from, to, sampleRecord())
	fc.Put("MSFT", from, to, sampleRecord())

	count, err := fc.Purge()
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if count != 2 {
		t.Errorf("purged %d entries, want 2", count)
	}
	if _, ok := fc.Get("AAPL", from, to); ok {
		t.Error("expected miss after purge")
	}
}

func TestFileCache_SanitizesSymbols(t *testing.T) {
	fc := newTestCache(t, time.Hour)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := fc.Put("^GSPC", from, to, sampleRecord()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, ok := fc.Get("^GSPC", from, to); !ok {
		t.Error("expected hit for index symbol")
	}

	entries, err := os.ReadDir(filepath.Join(fc.basePath, "market"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if filepath.Base(e.Name()) != e.Name() {
			t.Errorf("unsafe filename %q", e.Name())
		}
	}
}

func TestFileCache_WriteChart(t *testing.T) {
	fc := newTestCache(t, time.Hour)

	path, err := fc.WriteChart("growth.png", []byte{0x89, 'P', 'N', 'G'})
	if err != nil {
		t.Fatalf("WriteChart failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != 4 {
		t.Errorf("chart file has %d bytes, want 4", len(data))
	}
}

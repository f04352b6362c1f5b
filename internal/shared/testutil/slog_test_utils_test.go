package testutil

import (
	"log/slog"
	"testing"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		if got := handler.Count(); got != 2 {
			t.Errorf("Expected 2 records, got %d", got)
		}
		if !handler.ContainsMessage("test message") {
			t.Error("Expected to find 'test message'")
		}
		if !handler.ContainsAttr("key", "value") {
			t.Error("Expected to find attribute key=value")
		}
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		if got := len(handler.GetRecordsByLevel(slog.LevelInfo)); got != 1 {
			t.Errorf("Expected 1 info record, got %d", got)
		}
		AssertLogContains(t, handler, slog.LevelWarn, "warn")
	})

	t.Run("derived loggers share records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("component", "cache").WithGroup("fetch").Info("refreshed", "rows", 3)

		records := handler.GetRecords()
		if len(records) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(records))
		}
		if records[0].Attrs["component"] != "cache" {
			t.Errorf("Expected component attr, got %v", records[0].Attrs)
		}
		if records[0].Attrs["fetch.rows"] != int64(3) {
			t.Errorf("Expected grouped attr fetch.rows=3, got %v", records[0].Attrs)
		}
		AssertNoErrors(t, handler)
	})

	t.Run("attrs after a group are qualified", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.WithGroup("fetch").With("source", "csv").WithGroup("retry").Info("retrying", "attempt", 2)

		attrs := handler.GetRecords()[0].Attrs
		if attrs["fetch.source"] != "csv" {
			t.Errorf("Expected fetch.source attr, got %v", attrs)
		}
		if attrs["fetch.retry.attempt"] != int64(2) {
			t.Errorf("Expected fetch.retry.attempt attr, got %v", attrs)
		}
	})
}

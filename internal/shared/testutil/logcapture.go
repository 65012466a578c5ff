package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log line with its attributes flattened,
// including those added through Logger.With.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type logStore struct {
	mu      sync.Mutex
	records []LogRecord
}

// LogCapture is a slog.Handler that keeps every record in memory.
type LogCapture struct {
	store *logStore
	attrs []slog.Attr
	tb    testing.TB
}

// NewTestLogger returns a debug-level logger whose output is captured and
// mirrored to the test log.
func NewTestLogger(tb testing.TB) (*slog.Logger, *LogCapture) {
	c := &LogCapture{store: &logStore{}, tb: tb}
	return slog.New(c), c
}

func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(c.attrs)+r.NumAttrs())
	for _, a := range c.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	c.store.mu.Lock()
	c.store.records = append(c.store.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	c.store.mu.Unlock()

	if c.tb != nil {
		c.tb.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *c
	next.attrs = append(append([]slog.Attr(nil), c.attrs...), attrs...)
	return &next
}

// WithGroup is a no-op; captured attributes are kept flat.
func (c *LogCapture) WithGroup(string) slog.Handler { return c }

// Records returns a copy of everything captured so far.
func (c *LogCapture) Records() []LogRecord {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return append([]LogRecord(nil), c.store.records...)
}

// Find returns the first record whose message contains substr.
func (c *LogCapture) Find(substr string) (LogRecord, bool) {
	for _, r := range c.Records() {
		if strings.Contains(r.Message, substr) {
			return r, true
		}
	}
	return LogRecord{}, false
}

// AtLevel returns the records logged at exactly level.
func (c *LogCapture) AtLevel(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range c.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Reset drops all captured records.
func (c *LogCapture) Reset() {
	c.store.mu.Lock()
	c.store.records = nil
	c.store.mu.Unlock()
}

// AssertLogContains fails the test unless a record message contains substr.
func AssertLogContains(tb testing.TB, c *LogCapture, substr string) LogRecord {
	tb.Helper()
	r, ok := c.Find(substr)
	if !ok {
		tb.Errorf("no log message containing %q; captured %d records", substr, len(c.Records()))
	}
	return r
}

// AssertNoErrors fails the test if anything was logged at error level.
func AssertNoErrors(tb testing.TB, c *LogCapture) {
	tb.Helper()
	for _, r := range c.AtLevel(slog.LevelError) {
		tb.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
	}
}

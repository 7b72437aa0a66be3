package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// LogBuffer collects zerolog JSON output so tests can assert on warnings.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Logger returns a debug-level logger writing into the buffer.
func (b *LogBuffer) Logger() zerolog.Logger {
	return zerolog.New(b).Level(zerolog.DebugLevel)
}

// Entries decodes every logged line.
func (b *LogBuffer) Entries(t *testing.T) []map[string]any {
	t.Helper()

	b.mu.Lock()
	raw := b.buf.String()
	b.mu.Unlock()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

// Warnings returns logged warn-level entries, optionally filtered by the
// "field" attribute.
func (b *LogBuffer) Warnings(t *testing.T, field string) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, entry := range b.Entries(t) {
		if entry[zerolog.LevelFieldName] != zerolog.LevelWarnValue {
			continue
		}
		if field != "" && entry["field"] != field {
			continue
		}
		out = append(out, entry)
	}
	return out
}

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New("formcontainer", zerolog.WarnLevel, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("field", "emial").Msg("container: field doesn't exist")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info entry should be filtered: %q", out)
	}
	for _, want := range []string{"WRN", "app=formcontainer", "field=emial"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

package sysutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel}, // case + trim
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel}, // empty -> info
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel}, // alias
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel}, // default
	}

	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetupLogger_JSONAndPretty(t *testing.T) {
	origLogger, origLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = origLogger
		zerolog.SetGlobalLevel(origLevel)
	})

	var buf bytes.Buffer
	SetupLogger(&buf, "info", false)
	log.Debug().Msg("hidden")
	log.Info().Str("paper_id", "2401.00001").Msg("stored")

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", line, err)
	}
	if entry["paper_id"] != "2401.00001" || entry["service"] != "paper-digest" || entry["message"] != "stored" {
		t.Fatalf("unexpected entry: %v", entry)
	}

	buf.Reset()
	SetupLogger(&buf, "debug", true)
	log.Debug().Msg("visible")
	if out := buf.String(); !strings.Contains(out, "visible") || strings.HasPrefix(out, "{") {
		t.Fatalf("pretty output unexpected: %q", out)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q; want \"\"", got)
	}
	if got := FirstNonEmpty(" ", "\t", "\n"); got != "" {
		t.Fatalf("FirstNonEmpty(empties) = %q; want \"\"", got)
	}
	// preserves original spacing
	if got := FirstNonEmpty("   ", "  ru  ", "en"); got != "  ru  " {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "  ru  ")
	}
	if got := FirstNonEmpty("en", "ru"); got != "en" {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "en")
	}
}

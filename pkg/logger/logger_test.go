package logx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestResolveLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		conf Config
		want zerolog.Level
	}{
		{conf: Config{}, want: zerolog.InfoLevel},
		{conf: Config{Debug: true}, want: zerolog.DebugLevel},
		{conf: Config{Level: "WARN", Debug: true}, want: zerolog.WarnLevel},
		{conf: Config{Level: "nonsense"}, want: zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := resolveLevel(&tc.conf); got != tc.want {
			t.Fatalf("resolveLevel(%+v) = %v, want %v", tc.conf, got, tc.want)
		}
	}
}

func TestInitWriterAddsServiceField(t *testing.T) {
	var buf bytes.Buffer
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	InitWriter(&buf, Config{Service: "media-test"})
	log.Info().Str("run_id", "run-1").Msg("hello")
	log.Debug().Msg("hidden")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["service"] != "media-test" || entry["run_id"] != "run-1" || entry["message"] != "hello" {
		t.Fatalf("entry = %v", entry)
	}
}

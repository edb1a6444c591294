package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	defer Reset()

	var first, second bytes.Buffer
	Init(Options{Level: "warn", Service: "api", Output: &first})
	Init(Options{Level: "debug", Output: &second})

	root := Get()
	root.Info().Msg("dropped")
	queue := Component("queue")
	queue.Warn().Msg("kept")

	if second.Len() != 0 {
		t.Fatal("second Init must not replace the logger")
	}

	var event map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(first.Bytes()), &event); err != nil {
		t.Fatalf("expected exactly one JSON event, got %q: %v", first.String(), err)
	}
	if event["service"] != "api" || event["component"] != "queue" || event["message"] != "kept" {
		t.Fatalf("unexpected event: %v", event)
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Get()
}

package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func restoreGlobal(t *testing.T) {
	t.Helper()
	prev, prevLevel, prevFormat := log.Logger, zerolog.GlobalLevel(), zerolog.TimeFieldFormat
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
		zerolog.TimeFieldFormat = prevFormat
	})
}

func TestSetupJSONFile(t *testing.T) {
	restoreGlobal(t)
	path := filepath.Join(t.TempDir(), "agrovet.log")

	err := Setup(LogConfig{Level: "debug", Format: "json", TimeFormat: "2006-01-02", Output: path})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	l := WithComponent("metrics")
	l.Info().Str("key", "pregnancy_rate").Msg("parsed")
	rl := WithRequestID("req-1")
	rl.Debug().Msg("request")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2:\n%s", len(lines), data)
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if first["component"] != "metrics" || first["key"] != "pregnancy_rate" || first["message"] != "parsed" {
		t.Errorf("first line = %v", first)
	}
	if !strings.Contains(lines[1], `"request_id":"req-1"`) {
		t.Errorf("second line = %s", lines[1])
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	restoreGlobal(t)
	if err := Setup(LogConfig{Level: "loud", Output: "stderr"}); err == nil {
		t.Error("Setup() accepted an invalid level")
	}
}

func TestFromContext(t *testing.T) {
	restoreGlobal(t)
	path := filepath.Join(t.TempDir(), "ctx.log")
	if err := Setup(LogConfig{Level: "info", Format: "json", Output: path}); err != nil {
		t.Fatal(err)
	}

	reqLog := WithRequestID("req-42")
	ctx := reqLog.WithContext(context.Background())
	l := FromContext(ctx)
	l.Info().Msg("from context")

	fallback := FromContext(context.Background())
	fallback.Info().Msg("global")

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "req-42") || strings.Contains(lines[1], "req-42") {
		t.Errorf("log output:\n%s", data)
	}
}

package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"question_bank_backend/internal/config"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		mode, level string
		want        zapcore.Level
	}{
		{"debug", "", zap.DebugLevel},
		{"release", "", zap.InfoLevel},
		{"debug", "warn", zap.WarnLevel},
		{"release", "error", zap.ErrorLevel},
		{"release", "loud", zap.InfoLevel},
	}
	for _, tt := range tests {
		cfg := &config.Config{Server: config.ServerConfig{Mode: tt.mode}, Log: config.LogConfig{Level: tt.level}}
		if got := logLevel(cfg); got != tt.want {
			t.Errorf("logLevel(%q, %q) = %v, want %v", tt.mode, tt.level, got, tt.want)
		}
	}
}

func TestInitLoggerWritesServiceField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qb.log")
	InitLogger(&config.Config{
		Server: config.ServerConfig{Mode: "release"},
		Log:    config.LogConfig{File: path, Level: "info"},
	})
	t.Cleanup(func() { Log = zap.NewNop() })

	Log.Named("exam").Info("Exam export started", zap.String("export_id", "abc"))
	Log.Debug("hidden")

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	defer f.Close()

	var entries []map[string]interface{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", sc.Text(), err)
		}
		entries = append(entries, entry)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["service"] != ServiceName || e["logger"] != "exam" || e["export_id"] != "abc" {
		t.Errorf("entry = %v", e)
	}
}

package log

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func readRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log file: %v", err)
	}
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("log line is not JSON: %v: %s", err, scanner.Text())
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	return records
}

func messages(records []map[string]any) map[string]bool {
	msgs := make(map[string]bool)
	for _, r := range records {
		if m, ok := r["msg"].(string); ok {
			msgs[m] = true
		}
	}
	return msgs
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level  string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.level)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.level, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNew_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	l := New("info", dir)
	defer l.Close()

	if l.LogFile != filepath.Join(dir, FileName) {
		t.Errorf("Expected LogFile %s, got %s", filepath.Join(dir, FileName), l.LogFile)
	}
	if l.Start.IsZero() {
		t.Error("Expected Start to be set")
	}

	l.Warn("tank low", slog.String("tank", "lMain"))
	l.Debug("hidden detail")

	msgs := messages(readRecords(t, l.LogFile))
	if !msgs["Hello logging"] {
		t.Error("Expected startup record")
	}
	if !msgs["tank low"] {
		t.Error("Expected warning record")
	}
	if msgs["hidden detail"] {
		t.Error("Debug record should be filtered at info level")
	}
}

func TestNew_DebugLevel(t *testing.T) {
	dir := t.TempDir()
	l := New("debug", dir)
	defer l.Close()

	l.Debug("swap detail")

	if !messages(readRecords(t, l.LogFile))["swap detail"] {
		t.Error("Expected debug record at debug level")
	}
}

func TestWith_AddsAttributes(t *testing.T) {
	dir := t.TempDir()
	l := New("info", dir)
	defer l.Close()

	l.With(slog.String("component", "tracker")).Info("leg started")

	found := false
	for _, r := range readRecords(t, l.LogFile) {
		if r["msg"] == "leg started" {
			found = true
			if r["component"] != "tracker" {
				t.Errorf("Expected component=tracker, got %v", r["component"])
			}
		}
	}
	if !found {
		t.Error("Expected record from derived logger")
	}
}

func TestClose_NilSafe(t *testing.T) {
	var l *Logger
	if err := l.Close(); err != nil {
		t.Errorf("Close() on nil logger returned %v", err)
	}
}

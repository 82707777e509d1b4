package storage

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/saviobatista/fuelbal/internal/testutils"
	"github.com/saviobatista/fuelbal/internal/types"
)

var day1 = time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

func newTestStorage(t *testing.T, clock *testutils.Clock) *Storage {
	t.Helper()
	s := New(t.TempDir())
	s.SetClock(clock.Now)
	return s
}

func TestNew(t *testing.T) {
	s := New("/tmp/events")
	if s.outputDir != "/tmp/events" {
		t.Errorf("Expected outputDir /tmp/events, got %s", s.outputDir)
	}
	if s.stopChan == nil {
		t.Error("Expected stopChan to be initialized")
	}
	if s.file != nil {
		t.Error("Expected file to be nil before Start")
	}
}

func TestStorage_FileName(t *testing.T) {
	s := New("out")
	local := time.Date(2026, 3, 1, 20, 0, 0, 0, time.FixedZone("PST", -8*3600))
	if got := s.FileName(local); got != filepath.Join("out", "events_2026-03-02.jsonl") {
		t.Errorf("FileName() = %s, want the UTC day", got)
	}
}

func TestStorage_StartAndStop(t *testing.T) {
	clock := testutils.NewClock(day1)
	s := newTestStorage(t, clock)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if _, err := os.Stat(s.FileName(day1)); err != nil {
		t.Errorf("Expected day file to exist: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Second Stop() failed: %v", err)
	}
}

func TestStorage_StartCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "events")
	s := New(dir)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Stop()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected output directory to be created: %v", err)
	}
}

func TestStorage_WriteMessage(t *testing.T) {
	clock := testutils.NewClock(day1)
	s := newTestStorage(t, clock)

	messages := [][]byte{
		[]byte(`{"type":"leg_started"}`),
		[]byte("{\"type\":\"swap_logged\"}\n"),
		{},
	}
	for _, m := range messages {
		if err := s.WriteMessage(m); err != nil {
			t.Fatalf("WriteMessage() failed: %v", err)
		}
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	content, err := os.ReadFile(s.FileName(day1))
	if err != nil {
		t.Fatalf("Failed to read day file: %v", err)
	}
	want := "{\"type\":\"leg_started\"}\n{\"type\":\"swap_logged\"}\n\n"
	if string(content) != want {
		t.Errorf("Content = %q, want %q", content, want)
	}
}

func TestStorage_WriteMessage_DoesNotAliasInput(t *testing.T) {
	clock := testutils.NewClock(day1)
	s := newTestStorage(t, clock)
	defer s.Stop()

	buf := make([]byte, 3, 10)
	copy(buf, "abc")
	if err := s.WriteMessage(buf); err != nil {
		t.Fatalf("WriteMessage() failed: %v", err)
	}
	if got := buf[:4]; got[3] == '\n' {
		t.Error("WriteMessage should not write into the caller's buffer")
	}
}

func TestStorage_WriteEventAndReadDay(t *testing.T) {
	clock := testutils.NewClock(day1)
	s := newTestStorage(t, clock)

	events := []*types.FlightEvent{
		testutils.MockFlightEvent(types.EventLegStarted, "leg-1"),
		testutils.MockFlightEvent(types.EventSwapLogged, "leg-1"),
	}
	for _, e := range events {
		if err := s.WriteEvent(e); err != nil {
			t.Fatalf("WriteEvent() failed: %v", err)
		}
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	got, err := s.ReadDay(day1)
	if err != nil {
		t.Fatalf("ReadDay() failed: %v", err)
	}
	if len(got) != 2 || got[0].Type != types.EventLegStarted || got[1].Type != types.EventSwapLogged {
		t.Errorf("ReadDay() = %+v", got)
	}
}

func TestStorage_RotatesAndCompressesOnNewDay(t *testing.T) {
	clock := testutils.NewClock(day1)
	s := newTestStorage(t, clock)

	if err := s.WriteEvent(testutils.MockFlightEvent(types.EventLegStarted, "leg-1")); err != nil {
		t.Fatalf("WriteEvent() failed: %v", err)
	}
	clock.Advance(2 * time.Minute)
	if err := s.WriteEvent(testutils.MockFlightEvent(types.EventShutdown, "leg-1")); err != nil {
		t.Fatalf("WriteEvent() failed: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	day2 := day1.Add(2 * time.Minute)
	if _, err := os.Stat(s.FileName(day1)); !os.IsNotExist(err) {
		t.Errorf("Expected previous day file to be removed, got %v", err)
	}
	if _, err := os.Stat(s.FileName(day1) + ".gz"); err != nil {
		t.Fatalf("Expected compressed previous day file: %v", err)
	}

	first, err := s.ReadDay(day1)
	if err != nil {
		t.Fatalf("ReadDay(day1) failed: %v", err)
	}
	if len(first) != 1 || first[0].Type != types.EventLegStarted {
		t.Errorf("Compressed day content = %+v", first)
	}

	second, err := s.ReadDay(day2)
	if err != nil {
		t.Fatalf("ReadDay(day2) failed: %v", err)
	}
	if len(second) != 1 || second[0].Type != types.EventShutdown {
		t.Errorf("Current day content = %+v", second)
	}
}

func TestCompressFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events_2026-03-01.jsonl")
	content := strings.Repeat("{\"type\":\"swap_logged\"}\n", 50)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if err := compressFile(path); err != nil {
		t.Fatalf("compressFile() failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected original file to be removed")
	}

	f, err := os.Open(path + ".gz")
	if err != nil {
		t.Fatalf("Failed to open compressed file: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("Failed to read gzip header: %v", err)
	}
	data, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("Failed to decompress: %v", err)
	}
	if string(data) != content {
		t.Errorf("Decompressed content mismatch: %d bytes, want %d", len(data), len(content))
	}
}

func TestCompressFile_NonExistent(t *testing.T) {
	if err := compressFile(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestStorage_ReadDay_Missing(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.ReadDay(day1); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestStorage_ReadDay_CorruptLine(t *testing.T) {
	s := New(t.TempDir())
	if err := os.WriteFile(s.FileName(day1), []byte("{\"type\":\"shutdown\"}\nnot json\n"), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	events, err := s.ReadDay(day1)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected decode error on line 2, got %v", err)
	}
	if len(events) != 1 {
		t.Errorf("Expected the good line to be returned, got %d", len(events))
	}
}

func TestStorage_WriteInvalidPath(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing", "dir"))
	if err := s.WriteMessage([]byte("x")); err == nil {
		t.Error("Expected error writing under a missing directory")
	}
}

func TestStorage_ConcurrentWrites(t *testing.T) {
	clock := testutils.NewClock(day1.Add(-time.Hour))
	s := newTestStorage(t, clock)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := s.WriteEvent(testutils.MockFlightEvent(types.EventSwapLogged, "leg-1")); err != nil {
					t.Errorf("WriteEvent() failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	events, err := s.ReadDay(day1)
	if err != nil {
		t.Fatalf("ReadDay() failed: %v", err)
	}
	if len(events) != 200 {
		t.Errorf("Expected 200 events, got %d", len(events))
	}
}

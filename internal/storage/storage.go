package storage

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/saviobatista/fuelbal/internal/types"
)

const dayLayout = "2006-01-02"

// Storage appends flight events as JSON lines to one file per UTC day.
// Files of past days are gzip-compressed on rotation.
type Storage struct {
	outputDir string
	file      *os.File
	day       string
	mu        sync.Mutex
	stopChan  chan struct{}
	wg        sync.WaitGroup
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a new Storage instance
func New(outputDir string) *Storage {
	return &Storage{
		outputDir: outputDir,
		stopChan:  make(chan struct{}),
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetClock sets the time source used to pick the day file
func (s *Storage) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Storage) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// FileName returns the journal path for the day of t
func (s *Storage) FileName(t time.Time) string {
	return filepath.Join(s.outputDir, fmt.Sprintf("events_%s.jsonl", t.UTC().Format(dayLayout)))
}

// Start initializes the storage system and starts the rotation timer
func (s *Storage) Start() error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	s.mu.Lock()
	err := s.openFile()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go s.rotationTimer()

	return nil
}

// Stop closes the current file and stops the rotation timer
func (s *Storage) Stop() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

// WriteEvent appends one event to the journal
func (s *Storage) WriteEvent(event *types.FlightEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.WriteMessage(data)
}

// WriteMessage writes a line to the current day file, rotating first when
// the day has changed
func (s *Storage) WriteMessage(message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil || s.day != s.now().UTC().Format(dayLayout) {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	// Check if message already ends with newline
	if len(message) > 0 && message[len(message)-1] == '\n' {
		_, err := s.file.Write(message)
		return err
	}

	line := make([]byte, 0, len(message)+1)
	line = append(line, message...)
	_, err := s.file.Write(append(line, '\n'))
	return err
}

// rotationTimer handles daily rotation at midnight UTC
func (s *Storage) rotationTimer() {
	defer s.wg.Done()

	for {
		now := s.now().UTC()
		nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)

		select {
		case <-time.After(nextMidnight.Sub(now)):
			s.mu.Lock()
			err := s.rotate()
			s.mu.Unlock()
			if err != nil {
				s.logger.Error("Failed to rotate event journal", slog.Any("error", err))
			}
		case <-s.stopChan:
			return
		}
	}
}

// rotate closes the current file, compresses it if its day is over and
// opens today's file. The caller holds mu.
func (s *Storage) rotate() error {
	prev := s.day
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			s.logger.Warn("Failed to close event journal", slog.Any("error", err))
		}
		s.file = nil
	}

	if err := s.openFile(); err != nil {
		return err
	}

	if prev != "" && prev != s.day {
		old := filepath.Join(s.outputDir, fmt.Sprintf("events_%s.jsonl", prev))
		if _, err := os.Stat(old); err == nil {
			if err := compressFile(old); err != nil {
				return fmt.Errorf("failed to compress file: %w", err)
			}
		}
	}
	return nil
}

// openFile opens today's file for appending. The caller holds mu.
func (s *Storage) openFile() error {
	now := s.now()
	file, err := os.OpenFile(s.FileName(now), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	s.file = file
	s.day = now.UTC().Format(dayLayout)
	return nil
}

// compressFile gzips path to path.gz and removes the original
func compressFile(path string) error {
	source, err := os.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer target.Close()

	gzipWriter := gzip.NewWriter(target)
	if _, err := io.Copy(gzipWriter, source); err != nil {
		gzipWriter.Close()
		return err
	}

	// Close the gzip writer to ensure all data is written
	if err := gzipWriter.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}

// ReadDay returns the events journaled on the day of t, reading the
// compressed file when the plain one is gone
func (s *Storage) ReadDay(t time.Time) ([]types.FlightEvent, error) {
	name := s.FileName(t)

	var r io.Reader
	f, err := os.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		f, err = os.Open(name + ".gz")
		if err != nil {
			return nil, err
		}
		defer f.Close()
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open compressed journal: %w", err)
		}
		defer gz.Close()
		r = gz
	} else if err != nil {
		return nil, err
	} else {
		defer f.Close()
		r = f
	}

	var events []types.FlightEvent
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e types.FlightEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return events, fmt.Errorf("failed to decode line %d of %s: %w", line, name, err)
		}
		events = append(events, e)
	}
	return events, scanner.Err()
}

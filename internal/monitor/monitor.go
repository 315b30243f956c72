// Package monitor periodically snapshots calculator status to a text file
// and, when a database is available, to the performance_samples table.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/PearlCalc/extension/internal/model"
	"github.com/PearlCalc/extension/internal/worker"
)

// StatusFileName is written into Dependencies.OutputDir.
const StatusFileName = "status.txt"

// StatusSource reports the current calculator status.
type StatusSource interface {
	Status() worker.Status
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source    StatusSource
	DB        *gorm.DB // optional
	Logger    *slog.Logger
	OutputDir string
	Interval  time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      sync.WaitGroup
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sample renders the status as indented JSON lines and as a database row.
func (s *Service) Sample() (output []string, sample model.PerformanceSample) {
	st := s.deps.Source.Status()

	queues := make(map[string]int, len(st.DispatchQueues)+len(st.WriteQueues))
	maps.Copy(queues, st.DispatchQueues)
	maps.Copy(queues, st.WriteQueues)
	rawQueues, err := json.Marshal(queues)
	if err != nil {
		rawQueues = []byte("{}")
	}

	sample = model.PerformanceSample{
		Time:                time.Now(),
		Requests:            uint64(st.Requests),
		Failures:            uint64(st.Failures),
		CacheEntries:        st.CacheEntries,
		QueueLengths:        datatypes.JSON(rawQueues),
		LastWriteDurationMs: float32(st.LastWriteMs),
	}

	statusStr, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		statusStr = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(statusStr))
	return output, sample
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	var statusFile *os.File
	if s.deps.OutputDir != "" {
		f, err := os.Create(filepath.Join(s.deps.OutputDir, StatusFileName))
		if err != nil {
			return fmt.Errorf("create status file: %w", err)
		}
		statusFile = f
	}

	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done.Add(1)
	go s.run(statusFile)
	return nil
}

func (s *Service) run(statusFile *os.File) {
	defer s.done.Done()
	defer func() {
		if statusFile != nil {
			statusFile.Close()
		}
	}()

	logger := s.deps.Logger
	logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tick(statusFile)
		}
	}
}

func (s *Service) tick(statusFile *os.File) {
	lines, sample := s.Sample()

	if statusFile != nil {
		if err := rewrite(statusFile, lines); err != nil {
			s.deps.Logger.Error("Error writing status file", "error", err)
		}
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Create(&sample).Error; err != nil {
			s.deps.Logger.Error("Error writing performance sample", "error", err)
		}
	}
}

func rewrite(f *os.File, lines []string) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops the status monitor and waits for the last snapshot to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	s.mu.Unlock()
	s.done.Wait()
}

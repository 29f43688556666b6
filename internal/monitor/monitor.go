// Package monitor periodically writes the running battle's health to a
// status file and the log.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/OCAP2/navalsim/internal/logging"
)

// DefaultInterval is used when Dependencies.Interval is not set.
const DefaultInterval = time.Second

// Clock is the battle clock, safe to read from any goroutine.
type Clock interface {
	Clock() (tick uint64, gameTime time.Duration)
}

// ActionQueue reports actions waiting for the next drain.
type ActionQueue interface {
	Pending() int
}

// Recorder reports recorder throughput.
type Recorder interface {
	Buffered() int
	Recorded() uint64
	Dropped() uint64
	Failed() uint64
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	Clock      Clock
	Actions    ActionQueue
	Recorder   Recorder
	Battle     string
	// StatusPath is rewritten on every interval. Empty disables the file.
	StatusPath string
	Interval   time.Duration
}

// Status is one sample of the battle's health.
type Status struct {
	Time             time.Time `json:"time"`
	Battle           string    `json:"battle"`
	Tick             uint64    `json:"tick"`
	GameTime         float64   `json:"gameTime"`
	PendingActions   int       `json:"pendingActions"`
	RecorderBuffered int       `json:"recorderBuffered"`
	Recorded         uint64    `json:"recorded"`
	Dropped          uint64    `json:"dropped"`
	Failed           uint64    `json:"failed"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sample reads the current status. Missing sources leave their fields zero.
func (s *Service) Sample() Status {
	st := Status{Time: time.Now().UTC(), Battle: s.deps.Battle}
	if s.deps.Clock != nil {
		tick, gt := s.deps.Clock.Clock()
		st.Tick, st.GameTime = tick, gt.Seconds()
	}
	if s.deps.Actions != nil {
		st.PendingActions = s.deps.Actions.Pending()
	}
	if r := s.deps.Recorder; r != nil {
		st.RecorderBuffered = r.Buffered()
		st.Recorded = r.Recorded()
		st.Dropped = r.Dropped()
		st.Failed = r.Failed()
	}
	return st
}

// WriteStatus replaces the status file with st.
func (s *Service) WriteStatus(st Status) error {
	if s.deps.StatusPath == "" {
		return nil
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.deps.StatusPath), 0755); err != nil {
		return fmt.Errorf("create status directory: %w", err)
	}
	tmp := s.deps.StatusPath + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.deps.StatusPath)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor", "path", s.deps.StatusPath)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		var lastDropped uint64
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				st := s.Sample()
				if err := s.WriteStatus(st); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
				if st.Dropped > lastDropped {
					logger.Warn("Recorder is dropping events", "dropped", st.Dropped-lastDropped, "buffered", st.RecorderBuffered)
					lastDropped = st.Dropped
				}
				logger.Debug("Status",
					"pendingActions", st.PendingActions,
					"recorderBuffered", st.RecorderBuffered,
					"recorded", st.Recorded,
				)
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}

// Package state persists the outcome of scenario runs between invocations
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pragma/screennav/internal/scenario"
	"github.com/pragma/screennav/pkg/logger"
)

// Status of the last run of a script
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// RunState is the persisted state of one script
type RunState struct {
	Script       string           `json:"script"`
	Status       Status           `json:"status"`
	LastRun      time.Time        `json:"lastRun"`
	RunCount     int              `json:"runCount"`
	FailureCount int              `json:"failureCount"`
	ProcessID    int              `json:"processId"`
	LastError    string           `json:"lastError,omitempty"`
	Report       *scenario.Report `json:"report,omitempty"`
}

// Store handles run state files, one JSON file per script
type Store struct {
	stateDir string
	logger   logger.Logger
	mu       sync.RWMutex
	states   map[string]*RunState
}

// NewStore creates a store under <projectRoot>/.screennav/runs
func NewStore(projectRoot string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	stateDir := filepath.Join(projectRoot, ".screennav", "runs")

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		log.Error("Failed to create state directory", logger.WithError(err))
	}

	return &Store{
		stateDir: stateDir,
		logger:   log,
		states:   make(map[string]*RunState),
	}
}

// Dir returns the directory holding the state files
func (s *Store) Dir() string {
	return s.stateDir
}

// Record stores the outcome of a run, keeping the counters of earlier runs
func (s *Store) Record(script string, report *scenario.Report, runErr error) (*RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &RunState{
		Script:    script,
		Status:    StatusPassed,
		LastRun:   time.Now(),
		ProcessID: os.Getpid(),
		Report:    report,
	}

	if existing, err := s.loadStateFile(script); err == nil {
		state.RunCount = existing.RunCount
		state.FailureCount = existing.FailureCount
	}

	state.RunCount++
	if runErr != nil {
		state.Status = StatusFailed
		state.FailureCount++
		state.LastError = runErr.Error()
	}

	if err := s.saveStateFile(state); err != nil {
		return nil, fmt.Errorf("failed to save run state: %w", err)
	}

	s.states[script] = state
	return state, nil
}

// Read reads the state of a script
func (s *Store) Read(script string) (*RunState, error) {
	s.mu.RLock()
	if state, ok := s.states[script]; ok {
		s.mu.RUnlock()
		return state, nil
	}
	s.mu.RUnlock()

	return s.loadStateFile(script)
}

// Remove removes the state of a script
func (s *Store) Remove(script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, script)

	if err := os.Remove(s.stateFilePath(script)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}

// Discover finds all existing state files
func (s *Store) Discover() (map[string]*RunState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make(map[string]*RunState)

	files, err := os.ReadDir(s.stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return states, nil
		}
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}

		script := strings.TrimSuffix(file.Name(), ".json")
		state, err := s.loadStateFile(script)
		if err != nil {
			s.logger.Warn("Failed to load state file",
				logger.WithField("script", script),
				logger.WithError(err))
			continue
		}

		states[state.Script] = state
	}

	return states, nil
}

// Private methods

func (s *Store) stateFilePath(script string) string {
	return filepath.Join(s.stateDir, fileName(script)+".json")
}

// fileName keeps script names usable as file names
func fileName(script string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, script)
}

func (s *Store) loadStateFile(script string) (*RunState, error) {
	data, err := os.ReadFile(s.stateFilePath(script))
	if err != nil {
		return nil, err
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	return &state, nil
}

func (s *Store) saveStateFile(state *RunState) error {
	stateFile := s.stateFilePath(state.Script)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write atomically
	tempFile := stateFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tempFile, stateFile); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename state file: %w", err)
	}

	return nil
}

package catalog

import (
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
)

// Store is the shared, read-mostly catalog (spec.md §5 "LoadedData"): many
// concurrent readers during serve, exclusive takeover only during reload.
type Store struct {
	mu     sync.RWMutex
	data   *StoredData
	source string
	logger arbor.ILogger
}

// NewStore loads the initial catalog from source and validates it.
func NewStore(source string, logger arbor.ILogger) (*Store, Report, error) {
	data, err := LoadFromSource(source)
	if err != nil {
		return nil, Report{}, err
	}

	report := Validate(data)
	if !report.OK() {
		return nil, report, fmt.Errorf("catalog validation failed with %d error(s)", len(report.Errors))
	}

	return &Store{data: data, source: source, logger: logger}, report, nil
}

// Get returns the current catalog snapshot. Callers must not mutate it.
func (s *Store) Get() *StoredData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Reload re-fetches the catalog from its source and, if it validates,
// atomically replaces the current one. On failure, the previous catalog
// keeps serving and the error is returned for the caller to log.
func (s *Store) Reload() error {
	data, err := LoadFromSource(s.source)
	if err != nil {
		return fmt.Errorf("catalog reload failed: %w", err)
	}

	report := Validate(data)
	if !report.OK() {
		return fmt.Errorf("catalog reload failed validation with %d error(s)", len(report.Errors))
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info().Int("services", len(data.Services)).Msg("catalog reloaded")
	}
	return nil
}

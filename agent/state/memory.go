package state

import (
	"context"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

var _ contractx.RunStore = (*MemoryStore)(nil)

// MemoryStore keeps run reports for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]contractx.AgentReport
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]contractx.AgentReport)}
}

func (s *MemoryStore) Save(ctx context.Context, report contractx.AgentReport) error {
	if strings.TrimSpace(report.RunID) == "" {
		return ErrInvalidRun
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[report.RunID] = report
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, runID string) (contractx.AgentReport, error) {
	if strings.TrimSpace(runID) == "" {
		return contractx.AgentReport{}, ErrInvalidRun
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.runs[runID]
	if !ok {
		return contractx.AgentReport{}, ErrRunNotFound
	}
	return report, nil
}

package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opencrvs/dedup/internal/platform/fhir"
)

// Run records one duplicate-check orchestration pass for audit and
// troubleshooting.
type Run struct {
	ID             uuid.UUID  `json:"id"`
	Event          fhir.Event `json:"event"`
	CompositionID  string     `json:"composition_id"`
	TransactionID  string     `json:"transaction_id"`
	State          CheckState `json:"state"`
	CandidateCount int        `json:"candidate_count"`
	Detail         string     `json:"detail,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RunLog persists duplicate-check runs.
type RunLog interface {
	Record(ctx context.Context, run *Run) error
	ListByComposition(ctx context.Context, compositionID string, limit int) ([]*Run, error)
}

// MemoryRunLog is a thread-safe in-memory RunLog used in development and
// tests, and whenever no database is configured.
type MemoryRunLog struct {
	mu   sync.RWMutex
	runs []*Run
}

func NewMemoryRunLog() *MemoryRunLog {
	return &MemoryRunLog{}
}

func (l *MemoryRunLog) Record(_ context.Context, run *Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	stored := *run
	l.runs = append(l.runs, &stored)
	return nil
}

func (l *MemoryRunLog) ListByComposition(_ context.Context, compositionID string, limit int) ([]*Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []*Run
	// newest first
	for i := len(l.runs) - 1; i >= 0; i-- {
		if l.runs[i].CompositionID != compositionID {
			continue
		}
		run := *l.runs[i]
		result = append(result, &run)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

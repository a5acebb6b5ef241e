package workflow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/opencrvs/dedup/internal/platform/fhir"
)

func TestMemoryRunLog(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryRunLog()

	for i := 0; i < 3; i++ {
		run := &Run{
			ID:            uuid.New(),
			Event:         fhir.EventBirth,
			CompositionID: "comp-1",
			TransactionID: fmt.Sprintf("tx-%d", i),
			State:         StateDone,
			CreatedAt:     time.Now().UTC(),
		}
		if err := log.Record(ctx, run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := log.Record(ctx, &Run{ID: uuid.New(), CompositionID: "comp-other", State: StateSkipped}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := log.ListByComposition(ctx, "comp-1", 10)
	if err != nil {
		t.Fatalf("ListByComposition: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	// Newest first.
	if runs[0].TransactionID != "tx-2" || runs[2].TransactionID != "tx-0" {
		t.Fatalf("expected newest-first order, got %s .. %s", runs[0].TransactionID, runs[2].TransactionID)
	}

	limited, err := log.ListByComposition(ctx, "comp-1", 2)
	if err != nil {
		t.Fatalf("ListByComposition: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}

	none, err := log.ListByComposition(ctx, "comp-unknown", 10)
	if err != nil {
		t.Fatalf("ListByComposition: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no runs, got %d", len(none))
	}
}

func TestMemoryRunLogCopiesRuns(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryRunLog()

	run := &Run{ID: uuid.New(), CompositionID: "comp-1", State: StateDone}
	if err := log.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	run.State = StateFailed

	stored, err := log.ListByComposition(ctx, "comp-1", 1)
	if err != nil {
		t.Fatalf("ListByComposition: %v", err)
	}
	if stored[0].State != StateDone {
		t.Fatal("stored run must not alias the caller's value")
	}
}

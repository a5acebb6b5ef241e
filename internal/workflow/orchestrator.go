package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opencrvs/dedup/internal/dedup"
	"github.com/opencrvs/dedup/internal/platform/fhir"
	"github.com/opencrvs/dedup/internal/platform/metrics"
)

// CheckState is the state a duplicate-check pass ends in.
type CheckState string

const (
	StateReceived   CheckState = "RECEIVED"
	StateExtracting CheckState = "EXTRACTING"
	StateSearching  CheckState = "SEARCHING"
	StateAnnotating CheckState = "ANNOTATING"
	// StateSkipped: the declaration is structurally incomplete for this
	// check (e.g. a draft without the anchor section); no search ran.
	StateSkipped CheckState = "SKIPPED"
	// StateFailed: the search backend was unavailable; no duplicate
	// information this time. Never blocks the declaration update.
	StateFailed CheckState = "FAILED"
	StateDone   CheckState = "DONE"
)

// CheckInput is one declaration create/update event.
type CheckInput struct {
	Bundle        *fhir.Bundle
	Event         fhir.Event
	AuthHeader    string
	TransactionID string
	// CompositionID overrides the bundle's Composition ID; used when a
	// caller re-checks an existing record.
	CompositionID string
}

// CheckResult is the outcome of one orchestration pass.
type CheckResult struct {
	State         CheckState        `json:"state"`
	Candidates    []dedup.Candidate `json:"candidates"`
	TransactionID string            `json:"transactionId"`
	Replayed      bool              `json:"replayed,omitempty"`
	// SearchErr carries the search failure when State is FAILED.
	SearchErr error `json:"-"`
}

// Orchestrator coordinates extraction, search, and bidirectional annotation
// for each declaration update. It holds no mutable state of its own; every
// pass is independent.
type Orchestrator struct {
	searcher DuplicateSearcher
	store    RecordStore
	runs     RunLog
	cache    *ReplayCache
	locales  dedup.Locales
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewOrchestrator wires an orchestrator. runs, cache, and metrics may be nil.
func NewOrchestrator(searcher DuplicateSearcher, store RecordStore, runs RunLog, cache *ReplayCache, locales dedup.Locales, logger zerolog.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		searcher: searcher,
		store:    store,
		runs:     runs,
		cache:    cache,
		locales:  locales,
		logger:   logger,
		metrics:  m,
	}
}

// CheckRecord runs one duplicate-check pass. The returned error covers
// annotation write failures only; a search failure is reported through
// CheckResult.State and CheckResult.SearchErr so the declaration update can
// proceed regardless.
func (o *Orchestrator) CheckRecord(ctx context.Context, in CheckInput) (*CheckResult, error) {
	if !in.Event.Valid() {
		return nil, fmt.Errorf("unknown event type %q", in.Event)
	}

	result := &CheckResult{State: StateReceived, Candidates: []dedup.Candidate{}, TransactionID: in.TransactionID}
	if result.TransactionID == "" {
		result.TransactionID = uuid.NewString()
	}

	compositionID := in.CompositionID
	if compositionID == "" {
		composition, err := in.Bundle.Composition()
		if err != nil {
			o.finish(ctx, in, result, StateSkipped, err.Error())
			return result, nil
		}
		compositionID = composition.ID
	}

	if cached, ok := o.cache.Get(ctx, result.TransactionID); ok {
		result.State = StateDone
		result.Candidates = cached
		result.Replayed = true
		o.logger.Info().
			Str("transaction_id", result.TransactionID).
			Str("composition_id", compositionID).
			Msg("duplicate check replayed from cache")
		return result, nil
	}

	result.State = StateExtracting
	candidates, err := o.search(ctx, in, compositionID, result)
	if err != nil {
		var missing *dedup.MissingSectionError
		var dangling *dedup.DanglingReferenceError
		if errors.As(err, &missing) || errors.As(err, &dangling) {
			o.logger.Info().
				Str("composition_id", compositionID).
				Str("event", string(in.Event)).
				Err(err).
				Msg("duplicate check skipped, declaration incomplete")
			o.finish(ctx, in, result, StateSkipped, err.Error())
			return result, nil
		}
		// Search backend failure: degrade to "no duplicate information".
		o.logger.Warn().
			Str("composition_id", compositionID).
			Str("event", string(in.Event)).
			Err(err).
			Msg("duplicate search unavailable")
		result.SearchErr = err
		o.metrics.SearchFailure(string(in.Event))
		o.finish(ctx, in, result, StateFailed, err.Error())
		return result, nil
	}

	result.Candidates = candidates
	if len(candidates) == 0 {
		o.cache.Put(ctx, result.TransactionID, candidates)
		o.finish(ctx, in, result, StateDone, "")
		return result, nil
	}

	result.State = StateAnnotating
	annotateErr := o.annotate(ctx, in, compositionID, candidates)
	o.cache.Put(ctx, result.TransactionID, candidates)

	detail := ""
	if annotateErr != nil {
		detail = annotateErr.Error()
	}
	o.finish(ctx, in, result, StateDone, detail)
	return result, annotateErr
}

func (o *Orchestrator) search(ctx context.Context, in CheckInput, compositionID string, result *CheckResult) ([]dedup.Candidate, error) {
	switch in.Event {
	case fhir.EventBirth:
		criteria, err := dedup.BirthCriteriaFromBundle(in.Bundle, compositionID, o.locales)
		if err != nil {
			return nil, err
		}
		result.State = StateSearching
		return o.searcher.FindBirthDuplicates(ctx, in.AuthHeader, criteria, result.TransactionID)
	case fhir.EventDeath:
		criteria, err := dedup.DeathCriteriaFromBundle(in.Bundle, compositionID, o.locales)
		if err != nil {
			return nil, err
		}
		result.State = StateSearching
		return o.searcher.FindDeathDuplicates(ctx, in.AuthHeader, criteria, result.TransactionID)
	default:
		return nil, fmt.Errorf("unknown event type %q", in.Event)
	}
}

// annotate persists the duplicate relationship on the new record and fans
// out the symmetric back-flag to every candidate. The fan-out is best
// effort: a failed write on one resource does not roll back or stop the
// others, and the next update to either record re-runs the check and heals
// the gap.
func (o *Orchestrator) annotate(ctx context.Context, in CheckInput, compositionID string, candidates []dedup.Candidate) error {
	var errs []error

	ownTask, err := o.store.GetTaskByFocus(ctx, in.AuthHeader, compositionID)
	if err != nil {
		errs = append(errs, err)
	}

	ownTrackingID := ""
	if ownTask != nil {
		ownTrackingID = ownTask.TrackingID()

		if HasSameDuplicatesInExtension(ownTask, candidates) {
			o.metrics.AnnotationSkip()
			o.logger.Debug().
				Str("composition_id", compositionID).
				Msg("duplicate flag already current, skipping write")
		} else {
			updatedTask := UpdateTaskWithDuplicateIDs(*ownTask, candidates)
			if err := o.store.UpdateTask(ctx, in.AuthHeader, &updatedTask); err != nil {
				errs = append(errs, err)
			} else {
				o.metrics.AnnotationWrite()
			}

			if composition, err := o.store.GetComposition(ctx, in.AuthHeader, compositionID); err != nil {
				errs = append(errs, err)
			} else {
				updated := UpdateCompositionWithDuplicateIDs(*composition, candidates)
				if err := o.store.UpdateComposition(ctx, in.AuthHeader, &updated); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}

	for _, candidate := range candidates {
		if err := o.annotateCandidate(ctx, in.AuthHeader, candidate, compositionID, ownTrackingID); err != nil {
			o.logger.Warn().Err(err).
				Str("candidate_id", candidate.ID).
				Msg("back-annotation failed, will self-heal on next update")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (o *Orchestrator) annotateCandidate(ctx context.Context, authHeader string, candidate dedup.Candidate, compositionID, trackingID string) error {
	task, err := o.store.GetTaskByFocus(ctx, authHeader, candidate.ID)
	if err != nil {
		return err
	}

	if trackingID != "" {
		if updated, changed := AppendDuplicateToTask(*task, trackingID); changed {
			if err := o.store.UpdateTask(ctx, authHeader, &updated); err != nil {
				return err
			}
			o.metrics.AnnotationWrite()
		}
	}

	composition, err := o.store.GetComposition(ctx, authHeader, candidate.ID)
	if err != nil {
		return err
	}
	if updated, changed := AppendDuplicateToComposition(*composition, compositionID); changed {
		if err := o.store.UpdateComposition(ctx, authHeader, &updated); err != nil {
			return err
		}
	}
	return nil
}

// finish sets the terminal state, records the run, and bumps metrics.
func (o *Orchestrator) finish(ctx context.Context, in CheckInput, result *CheckResult, state CheckState, detail string) {
	result.State = state
	o.metrics.CheckCompleted(string(in.Event), string(state))

	if o.runs == nil {
		return
	}
	compositionID := in.CompositionID
	if compositionID == "" && in.Bundle != nil {
		if composition, err := in.Bundle.Composition(); err == nil {
			compositionID = composition.ID
		}
	}
	run := &Run{
		ID:             uuid.New(),
		Event:          in.Event,
		CompositionID:  compositionID,
		TransactionID:  result.TransactionID,
		State:          state,
		CandidateCount: len(result.Candidates),
		Detail:         detail,
		CreatedAt:      time.Now().UTC(),
	}
	if err := o.runs.Record(ctx, run); err != nil {
		o.logger.Warn().Err(err).Str("composition_id", compositionID).Msg("run log write failed")
	}
}

func eventFromString(s string) fhir.Event {
	switch s {
	case string(fhir.EventBirth):
		return fhir.EventBirth
	case string(fhir.EventDeath):
		return fhir.EventDeath
	default:
		return fhir.Event(s)
	}
}

package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/opencrvs/dedup/internal/dedup"
	"github.com/opencrvs/dedup/internal/platform/fhir"
	"github.com/opencrvs/dedup/internal/platform/metrics"
)

// Service answers duplicate queries and indexes incoming declarations.
type Service struct {
	backend  Backend
	settings MatchSettings
	locales  dedup.Locales
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewService creates a search service. metrics may be nil.
func NewService(backend Backend, settings MatchSettings, locales dedup.Locales, logger zerolog.Logger, m *metrics.Metrics) *Service {
	if settings.MaxCandidates <= 0 {
		settings = DefaultMatchSettings()
	}
	return &Service{backend: backend, settings: settings, locales: locales, logger: logger, metrics: m}
}

// FindBirthDuplicates runs the birth duplicate query. Criteria with no child
// signal return an empty list without touching the backend.
func (s *Service) FindBirthDuplicates(ctx context.Context, criteria *dedup.BirthCriteria) ([]dedup.Candidate, error) {
	if !criteria.Anchored() {
		s.logger.Debug().Str("composition_id", criteria.CompositionID).Msg("no child criteria, skipping duplicate search")
		return []dedup.Candidate{}, nil
	}
	query := BuildBirthQuery(criteria, s.settings)
	return s.run(ctx, fhir.EventBirth, query)
}

// FindDeathDuplicates runs the death duplicate query. Criteria with no
// deceased signal return an empty list without touching the backend.
func (s *Service) FindDeathDuplicates(ctx context.Context, criteria *dedup.DeathCriteria) ([]dedup.Candidate, error) {
	if !criteria.Anchored() {
		s.logger.Debug().Str("composition_id", criteria.CompositionID).Msg("no deceased criteria, skipping duplicate search")
		return []dedup.Candidate{}, nil
	}
	query := BuildDeathQuery(criteria, s.settings)
	return s.run(ctx, fhir.EventDeath, query)
}

func (s *Service) run(ctx context.Context, event fhir.Event, query map[string]interface{}) ([]dedup.Candidate, error) {
	hits, err := s.backend.Search(ctx, query, s.settings.MaxCandidates, s.settings.MinScore)
	if err != nil {
		s.metrics.SearchFailure(string(event))
		return nil, fmt.Errorf("duplicate search: %w", err)
	}

	candidates := make([]dedup.Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, dedup.Candidate{ID: h.ID, TrackingID: h.TrackingID})
	}

	s.metrics.CandidatesFound(string(event), len(candidates))
	return candidates, nil
}

// IndexDeclaration extracts identity fields from a declaration bundle and
// writes them to the index so that later declarations can match against it.
func (s *Service) IndexDeclaration(ctx context.Context, b *fhir.Bundle, event fhir.Event) error {
	composition, err := b.Composition()
	if err != nil {
		return err
	}

	trackingID := ""
	if task, ok := b.Task(); ok {
		trackingID = task.TrackingID()
	}

	doc := map[string]interface{}{
		"compositionId": composition.ID,
		"event":         string(event),
		"trackingId":    trackingID,
	}

	switch event {
	case fhir.EventBirth:
		criteria, err := dedup.BirthCriteriaFromBundle(b, composition.ID, s.locales)
		if err != nil {
			return err
		}
		putIfSet(doc, "childFirstNames", criteria.ChildFirstNames)
		putIfSet(doc, "childFamilyName", criteria.ChildFamilyName)
		putIfSet(doc, "childFirstNamesLocal", criteria.ChildFirstNamesLocal)
		putIfSet(doc, "childFamilyNameLocal", criteria.ChildFamilyNameLocal)
		putIfSet(doc, "childDoB", criteria.ChildDoB)
		putIfSet(doc, "motherFirstNames", criteria.MotherFirstNames)
		putIfSet(doc, "motherFamilyName", criteria.MotherFamilyName)
		putIfSet(doc, "motherFirstNamesLocal", criteria.MotherFirstNamesLocal)
		putIfSet(doc, "motherFamilyNameLocal", criteria.MotherFamilyNameLocal)
		putIfSet(doc, "motherDoB", criteria.MotherDoB)
		putIfSet(doc, "motherIdentifier", criteria.MotherIdentifier)
	case fhir.EventDeath:
		criteria, err := dedup.DeathCriteriaFromBundle(b, composition.ID, s.locales)
		if err != nil {
			return err
		}
		putIfSet(doc, "deceasedFirstNames", criteria.DeceasedFirstNames)
		putIfSet(doc, "deceasedFamilyName", criteria.DeceasedFamilyName)
		putIfSet(doc, "deceasedFirstNamesLocal", criteria.DeceasedFirstNamesLocal)
		putIfSet(doc, "deceasedFamilyNameLocal", criteria.DeceasedFamilyNameLocal)
		putIfSet(doc, "deceasedDoB", criteria.DeceasedDoB)
		putIfSet(doc, "deceasedIdentifier", criteria.DeceasedIdentifier)
		putIfSet(doc, "deathDate", criteria.DeathDate)
	default:
		return fmt.Errorf("unknown event type %q", event)
	}

	return s.backend.Index(ctx, composition.ID, doc)
}

func putIfSet(doc map[string]interface{}, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

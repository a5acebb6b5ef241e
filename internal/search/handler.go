package search

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/opencrvs/dedup/internal/dedup"
	"github.com/opencrvs/dedup/internal/platform/fhir"
	"github.com/opencrvs/dedup/internal/platform/metrics"
)

// Handler exposes the duplicate search and declaration indexing endpoints.
type Handler struct {
	svc     *Service
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewHandler(svc *Service, logger zerolog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: m}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/search/duplicates/birth", h.SearchBirthDuplicates)
	g.POST("/search/duplicates/death", h.SearchDeathDuplicates)
	g.POST("/records/:event", h.IndexRecord)
}

type birthSearchRequest struct {
	Criteria      dedup.BirthCriteria `json:"criteria"`
	TransactionID string              `json:"transactionId,omitempty"`
}

type deathSearchRequest struct {
	Criteria      dedup.DeathCriteria `json:"criteria"`
	TransactionID string              `json:"transactionId,omitempty"`
}

// SearchBirthDuplicates handles POST /search/duplicates/birth. The response
// is a JSON array of {id, trackingId} pairs in backend relevance order.
func (h *Handler) SearchBirthDuplicates(c echo.Context) error {
	var req birthSearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("invalid search request: "+err.Error()))
	}

	candidates, err := h.svc.FindBirthDuplicates(c.Request().Context(), &req.Criteria)
	if err != nil {
		h.logger.Error().Err(err).
			Str("transaction_id", req.TransactionID).
			Str("composition_id", req.Criteria.CompositionID).
			Msg("birth duplicate search failed")
		return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome("duplicate search failed"))
	}

	return c.JSON(http.StatusOK, candidates)
}

// SearchDeathDuplicates handles POST /search/duplicates/death.
func (h *Handler) SearchDeathDuplicates(c echo.Context) error {
	var req deathSearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("invalid search request: "+err.Error()))
	}

	candidates, err := h.svc.FindDeathDuplicates(c.Request().Context(), &req.Criteria)
	if err != nil {
		h.logger.Error().Err(err).
			Str("transaction_id", req.TransactionID).
			Str("composition_id", req.Criteria.CompositionID).
			Msg("death duplicate search failed")
		return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome("duplicate search failed"))
	}

	return c.JSON(http.StatusOK, candidates)
}

// IndexRecord handles POST /records/:event with a declaration bundle body.
// It extracts identity fields and writes them to the search index.
func (h *Handler) IndexRecord(c echo.Context) error {
	event, ok := eventFromParam(c.Param("event"))
	if !ok {
		return c.JSON(http.StatusNotFound, fhir.InvalidOutcome("unknown event type"))
	}

	var bundle fhir.Bundle
	if err := json.NewDecoder(c.Request().Body).Decode(&bundle); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("invalid bundle: "+err.Error()))
	}

	if err := h.svc.IndexDeclaration(c.Request().Context(), &bundle, event); err != nil {
		var missing *dedup.MissingSectionError
		var dangling *dedup.DanglingReferenceError
		if errors.As(err, &missing) || errors.As(err, &dangling) {
			return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome(err.Error()))
		}
		h.logger.Error().Err(err).Str("event", string(event)).Msg("indexing failed")
		return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome("indexing failed"))
	}

	h.metrics.Indexed(string(event))
	return c.JSON(http.StatusOK, fhir.SuccessOutcome("declaration indexed"))
}

func eventFromParam(p string) (fhir.Event, bool) {
	switch p {
	case "birth":
		return fhir.EventBirth, true
	case "death":
		return fhir.EventDeath, true
	default:
		return "", false
	}
}

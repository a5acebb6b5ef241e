package workflow

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/opencrvs/dedup/internal/platform/fhir"
)

// Handler exposes the duplicate-check entry point invoked by the declaration
// create/update request path, plus a run-history read for troubleshooting.
type Handler struct {
	orchestrator *Orchestrator
	runs         RunLog
	logger       zerolog.Logger
}

func NewHandler(orchestrator *Orchestrator, runs RunLog, logger zerolog.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, runs: runs, logger: logger}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/records/:event/duplicate-check", h.CheckRecord)
	g.GET("/records/:id/duplicate-checks", h.ListChecks)
}

type checkRequest struct {
	Record        fhir.Bundle `json:"record"`
	TransactionID string      `json:"transactionId,omitempty"`
	CompositionID string      `json:"compositionId,omitempty"`
}

type checkResponse struct {
	State         CheckState  `json:"state"`
	Candidates    interface{} `json:"candidates"`
	TransactionID string      `json:"transactionId"`
	Warning       string      `json:"warning,omitempty"`
}

// CheckRecord handles POST /records/:event/duplicate-check. It always
// answers 200 for a well-formed request: a search outage or a partial
// annotation failure is reported as a warning, never as a failure of the
// declaration update that triggered the check.
func (h *Handler) CheckRecord(c echo.Context) error {
	event, ok := eventFromParam(c.Param("event"))
	if !ok {
		return c.JSON(http.StatusNotFound, fhir.InvalidOutcome("unknown event type"))
	}

	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("invalid check request: "+err.Error()))
	}
	if len(req.Record.Entry) == 0 {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("record bundle is empty"))
	}

	result, err := h.orchestrator.CheckRecord(c.Request().Context(), CheckInput{
		Bundle:        &req.Record,
		Event:         event,
		AuthHeader:    c.Request().Header.Get("Authorization"),
		TransactionID: req.TransactionID,
		CompositionID: req.CompositionID,
	})
	if err != nil && result == nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome(err.Error()))
	}

	resp := checkResponse{
		State:         result.State,
		Candidates:    result.Candidates,
		TransactionID: result.TransactionID,
	}
	if result.SearchErr != nil {
		resp.Warning = "duplicate search unavailable, no duplicate information this time"
	}
	if err != nil {
		h.logger.Warn().Err(err).Msg("duplicate annotation partially failed")
		resp.Warning = "duplicate annotation partially failed, will self-heal on next update"
	}
	return c.JSON(http.StatusOK, resp)
}

// ListChecks handles GET /records/:id/duplicate-checks, returning the most
// recent duplicate-check runs for a composition.
func (h *Handler) ListChecks(c echo.Context) error {
	if h.runs == nil {
		return c.JSON(http.StatusNotFound, fhir.ErrorOutcome("run history not configured"))
	}

	runs, err := h.runs.ListByComposition(c.Request().Context(), c.Param("id"), 20)
	if err != nil {
		h.logger.Error().Err(err).Msg("run history query failed")
		return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome("run history query failed"))
	}
	if runs == nil {
		runs = []*Run{}
	}
	return c.JSON(http.StatusOK, runs)
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

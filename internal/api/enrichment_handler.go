package api

import (
	"net/http"

	"github.com/phrazzld/memo-tagger/internal/api/shared"
	"github.com/phrazzld/memo-tagger/internal/service"
)

// EnrichmentHandler exposes bulk tag enrichment.
type EnrichmentHandler struct {
	enrichment service.EnrichmentService
}

// NewEnrichmentHandler creates an EnrichmentHandler.
func NewEnrichmentHandler(enrichment service.EnrichmentService) *EnrichmentHandler {
	return &EnrichmentHandler{enrichment: enrichment}
}

func (req EnrichmentBatchRequest) toService() service.BatchRequest {
	return service.BatchRequest{
		BatchSize:   req.BatchSize,
		Concurrency: req.Concurrency,
		From:        req.From,
		To:          req.To,
	}
}

// RunBatch handles POST /api/enrichment/batch. It runs one batch to
// completion and returns its counts.
func (h *EnrichmentHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req EnrichmentBatchRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	result, err := h.enrichment.RunBatch(r.Context(), req.toService())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// StartRun handles POST /api/enrichment/runs.
func (h *EnrichmentHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req EnrichmentRunRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	status, err := h.enrichment.StartRun(r.Context(), service.RunRequest{
		BatchRequest:   req.toService(),
		StallThreshold: req.StallThreshold,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.Header().Set("Location", "/api/enrichment/runs/"+status.ID.String())
	shared.RespondWithJSON(w, r, http.StatusAccepted, RunStartedResponse{
		RunID: status.ID,
		State: string(status.Progress.State),
	})
}

// GetRun handles GET /api/enrichment/runs/{id}.
func (h *EnrichmentHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid run ID")
		return
	}

	status, err := h.enrichment.GetRun(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, runStatusToResponse(status))
}

// CancelRun handles DELETE /api/enrichment/runs/{id}. The run stops at its
// next batch boundary.
func (h *EnrichmentHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid run ID")
		return
	}

	status, err := h.enrichment.CancelRun(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, runStatusToResponse(status))
}

// Remaining handles GET /api/enrichment/remaining?from=&to=.
func (h *EnrichmentHandler) Remaining(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	remaining, err := h.enrichment.Remaining(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, RemainingResponse{Remaining: remaining})
}

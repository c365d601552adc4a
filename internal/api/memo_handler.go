package api

import (
	"net/http"
	"strings"

	"github.com/phrazzld/memo-tagger/internal/api/shared"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/service"
)

// MemoHandler handles memo and tag requests.
type MemoHandler struct {
	memoService service.MemoService
}

// NewMemoHandler creates a new MemoHandler
func NewMemoHandler(memoService service.MemoService) *MemoHandler {
	return &MemoHandler{memoService: memoService}
}

// CreateMemo handles POST /api/memos. The memo is tagged in the
// background, so the response is 202 with no tags yet.
func (h *MemoHandler) CreateMemo(w http.ResponseWriter, r *http.Request) {
	var req CreateMemoRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	memo, err := h.memoService.CreateMemo(r.Context(), req.Text)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, memoToResponse(*memo, nil))
}

// ImportMemos handles POST /api/memos/import.
func (h *MemoHandler) ImportMemos(w http.ResponseWriter, r *http.Request) {
	var req ImportMemosRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleValidationError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	memos, err := h.memoService.ImportMemos(r.Context(), req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := ImportResponse{Imported: len(memos)}
	for _, memo := range memos {
		resp.IDs = append(resp.IDs, memo.ID)
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// ListMemos handles GET /api/memos?before=&limit=.
func (h *MemoHandler) ListMemos(w http.ResponseWriter, r *http.Request) {
	before, err := queryTime(r, "before")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid before cursor")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid limit")
		return
	}

	memos, err := h.memoService.ListMemos(r.Context(), before, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list memos")
		return
	}

	resp := MemoListResponse{Memos: memosToResponses(memos)}
	if len(memos) > 0 {
		oldest := memos[0].CreatedAt
		resp.NextBefore = &oldest
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// SearchMemos handles GET /api/memos/search?q=&limit=.
func (h *MemoHandler) SearchMemos(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("q"))
	if keyword == "" {
		HandleAPIError(w, r, domain.NewValidationError("q", "is required", domain.ErrValidation),
			"Search keyword is required")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid limit")
		return
	}

	memos, err := h.memoService.SearchMemos(r.Context(), keyword, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to search memos")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MemoListResponse{Memos: memosToResponses(memos)})
}

// DeleteMemo handles DELETE /api/memos/{id}.
func (h *MemoHandler) DeleteMemo(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid memo ID")
		return
	}

	if err := h.memoService.DeleteMemo(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RetagMemo handles POST /api/memos/{id}/tags and returns the memo's tags
// after classifying it again.
func (h *MemoHandler) RetagMemo(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "Invalid memo ID")
		return
	}

	tags, err := h.memoService.RetagMemo(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tagsToResponses(tags))
}

// ListTags handles GET /api/tags.
func (h *MemoHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.memoService.ListTags(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tags")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tagsToResponses(tags))
}

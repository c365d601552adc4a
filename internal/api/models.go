package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/service"
)

// CreateMemoRequest is the body of POST /api/memos.
type CreateMemoRequest struct {
	Text string `json:"text" validate:"required,max=20000"`
}

// ImportMemosRequest is the body of POST /api/memos/import. Content is an
// exported log of "[YYYY-MM-DD hh:mm:ss.fff]" headed entries.
type ImportMemosRequest struct {
	Content string `json:"content" validate:"required"`
}

// MemoResponse is a memo with its tag names.
type MemoResponse struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Tags      []string  `json:"tags"`
}

// MemoListResponse is a page of memos, oldest first. NextBefore is the
// cursor for the preceding page, absent when the page is empty.
type MemoListResponse struct {
	Memos      []MemoResponse `json:"memos"`
	NextBefore *time.Time     `json:"next_before,omitempty"`
}

// ImportResponse reports how many memos an import stored.
type ImportResponse struct {
	Imported int         `json:"imported"`
	IDs      []uuid.UUID `json:"ids"`
}

// TagResponse is a single tag.
type TagResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// EnrichmentBatchRequest is the body of POST /api/enrichment/batch. Zero
// sizes use the server defaults.
type EnrichmentBatchRequest struct {
	BatchSize   int    `json:"batch_size"  validate:"gte=0,max=1000"`
	Concurrency int    `json:"concurrency" validate:"gte=0,max=64"`
	From        string `json:"from"        validate:"omitempty,datetime=2006-01-02"`
	To          string `json:"to"          validate:"omitempty,datetime=2006-01-02"`
}

// EnrichmentRunRequest is the body of POST /api/enrichment/runs.
type EnrichmentRunRequest struct {
	EnrichmentBatchRequest
	StallThreshold int `json:"stall_threshold" validate:"gte=0,max=100"`
}

// RunStartedResponse is returned when a run is accepted.
type RunStartedResponse struct {
	RunID uuid.UUID `json:"run_id"`
	State string    `json:"state"`
}

// RunStatusResponse describes an enrichment run.
type RunStatusResponse struct {
	RunID           uuid.UUID  `json:"run_id"`
	State           string     `json:"state"`
	TotalProcessed  int        `json:"total_processed"`
	TotalFailed     int        `json:"total_failed"`
	LastRemaining   int        `json:"last_remaining"`
	Batches         int        `json:"batches"`
	ElapsedMS       int64      `json:"elapsed_ms"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	CancelRequested bool       `json:"cancel_requested"`
	Error           string     `json:"error,omitempty"`
}

// RemainingResponse is the size of the untagged set.
type RemainingResponse struct {
	Remaining int `json:"remaining"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func memoToResponse(memo domain.Memo, tags []domain.Tag) MemoResponse {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return MemoResponse{
		ID:        memo.ID,
		Text:      memo.Text,
		CreatedAt: memo.CreatedAt,
		Tags:      names,
	}
}

func memosToResponses(memos []domain.MemoWithTags) []MemoResponse {
	out := make([]MemoResponse, 0, len(memos))
	for _, m := range memos {
		out = append(out, memoToResponse(m.Memo, m.Tags))
	}
	return out
}

func tagsToResponses(tags []domain.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagResponse{ID: tag.ID, Name: tag.Name})
	}
	return out
}

func runStatusToResponse(status service.RunStatus) RunStatusResponse {
	return RunStatusResponse{
		RunID:           status.ID,
		State:           string(status.Progress.State),
		TotalProcessed:  status.Progress.TotalProcessed,
		TotalFailed:     status.Progress.TotalFailed,
		LastRemaining:   status.Progress.LastRemaining,
		Batches:         status.Progress.Batches,
		ElapsedMS:       status.Progress.Elapsed.Milliseconds(),
		StartedAt:       status.StartedAt,
		FinishedAt:      status.FinishedAt,
		CancelRequested: status.CancelRequested,
		Error:           status.Error,
	}
}

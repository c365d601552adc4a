package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/memo-tagger/internal/api/shared"
	"github.com/phrazzld/memo-tagger/internal/mocks"
	"github.com/stretchr/testify/require"
)

// newTestRouter mounts the handlers the same way the server does, minus
// authentication.
func newTestRouter(memos *mocks.MockMemoService, enrichment *mocks.MockEnrichmentService) http.Handler {
	r := chi.NewRouter()
	if memos != nil {
		h := NewMemoHandler(memos)
		r.Post("/api/memos", h.CreateMemo)
		r.Get("/api/memos", h.ListMemos)
		r.Post("/api/memos/import", h.ImportMemos)
		r.Get("/api/memos/search", h.SearchMemos)
		r.Delete("/api/memos/{id}", h.DeleteMemo)
		r.Post("/api/memos/{id}/tags", h.RetagMemo)
		r.Get("/api/tags", h.ListTags)
	}
	if enrichment != nil {
		h := NewEnrichmentHandler(enrichment)
		r.Post("/api/enrichment/batch", h.RunBatch)
		r.Post("/api/enrichment/runs", h.StartRun)
		r.Get("/api/enrichment/runs/{id}", h.GetRun)
		r.Delete("/api/enrichment/runs/{id}", h.CancelRun)
		r.Get("/api/enrichment/remaining", h.Remaining)
	}
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[shared.ErrorResponse](t, rec).Error
}

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/memo-tagger/internal/api/shared"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/phrazzld/memo-tagger/internal/service"
	"github.com/phrazzld/memo-tagger/internal/service/auth"
	"github.com/phrazzld/memo-tagger/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized, "Token expired"},
		{"invalid token", fmt.Errorf("parse: %w", auth.ErrInvalidToken), http.StatusUnauthorized, "Invalid token"},
		{"memo not found", service.ErrMemoNotFound, http.StatusNotFound, "Memo not found"},
		{"store memo not found", fmt.Errorf("get: %w", store.ErrMemoNotFound), http.StatusNotFound, "Memo not found"},
		{"run not found", service.ErrRunNotFound, http.StatusNotFound, "Enrichment run not found"},
		{"invalid options", fmt.Errorf("%w: batch size", enrichment.ErrInvalidOptions), http.StatusBadRequest, "Invalid enrichment options"},
		{"invalid memo", fmt.Errorf("%w: empty", service.ErrInvalidMemo), http.StatusBadRequest, "Invalid memo"},
		{"bad import", fmt.Errorf("%w: no entries", domain.ErrInvalidFormat), http.StatusBadRequest, "Invalid format"},
		{"bad id", domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID), http.StatusBadRequest, "Invalid ID"},
		{"store read", fmt.Errorf("%w: connection reset", enrichment.ErrStoreRead), http.StatusServiceUnavailable,
			"Untagged memos could not be read; try again later"},
		{"tagging failed", service.ErrTaggingFailed, http.StatusInternalServerError, "Memo could not be tagged"},
		{"unknown", errors.New("pq: relation \"memos\" does not exist"), http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.status, MapErrorToStatusCode(tc.err))
			assert.Equal(t, tc.message, GetSafeErrorMessage(tc.err))
		})
	}

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	v := validator.New()
	err := v.Struct(EnrichmentBatchRequest{BatchSize: 5000})

	assert.Equal(t, "Invalid batch_size: too large", SanitizeValidationError(err))
	assert.Equal(t, "Invalid from: expected YYYY-MM-DD",
		SanitizeValidationError(v.Struct(EnrichmentBatchRequest{From: "01/02/2024"})))
	assert.Equal(t, "Request body is required", SanitizeValidationError(shared.ErrEmptyBody))
	assert.Equal(t, "Invalid request format", SanitizeValidationError(fmt.Errorf("decode request: %w", errors.New("eof"))))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}

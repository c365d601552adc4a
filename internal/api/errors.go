package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/memo-tagger/internal/api/shared"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/phrazzld/memo-tagger/internal/service"
	"github.com/phrazzld/memo-tagger/internal/service/auth"
	"github.com/phrazzld/memo-tagger/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrMemoNotFound),
		errors.Is(err, service.ErrRunNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, enrichment.ErrInvalidOptions),
		errors.Is(err, service.ErrInvalidMemo),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, enrichment.ErrStoreRead):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// includes the wrapped detail.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, service.ErrMemoNotFound),
		errors.Is(err, store.ErrMemoNotFound):
		return "Memo not found"
	case errors.Is(err, service.ErrRunNotFound):
		return "Enrichment run not found"

	case errors.Is(err, enrichment.ErrInvalidOptions):
		return "Invalid enrichment options"
	case errors.Is(err, domain.ErrInvalidFormat):
		return "Invalid format"
	case errors.Is(err, service.ErrInvalidMemo),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid memo"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, enrichment.ErrStoreRead):
		return "Untagged memos could not be read; try again later"
	case errors.Is(err, service.ErrTaggingFailed):
		return "Memo could not be tagged"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and safe message for err. A
// non-empty message overrides the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// HandleValidationError writes a 400 with a sanitized validation message.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}

// SanitizeValidationError reduces validator output to the first failing
// field and a readable reason.
func SanitizeValidationError(err error) string {
	if errors.Is(err, shared.ErrEmptyBody) {
		return "Request body is required"
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", toSnake(fe.Field()), validationTagMessage(fe.Tag()))
	}

	if strings.HasPrefix(err.Error(), "decode request") {
		return "Invalid request format"
	}
	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "datetime":
		return "expected YYYY-MM-DD"
	default:
		return "validation failed"
	}
}

// toSnake turns a Go field name into its JSON spelling.
func toSnake(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

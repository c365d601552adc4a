package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Reserved tag names written by the enrichment pipeline when a memo could not
// be given a real label. They mark the memo as handled so it is not picked up
// again.
const (
	SentinelUnclassified        = "unclassified"
	SentinelClassificationError = "classification-error"
)

// MaxTagNameLength is the maximum length of a tag name, in runes.
const MaxTagNameLength = 40

// Tag validation errors
var (
	ErrEmptyTagName   = errors.New("tag name cannot be empty")
	ErrTagNameTooLong = errors.New("tag name is too long")
)

// Tag is a short classification label. Names are unique across the store.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TagAssociation records that a tag applies to a memo. The pair is the
// natural key; storing it twice is a no-op.
type TagAssociation struct {
	MemoID uuid.UUID `json:"memo_id"`
	TagID  uuid.UUID `json:"tag_id"`
}

// ValidateTagName checks that name can be stored as a tag.
func ValidateTagName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyTagName
	}
	if utf8.RuneCountInString(trimmed) > MaxTagNameLength {
		return ErrTagNameTooLong
	}
	return nil
}

// IsSentinelTag reports whether name is one of the reserved pipeline markers.
func IsSentinelTag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SentinelUnclassified, SentinelClassificationError:
		return true
	default:
		return false
	}
}

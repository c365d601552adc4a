package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Memo
var (
	ErrEmptyMemoID        = errors.New("memo ID cannot be empty")
	ErrEmptyMemoText      = errors.New("memo text cannot be empty")
	ErrEmptyMemoCreatedAt = errors.New("memo creation time cannot be empty")
)

// Memo is a free-text note posted by a user. Memos are immutable once
// created; the only thing that changes over time is the set of tags
// associated with them.
type Memo struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMemo creates a new Memo with the given text, stamped with the current time.
// Returns an error if validation fails.
func NewMemo(text string) (*Memo, error) {
	return NewMemoAt(text, time.Now().UTC())
}

// NewMemoAt creates a new Memo with an explicit creation time. It is used
// when importing notes written elsewhere.
func NewMemoAt(text string, createdAt time.Time) (*Memo, error) {
	memo := &Memo{
		ID:        uuid.New(),
		Text:      strings.TrimSpace(text),
		CreatedAt: createdAt.UTC(),
	}

	if err := memo.Validate(); err != nil {
		return nil, err
	}

	return memo, nil
}

// Validate checks if the Memo has valid data.
func (m *Memo) Validate() error {
	if m.ID == uuid.Nil {
		return ErrEmptyMemoID
	}

	if strings.TrimSpace(m.Text) == "" {
		return ErrEmptyMemoText
	}

	if m.CreatedAt.IsZero() {
		return ErrEmptyMemoCreatedAt
	}

	return nil
}

// MemoWithTags is a memo together with the tags currently attached to it.
type MemoWithTags struct {
	Memo
	Tags []Tag `json:"tags"`
}

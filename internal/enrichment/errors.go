package enrichment

import "errors"

var (
	// ErrStoreRead is returned when the untagged set cannot be read. It is
	// fatal for the batch and stops a run.
	ErrStoreRead = errors.New("failed to read untagged memos")

	// ErrInvalidOptions is returned when batch or run options are out of range.
	ErrInvalidOptions = errors.New("invalid enrichment options")
)

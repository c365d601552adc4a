package gemini

import (
	"errors"

	"github.com/phrazzld/memo-tagger/internal/classification"
)

// isPermanent reports whether retrying err cannot help.
func isPermanent(err error) bool {
	return errors.Is(err, classification.ErrContentBlocked) ||
		errors.Is(err, classification.ErrInvalidResponse) ||
		errors.Is(err, classification.ErrEmptyText)
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
)

// MemoCursor identifies a position in (created_at, id) order.
type MemoCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorOf returns the cursor pointing at memo.
func CursorOf(memo domain.Memo) MemoCursor {
	return MemoCursor{CreatedAt: memo.CreatedAt, ID: memo.ID}
}

// MemoStore defines the interface for memo data persistence.
type MemoStore interface {
	// Create saves a new memo to the store.
	// Returns validation errors from the domain Memo if data is invalid.
	Create(ctx context.Context, memo *domain.Memo) error

	// CreateMany saves several memos. Implementations should be atomic when
	// used through WithTx.
	CreateMany(ctx context.Context, memos []*domain.Memo) error

	// GetByID retrieves a memo by its unique ID.
	// Returns ErrMemoNotFound if the memo does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Memo, error)

	// Delete removes a memo and, through the schema, its tag associations.
	// Returns ErrMemoNotFound if the memo does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListRecent returns up to limit memos created strictly before the given
	// time (or the newest ones when before is nil), newest first.
	ListRecent(ctx context.Context, before *time.Time, limit int) ([]domain.Memo, error)

	// Search returns up to limit memos whose text, or the name of one of
	// whose tags, contains keyword case-insensitively. Newest first.
	Search(ctx context.Context, keyword string, limit int) ([]domain.Memo, error)

	// ScanMemos pages through memos inside window in ascending
	// (created_at, id) order, starting strictly after the cursor.
	ScanMemos(ctx context.Context, window *domain.Window, after *MemoCursor, limit int) ([]domain.Memo, error)

	// WithTx returns a new MemoStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) MemoStore
}

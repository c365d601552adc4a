package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
)

// TagStore defines persistence for tags and memo/tag associations, plus the
// queries the enrichment pipeline uses to find memos without tags.
//
// Every method must reflect committed state at the time of the call and be
// safe for concurrent use.
type TagStore interface {
	// ListUntagged returns memos with zero tag associations inside window,
	// oldest created first with ties broken by id. limit <= 0 means no limit.
	ListUntagged(ctx context.Context, window *domain.Window, limit int) ([]domain.Memo, error)

	// CountUntagged returns the size of the set ListUntagged would return
	// without a limit.
	CountUntagged(ctx context.Context, window *domain.Window) (int, error)

	// UpsertTag returns the tag with the given name, creating it on first use.
	UpsertTag(ctx context.Context, name string) (*domain.Tag, error)

	// UpsertAssociation links a memo and a tag. Linking the same pair twice
	// is a no-op and never an error.
	UpsertAssociation(ctx context.Context, memoID, tagID uuid.UUID) error

	// RemoveAssociations unlinks the memo from the named tags. Names the memo
	// is not linked to, or that do not exist, are ignored.
	RemoveAssociations(ctx context.Context, memoID uuid.UUID, names []string) error

	// TaggedAmong reports which of the given memo ids have at least one
	// association. Callers keep len(ids) bounded.
	TaggedAmong(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)

	// ListTags returns every tag ordered by name.
	ListTags(ctx context.Context) ([]domain.Tag, error)

	// TagsForMemos returns the tags attached to each of the given memos.
	TagsForMemos(ctx context.Context, memoIDs []uuid.UUID) (map[uuid.UUID][]domain.Tag, error)
}

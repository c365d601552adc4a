package enrichment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/store"
)

// DefaultChunkSize bounds the number of ids per membership query issued by
// ChunkedLocator.
const DefaultChunkSize = 500

// Locator computes the set of memos without tag associations, as of the
// moment of the call.
type Locator interface {
	// Locate returns up to limit untagged memos inside window, oldest first
	// with ties broken by id. limit <= 0 means no limit. An empty result is
	// not an error.
	Locate(ctx context.Context, window *domain.Window, limit int) ([]domain.Memo, error)

	// RemainingCount returns the size of the set Locate would return
	// without a limit.
	RemainingCount(ctx context.Context, window *domain.Window) (int, error)
}

// UntaggedLister is the part of store.TagStore that can compute the
// untagged set itself.
type UntaggedLister interface {
	ListUntagged(ctx context.Context, window *domain.Window, limit int) ([]domain.Memo, error)
	CountUntagged(ctx context.Context, window *domain.Window) (int, error)
}

// StoreLocator pushes the set difference down to the store.
type StoreLocator struct {
	store UntaggedLister
}

// NewStoreLocator returns a Locator backed by the store's own untagged query.
func NewStoreLocator(s UntaggedLister) *StoreLocator {
	return &StoreLocator{store: s}
}

// Locate implements Locator.
func (l *StoreLocator) Locate(ctx context.Context, window *domain.Window, limit int) ([]domain.Memo, error) {
	memos, err := l.store.ListUntagged(ctx, window, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	return memos, nil
}

// RemainingCount implements Locator.
func (l *StoreLocator) RemainingCount(ctx context.Context, window *domain.Window) (int, error) {
	n, err := l.store.CountUntagged(ctx, window)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	return n, nil
}

// MemoScanner pages through memos in (created_at, id) order.
type MemoScanner interface {
	ScanMemos(ctx context.Context, window *domain.Window, after *store.MemoCursor, limit int) ([]domain.Memo, error)
}

// AssociationChecker reports which memos among a bounded set have tags.
type AssociationChecker interface {
	TaggedAmong(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

// ChunkedLocator filters candidates on the client side for stores that
// cannot run the set difference efficiently. Memos are scanned a page at a
// time and each page is checked with one membership query, so no query ever
// carries more than ChunkSize ids.
type ChunkedLocator struct {
	memos     MemoScanner
	tags      AssociationChecker
	chunkSize int
}

// NewChunkedLocator returns a ChunkedLocator. A chunkSize <= 0 uses
// DefaultChunkSize.
func NewChunkedLocator(memos MemoScanner, tags AssociationChecker, chunkSize int) *ChunkedLocator {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkedLocator{memos: memos, tags: tags, chunkSize: chunkSize}
}

// Locate implements Locator.
func (l *ChunkedLocator) Locate(ctx context.Context, window *domain.Window, limit int) ([]domain.Memo, error) {
	var out []domain.Memo
	err := l.scan(ctx, window, func(memo domain.Memo) bool {
		out = append(out, memo)
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemainingCount implements Locator.
func (l *ChunkedLocator) RemainingCount(ctx context.Context, window *domain.Window) (int, error) {
	n := 0
	err := l.scan(ctx, window, func(domain.Memo) bool {
		n++
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// scan calls visit for every untagged memo in order until visit returns
// false or the memos run out.
func (l *ChunkedLocator) scan(ctx context.Context, window *domain.Window, visit func(domain.Memo) bool) error {
	var cursor *store.MemoCursor
	for {
		page, err := l.memos.ScanMemos(ctx, window, cursor, l.chunkSize)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreRead, err)
		}
		if len(page) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(page))
		for i, memo := range page {
			ids[i] = memo.ID
		}
		tagged, err := l.tags.TaggedAmong(ctx, ids)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreRead, err)
		}

		for _, memo := range page {
			if tagged[memo.ID] {
				continue
			}
			if !visit(memo) {
				return nil
			}
		}

		if len(page) < l.chunkSize {
			return nil
		}
		next := store.CursorOf(page[len(page)-1])
		cursor = &next
	}
}

package enrichment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingChecker wraps an AssociationChecker and records query sizes.
type recordingChecker struct {
	inner AssociationChecker

	mu    sync.Mutex
	sizes []int
}

func (c *recordingChecker) TaggedAmong(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	c.mu.Lock()
	c.sizes = append(c.sizes, len(ids))
	c.mu.Unlock()
	return c.inner.TaggedAmong(ctx, ids)
}

func tagMemo(t *testing.T, s *testutils.MemStore, memoID uuid.UUID, name string) {
	t.Helper()
	tag, err := s.UpsertTag(context.Background(), name)
	require.NoError(t, err)
	require.NoError(t, s.UpsertAssociation(context.Background(), memoID, tag.ID))
}

func memoIDs(memos []domain.Memo) []uuid.UUID {
	ids := make([]uuid.UUID, len(memos))
	for i, m := range memos {
		ids[i] = m.ID
	}
	return ids
}

func locators(s *testutils.MemStore, chunkSize int) map[string]Locator {
	return map[string]Locator{
		"store":   NewStoreLocator(s),
		"chunked": NewChunkedLocator(s, s, chunkSize),
	}
}

func TestLocatorsExcludeTaggedMemos(t *testing.T) {
	t.Parallel()

	s := testutils.NewMemStore()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	memos := testutils.SeedMemos(t, s, base, 10)
	for _, i := range []int{0, 3, 4, 9} {
		tagMemo(t, s, memos[i].ID, "go")
	}
	want := []uuid.UUID{memos[1].ID, memos[2].ID, memos[5].ID, memos[6].ID, memos[7].ID, memos[8].ID}

	for name, loc := range locators(s, 3) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			got, err := loc.Locate(ctx, nil, 0)
			require.NoError(t, err)
			assert.Equal(t, want, memoIDs(got), "untagged memos oldest first")

			limited, err := loc.Locate(ctx, nil, 4)
			require.NoError(t, err)
			assert.Equal(t, want[:4], memoIDs(limited))

			count, err := loc.RemainingCount(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, len(want), count, "count agrees with locate")
		})
	}
}

func TestLocatorsEmptyStore(t *testing.T) {
	t.Parallel()

	s := testutils.NewMemStore()
	for name, loc := range locators(s, 0) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := loc.Locate(context.Background(), nil, 10)
			require.NoError(t, err)
			assert.Empty(t, got)

			count, err := loc.RemainingCount(context.Background(), nil)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestLocatorsWindowFiltering(t *testing.T) {
	t.Parallel()

	s := testutils.NewMemStore()
	var ids []uuid.UUID
	for _, day := range []string{"2024-01-01", "2024-01-15", "2024-02-01"} {
		memo := testutils.MustCreateMemoForTest(t,
			testutils.WithMemoText("memo on "+day),
			testutils.WithMemoCreatedAt(testutils.MustParseDay(t, day).Add(23*time.Hour)),
		)
		require.NoError(t, s.Create(context.Background(), memo))
		ids = append(ids, memo.ID)
	}

	window, err := domain.ParseWindow("2024-01-01", "2024-01-31", nil)
	require.NoError(t, err)

	for name, loc := range locators(s, 2) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := loc.Locate(context.Background(), window, 0)
			require.NoError(t, err)
			assert.Equal(t, ids[:2], memoIDs(got))

			count, err := loc.RemainingCount(context.Background(), window)
			require.NoError(t, err)
			assert.Equal(t, 2, count)
		})
	}
}

func TestLocatorsNeverReselectTaggedMemo(t *testing.T) {
	t.Parallel()

	s := testutils.NewMemStore()
	memos := testutils.SeedMemos(t, s, testutils.MustParseDay(t, "2024-05-10"), 3)
	tagMemo(t, s, memos[1].ID, domain.SentinelUnclassified)

	windows := []*domain.Window{nil}
	for _, bounds := range [][2]string{{"2024-05-10", "2024-05-10"}, {"2024-05-01", ""}, {"", "2024-06-01"}} {
		w, err := domain.ParseWindow(bounds[0], bounds[1], nil)
		require.NoError(t, err)
		windows = append(windows, w)
	}

	for name, loc := range locators(s, 1) {
		for _, w := range windows {
			got, err := loc.Locate(context.Background(), w, 0)
			require.NoError(t, err, name)
			assert.NotContains(t, memoIDs(got), memos[1].ID, "%s locator, window %s", name, w)
		}
	}
}

func TestChunkedLocatorBoundsMembershipQueries(t *testing.T) {
	t.Parallel()

	s := testutils.NewMemStore()
	memos := testutils.SeedMemos(t, s, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 23)
	for i := 0; i < len(memos); i += 2 {
		tagMemo(t, s, memos[i].ID, "even")
	}

	checker := &recordingChecker{inner: s}
	loc := NewChunkedLocator(s, checker, 5)

	count, err := loc.RemainingCount(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 11, count)

	require.Len(t, checker.sizes, 5, "one membership query per page")
	for _, size := range checker.sizes {
		assert.LessOrEqual(t, size, 5)
	}
}

func TestChunkedLocatorStopsAtLimit(t *testing.T) {
	t.Parallel()

	s := testutils.NewMemStore()
	memos := testutils.SeedMemos(t, s, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 30)

	checker := &recordingChecker{inner: s}
	loc := NewChunkedLocator(s, checker, 4)

	got, err := loc.Locate(context.Background(), nil, 6)
	require.NoError(t, err)
	assert.Equal(t, memoIDs([]domain.Memo{*memos[0], *memos[1], *memos[2], *memos[3], *memos[4], *memos[5]}), memoIDs(got))
	assert.Len(t, checker.sizes, 2, "scan stops once the limit is reached")
}

func TestLocatorsWrapReadErrors(t *testing.T) {
	t.Parallel()

	s := testutils.NewMemStore()
	s.ReadErr = errors.New("connection reset")

	for name, loc := range locators(s, 0) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := loc.Locate(context.Background(), nil, 5)
			assert.ErrorIs(t, err, ErrStoreRead)

			_, err = loc.RemainingCount(context.Background(), nil)
			assert.ErrorIs(t, err, ErrStoreRead)
		})
	}
}

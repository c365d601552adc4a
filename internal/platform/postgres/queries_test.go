package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntaggedListQuery(t *testing.T) {
	t.Parallel()

	window, err := domain.ParseWindow("2024-01-01", "2024-01-31", nil)
	require.NoError(t, err)

	tests := []struct {
		name       string
		window     *domain.Window
		limit      int
		contains   []string
		absent     []string
		argsLength int
	}{
		{
			name:     "no window no limit",
			contains: []string{"FROM memos m", untaggedPredicate, "ORDER BY m.created_at ASC, m.id ASC"},
			absent:   []string{"LIMIT", "created_at >="},
		},
		{
			name:       "window and limit",
			window:     window,
			limit:      10,
			contains:   []string{"m.created_at >= $1", "m.created_at < $2", "LIMIT 10"},
			argsLength: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			query, args, err := untaggedListQuery(tc.window, tc.limit).ToSql()
			require.NoError(t, err)
			for _, want := range tc.contains {
				assert.Contains(t, query, want)
			}
			for _, unwanted := range tc.absent {
				assert.NotContains(t, query, unwanted)
			}
			assert.Len(t, args, tc.argsLength)
		})
	}
}

func TestUntaggedQueryBoundsAreHalfOpenDays(t *testing.T) {
	t.Parallel()

	window, err := domain.ParseWindow("2024-01-01", "2024-01-31", nil)
	require.NoError(t, err)

	_, args, err := untaggedCountQuery(window).ToSql()
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), args[0])
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), args[1])
}

func TestUntaggedCountQueryOpenStart(t *testing.T) {
	t.Parallel()

	window, err := domain.ParseWindow("", "2024-03-10", nil)
	require.NoError(t, err)

	query, args, err := untaggedCountQuery(window).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "SELECT COUNT(*) FROM memos m")
	assert.Contains(t, query, "m.created_at < $1")
	assert.NotContains(t, query, ">=")
	assert.Len(t, args, 1)
}

func TestScanMemosQueryCursor(t *testing.T) {
	t.Parallel()

	cursor := &store.MemoCursor{CreatedAt: time.Now().UTC(), ID: uuid.New()}
	query, args, err := scanMemosQuery(nil, cursor, 500).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "(m.created_at, m.id) > ($1, $2)")
	assert.Contains(t, query, "LIMIT 500")
	assert.NotContains(t, query, "NOT EXISTS")
	assert.Equal(t, []interface{}{cursor.CreatedAt, cursor.ID}, args)
}

func TestSearchQueryEscapesPattern(t *testing.T) {
	t.Parallel()

	query, args, err := searchQuery("100%_done", 20).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "m.text ILIKE $1")
	assert.Contains(t, query, "t.name ILIKE $2")
	assert.Contains(t, query, "ORDER BY m.created_at DESC")
	assert.Equal(t, []interface{}{`%100\%\_done%`, `%100\%\_done%`}, args)
}

func TestRemoveAssociationsQuery(t *testing.T) {
	t.Parallel()

	memoID := uuid.New()
	query, err := removeAssociationsQuery(memoID, []string{domain.SentinelUnclassified, domain.SentinelClassificationError})
	require.NoError(t, err)

	sqlStr, args, err := query.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"DELETE FROM memo_tags WHERE memo_id = $1 AND tag_id IN (SELECT t.id FROM tags t WHERE t.name IN ($2,$3))",
		sqlStr)
	assert.Equal(t, []interface{}{memoID, domain.SentinelUnclassified, domain.SentinelClassificationError}, args)
}

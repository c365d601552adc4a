package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/stretchr/testify/require"
)

// MemoOption customizes a memo built by MustCreateMemoForTest.
type MemoOption func(*domain.Memo)

// WithMemoText sets the memo text.
func WithMemoText(text string) MemoOption {
	return func(m *domain.Memo) { m.Text = text }
}

// WithMemoCreatedAt sets the memo creation time.
func WithMemoCreatedAt(t time.Time) MemoOption {
	return func(m *domain.Memo) { m.CreatedAt = t.UTC() }
}

// MustCreateMemoForTest builds a valid memo, failing the test on error.
func MustCreateMemoForTest(t *testing.T, opts ...MemoOption) *domain.Memo {
	t.Helper()

	memo, err := domain.NewMemo("test memo")
	require.NoError(t, err)
	for _, opt := range opts {
		opt(memo)
	}
	require.NoError(t, memo.Validate())
	return memo
}

// SeedMemos inserts n memos created one minute apart starting at base, with
// texts "memo-0" .. "memo-(n-1)". It returns them in creation order.
func SeedMemos(t *testing.T, s *MemStore, base time.Time, n int) []*domain.Memo {
	t.Helper()

	memos := make([]*domain.Memo, 0, n)
	for i := 0; i < n; i++ {
		memo := MustCreateMemoForTest(t,
			WithMemoText(fmt.Sprintf("memo-%d", i)),
			WithMemoCreatedAt(base.Add(time.Duration(i)*time.Minute)),
		)
		require.NoError(t, s.Create(context.Background(), memo))
		memos = append(memos, memo)
	}
	return memos
}

// MustParseDay parses a YYYY-MM-DD date in UTC.
func MustParseDay(t *testing.T, day string) time.Time {
	t.Helper()
	parsed, err := time.Parse(domain.DateLayout, day)
	require.NoError(t, err)
	return parsed
}

//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/platform/postgres"
	"github.com/phrazzld/memo-tagger/internal/store"
	"github.com/phrazzld/memo-tagger/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importBatch(t *testing.T, n int) []*domain.Memo {
	t.Helper()
	base := time.Date(2032, 7, 8, 9, 0, 0, 0, time.UTC)
	memos := make([]*domain.Memo, 0, n)
	for i := 0; i < n; i++ {
		m, err := domain.NewMemoAt("imported memo", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		memos = append(memos, m)
	}
	return memos
}

func TestRunInTransaction(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)
	memos := postgres.NewPostgresMemoStore(db, nil)
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		batch := importBatch(t, 2)
		t.Cleanup(func() {
			for _, m := range batch {
				_ = memos.Delete(context.Background(), m.ID)
			}
		})

		err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return memos.WithTx(tx).CreateMany(ctx, batch)
		})
		require.NoError(t, err)

		for _, m := range batch {
			_, err := memos.GetByID(ctx, m.ID)
			assert.NoError(t, err)
		}
	})

	t.Run("rolls back on error", func(t *testing.T) {
		batch := importBatch(t, 2)
		errHalfway := errors.New("second half failed")

		err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			if err := memos.WithTx(tx).CreateMany(ctx, batch); err != nil {
				return err
			}
			return errHalfway
		})
		require.ErrorIs(t, err, errHalfway)

		_, err = memos.GetByID(ctx, batch[0].ID)
		assert.ErrorIs(t, err, store.ErrMemoNotFound)
	})

	t.Run("rolls back and re-raises a panic", func(t *testing.T) {
		batch := importBatch(t, 1)

		assert.PanicsWithValue(t, "boom", func() {
			_ = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
				if err := memos.WithTx(tx).CreateMany(ctx, batch); err != nil {
					return err
				}
				panic("boom")
			})
		})

		_, err := memos.GetByID(ctx, batch[0].ID)
		assert.ErrorIs(t, err, store.ErrMemoNotFound)
	})
}

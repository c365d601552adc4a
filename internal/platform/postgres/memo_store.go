package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/platform/logger"
	"github.com/phrazzld/memo-tagger/internal/store"
)

// PostgresMemoStore implements the store.MemoStore interface
// using a PostgreSQL database as the storage backend.
type PostgresMemoStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMemoStore creates a new PostgreSQL implementation of the MemoStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresMemoStore(db store.DBTX, logger *slog.Logger) *PostgresMemoStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMemoStore{
		db:     db,
		logger: logger.With(slog.String("component", "memo_store")),
	}
}

// Ensure PostgresMemoStore implements store.MemoStore interface
var _ store.MemoStore = (*PostgresMemoStore)(nil)

// Create implements store.MemoStore.Create
func (s *PostgresMemoStore) Create(ctx context.Context, memo *domain.Memo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := memo.Validate(); err != nil {
		log.Warn("memo validation failed during create",
			slog.String("error", err.Error()),
			slog.String("memo_id", memo.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memos (id, text, created_at) VALUES ($1, $2, $3)`,
		memo.ID, memo.Text, memo.CreatedAt)
	if err != nil {
		log.Error("failed to create memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", memo.ID.String()))
		return MapError(err)
	}

	log.Debug("memo created", slog.String("memo_id", memo.ID.String()))
	return nil
}

// CreateMany implements store.MemoStore.CreateMany. Use it through WithTx
// for all-or-nothing inserts.
func (s *PostgresMemoStore) CreateMany(ctx context.Context, memos []*domain.Memo) error {
	for _, memo := range memos {
		if err := s.Create(ctx, memo); err != nil {
			return err
		}
	}
	return nil
}

// GetByID implements store.MemoStore.GetByID
// Returns store.ErrMemoNotFound if the memo does not exist.
func (s *PostgresMemoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Memo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var memo domain.Memo
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, created_at FROM memos WHERE id = $1`, id).
		Scan(&memo.ID, &memo.Text, &memo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("memo not found", slog.String("memo_id", id.String()))
			return nil, store.ErrMemoNotFound
		}
		log.Error("failed to get memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", id.String()))
		return nil, MapError(err)
	}

	memo.CreatedAt = memo.CreatedAt.UTC()
	return &memo, nil
}

// Delete implements store.MemoStore.Delete. Associations are removed by
// the ON DELETE CASCADE on memo_tags.
func (s *PostgresMemoStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM memos WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete memo",
			slog.String("error", err.Error()),
			slog.String("memo_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrMemoNotFound)
}

// ListRecent implements store.MemoStore.ListRecent
func (s *PostgresMemoStore) ListRecent(ctx context.Context, before *time.Time, limit int) ([]domain.Memo, error) {
	q := psql.Select(memoColumns...).
		From("memos m").
		OrderBy("m.created_at DESC", "m.id DESC")
	if before != nil {
		q = q.Where("m.created_at < ?", *before)
	}
	return queryMemos(ctx, s.db, withLimit(q, limit))
}

// Search implements store.MemoStore.Search
func (s *PostgresMemoStore) Search(ctx context.Context, keyword string, limit int) ([]domain.Memo, error) {
	return queryMemos(ctx, s.db, searchQuery(keyword, limit))
}

// ScanMemos implements store.MemoStore.ScanMemos
func (s *PostgresMemoStore) ScanMemos(
	ctx context.Context,
	window *domain.Window,
	after *store.MemoCursor,
	limit int,
) ([]domain.Memo, error) {
	return queryMemos(ctx, s.db, scanMemosQuery(window, after, limit))
}

// WithTx implements store.MemoStore.WithTx
func (s *PostgresMemoStore) WithTx(tx *sql.Tx) store.MemoStore {
	return &PostgresMemoStore{
		db:     tx,
		logger: s.logger,
	}
}

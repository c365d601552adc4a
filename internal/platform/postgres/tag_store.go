package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/platform/logger"
	"github.com/phrazzld/memo-tagger/internal/store"
)

// PostgresTagStore implements store.TagStore. The untagged set is computed
// in the database as a NOT EXISTS set difference.
type PostgresTagStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTagStore creates a PostgresTagStore. If logger is nil, a
// default logger will be used.
func NewPostgresTagStore(db store.DBTX, logger *slog.Logger) *PostgresTagStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTagStore{
		db:     db,
		logger: logger.With(slog.String("component", "tag_store")),
	}
}

var _ store.TagStore = (*PostgresTagStore)(nil)

// ListUntagged implements store.TagStore.
func (s *PostgresTagStore) ListUntagged(ctx context.Context, window *domain.Window, limit int) ([]domain.Memo, error) {
	memos, err := queryMemos(ctx, s.db, untaggedListQuery(window, limit))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list untagged memos",
			slog.String("error", err.Error()),
			slog.String("window", window.String()))
		return nil, err
	}
	return memos, nil
}

// CountUntagged implements store.TagStore.
func (s *PostgresTagStore) CountUntagged(ctx context.Context, window *domain.Window) (int, error) {
	return queryCount(ctx, s.db, untaggedCountQuery(window))
}

// UpsertTag implements store.TagStore. The no-op update makes RETURNING
// yield the existing row when the name is taken.
func (s *PostgresTagStore) UpsertTag(ctx context.Context, name string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateTagName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var tag domain.Tag
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tags (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at`,
		uuid.New(), name, time.Now().UTC(),
	).Scan(&tag.ID, &tag.Name, &tag.CreatedAt)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to upsert tag",
			slog.String("error", err.Error()),
			slog.String("tag_name", name))
		return nil, MapError(err)
	}

	tag.CreatedAt = tag.CreatedAt.UTC()
	return &tag, nil
}

// UpsertAssociation implements store.TagStore.
func (s *PostgresTagStore) UpsertAssociation(ctx context.Context, memoID, tagID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memo_tags (memo_id, tag_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (memo_id, tag_id) DO NOTHING`,
		memoID, tagID, time.Now().UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to upsert memo tag",
			slog.String("error", err.Error()),
			slog.String("memo_id", memoID.String()),
			slog.String("tag_id", tagID.String()))
		return MapError(err)
	}
	return nil
}

// RemoveAssociations implements store.TagStore.
func (s *PostgresTagStore) RemoveAssociations(ctx context.Context, memoID uuid.UUID, names []string) error {
	if len(names) == 0 {
		return nil
	}

	query, err := removeAssociationsQuery(memoID, names)
	if err != nil {
		return fmt.Errorf("failed to build association delete: %w", err)
	}
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build association delete: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to remove memo tags",
			slog.String("error", err.Error()),
			slog.String("memo_id", memoID.String()))
		return MapError(err)
	}
	return nil
}

// TaggedAmong implements store.TagStore.
func (s *PostgresTagStore) TaggedAmong(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	tagged := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return tagged, nil
	}

	query, args, err := psql.Select("DISTINCT memo_id").
		From("memo_tags").
		Where(sq.Eq{"memo_id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build membership query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan memo id: %w", err)
		}
		tagged[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tagged, nil
}

// ListTags implements store.TagStore.
func (s *PostgresTagStore) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tags := []domain.Tag{}
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tag.CreatedAt = tag.CreatedAt.UTC()
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tags, nil
}

// TagsForMemos implements store.TagStore.
func (s *PostgresTagStore) TagsForMemos(ctx context.Context, memoIDs []uuid.UUID) (map[uuid.UUID][]domain.Tag, error) {
	out := make(map[uuid.UUID][]domain.Tag, len(memoIDs))
	if len(memoIDs) == 0 {
		return out, nil
	}

	query, args, err := psql.Select("mt.memo_id", "t.id", "t.name", "t.created_at").
		From("memo_tags mt").
		Join("tags t ON t.id = mt.tag_id").
		Where(sq.Eq{"mt.memo_id": memoIDs}).
		OrderBy("t.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build memo tags query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var memoID uuid.UUID
		var tag domain.Tag
		if err := rows.Scan(&memoID, &tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memo tag row: %w", err)
		}
		tag.CreatedAt = tag.CreatedAt.UTC()
		out[memoID] = append(out[memoID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

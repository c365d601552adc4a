package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/store"
)

// psql builds statements with PostgreSQL dollar placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var memoColumns = []string{"m.id", "m.text", "m.created_at"}

// untaggedPredicate selects memos without any association.
const untaggedPredicate = "NOT EXISTS (SELECT 1 FROM memo_tags mt WHERE mt.memo_id = m.id)"

// withWindow restricts q to memos created inside window.
func withWindow(q sq.SelectBuilder, window *domain.Window) sq.SelectBuilder {
	start, end := window.Bounds()
	if !start.IsZero() {
		q = q.Where(sq.GtOrEq{"m.created_at": start})
	}
	if !end.IsZero() {
		q = q.Where(sq.Lt{"m.created_at": end})
	}
	return q
}

// withLimit applies limit when it is positive.
func withLimit(q sq.SelectBuilder, limit int) sq.SelectBuilder {
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return q
}

func untaggedListQuery(window *domain.Window, limit int) sq.SelectBuilder {
	q := psql.Select(memoColumns...).
		From("memos m").
		Where(untaggedPredicate).
		OrderBy("m.created_at ASC", "m.id ASC")
	return withLimit(withWindow(q, window), limit)
}

func untaggedCountQuery(window *domain.Window) sq.SelectBuilder {
	q := psql.Select("COUNT(*)").From("memos m").Where(untaggedPredicate)
	return withWindow(q, window)
}

// removeAssociationsQuery unlinks memoID from the tags named in names.
func removeAssociationsQuery(memoID uuid.UUID, names []string) (sq.DeleteBuilder, error) {
	// Built with ? placeholders so the outer builder numbers every argument.
	tagIDs, args, err := sq.Select("t.id").From("tags t").Where(sq.Eq{"t.name": names}).ToSql()
	if err != nil {
		return sq.DeleteBuilder{}, err
	}
	return psql.Delete("memo_tags").
		Where(sq.Eq{"memo_id": memoID}).
		Where(sq.Expr("tag_id IN ("+tagIDs+")", args...)), nil
}

func scanMemosQuery(window *domain.Window, after *store.MemoCursor, limit int) sq.SelectBuilder {
	q := psql.Select(memoColumns...).
		From("memos m").
		OrderBy("m.created_at ASC", "m.id ASC")
	if after != nil {
		q = q.Where(sq.Expr("(m.created_at, m.id) > (?, ?)", after.CreatedAt, after.ID))
	}
	return withLimit(withWindow(q, window), limit)
}

// likePattern escapes LIKE metacharacters in keyword and wraps it in %.
func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(keyword) + "%"
}

func searchQuery(keyword string, limit int) sq.SelectBuilder {
	pattern := likePattern(keyword)
	q := psql.Select(memoColumns...).
		From("memos m").
		Where(sq.Or{
			sq.ILike{"m.text": pattern},
			sq.Expr("EXISTS (SELECT 1 FROM memo_tags mt JOIN tags t ON t.id = mt.tag_id "+
				"WHERE mt.memo_id = m.id AND t.name ILIKE ?)", pattern),
		}).
		OrderBy("m.created_at DESC", "m.id DESC")
	return withLimit(q, limit)
}

// queryMemos runs a built memo query and scans the rows.
func queryMemos(ctx context.Context, db store.DBTX, q sq.SelectBuilder) ([]domain.Memo, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build memo query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	memos := []domain.Memo{}
	for rows.Next() {
		var m domain.Memo
		if err := rows.Scan(&m.ID, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memo row: %w", err)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		memos = append(memos, m)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return memos, nil
}

// queryCount runs a built COUNT query.
func queryCount(ctx context.Context, db store.DBTX, q sq.SelectBuilder) (int, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, MapError(err)
	}
	return n, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/phrazzld/memo-tagger/internal/events"
	"github.com/phrazzld/memo-tagger/internal/platform/logger"
	"github.com/phrazzld/memo-tagger/internal/store"
	"github.com/phrazzld/memo-tagger/internal/task"
)

// Listing limits.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// MemoEnricher tags a single memo. *enrichment.Enricher implements it.
type MemoEnricher interface {
	EnrichMemo(ctx context.Context, memo domain.Memo) enrichment.Outcome
}

// MemoService provides memo-related operations
type MemoService interface {
	// CreateMemo stores a memo and schedules it for background tagging.
	CreateMemo(ctx context.Context, text string) (*domain.Memo, error)

	// ImportMemos stores every entry of an exported log atomically. Imported
	// memos are left untagged for bulk enrichment.
	ImportMemos(ctx context.Context, content string) ([]*domain.Memo, error)

	// ListMemos returns up to limit memos older than before, with their tags,
	// oldest first.
	ListMemos(ctx context.Context, before *time.Time, limit int) ([]domain.MemoWithTags, error)

	// SearchMemos finds memos whose text or tags contain keyword, newest first.
	SearchMemos(ctx context.Context, keyword string, limit int) ([]domain.MemoWithTags, error)

	// DeleteMemo removes a memo and its tag associations.
	DeleteMemo(ctx context.Context, id uuid.UUID) error

	// ListTags returns every tag by name.
	ListTags(ctx context.Context) ([]domain.Tag, error)

	// RetagMemo classifies a memo again, adding to its tags, and returns
	// the memo's tags afterwards. Markers left by earlier attempts are
	// replaced. It fails with ErrTaggingFailed when no classification
	// could be stored.
	RetagMemo(ctx context.Context, id uuid.UUID) ([]domain.Tag, error)

	// TagMemo classifies a memo unless it is already tagged.
	TagMemo(ctx context.Context, id uuid.UUID) error
}

// memoServiceImpl implements the MemoService interface
type memoServiceImpl struct {
	db           *sql.DB
	memos        store.MemoStore
	tags         store.TagStore
	enricher     MemoEnricher
	eventEmitter events.EventEmitter
	location     *time.Location
	logger       *slog.Logger
}

var (
	_ MemoService     = (*memoServiceImpl)(nil)
	_ task.MemoTagger = (*memoServiceImpl)(nil)
)

// NewMemoService creates a new MemoService. db is used for transactional
// imports and may be nil, in which case imports are not atomic.
// eventEmitter may be nil to disable tagging on create.
func NewMemoService(
	db *sql.DB,
	memos store.MemoStore,
	tags store.TagStore,
	enricher MemoEnricher,
	eventEmitter events.EventEmitter,
	location *time.Location,
	logger *slog.Logger,
) (MemoService, error) {
	if memos == nil {
		return nil, &MemoServiceError{Operation: "create_service", Message: "memo store cannot be nil"}
	}
	if tags == nil {
		return nil, &MemoServiceError{Operation: "create_service", Message: "tag store cannot be nil"}
	}
	if enricher == nil {
		return nil, &MemoServiceError{Operation: "create_service", Message: "enricher cannot be nil"}
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &memoServiceImpl{
		db:           db,
		memos:        memos,
		tags:         tags,
		enricher:     enricher,
		eventEmitter: eventEmitter,
		location:     location,
		logger:       logger.With("component", "memo_service"),
	}, nil
}

// CreateMemo implements MemoService.CreateMemo
func (s *memoServiceImpl) CreateMemo(ctx context.Context, text string) (*domain.Memo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	memo, err := domain.NewMemo(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMemo, err)
	}

	if err := s.memos.Create(ctx, memo); err != nil {
		return nil, NewMemoServiceError("create_memo", "failed to save memo", err)
	}

	// The memo is saved either way; if scheduling fails it stays untagged
	// until the next bulk run.
	if s.eventEmitter != nil {
		event, err := events.NewMemoTaggingEvent(memo.ID)
		if err == nil {
			err = s.eventEmitter.EmitEvent(ctx, event)
		}
		if err != nil {
			log.Warn("failed to schedule memo tagging", "memo_id", memo.ID, "error", err)
		}
	}

	log.Info("memo created", "memo_id", memo.ID)
	return memo, nil
}

// ImportMemos implements MemoService.ImportMemos
func (s *memoServiceImpl) ImportMemos(ctx context.Context, content string) ([]*domain.Memo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	memos, err := domain.ParseImport(content, s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMemo, err)
	}

	if s.db == nil {
		err = s.memos.CreateMany(ctx, memos)
	} else {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return s.memos.WithTx(tx).CreateMany(ctx, memos)
		})
	}
	if err != nil {
		return nil, NewMemoServiceError("import_memos", "failed to save imported memos", err)
	}

	log.Info("memos imported", "count", len(memos))
	return memos, nil
}

// ListMemos implements MemoService.ListMemos
func (s *memoServiceImpl) ListMemos(ctx context.Context, before *time.Time, limit int) ([]domain.MemoWithTags, error) {
	memos, err := s.memos.ListRecent(ctx, before, clampLimit(limit))
	if err != nil {
		return nil, NewMemoServiceError("list_memos", "failed to list memos", err)
	}

	// Newest page, oldest first within it, so a chat view reads top to bottom.
	for i, j := 0, len(memos)-1; i < j; i, j = i+1, j-1 {
		memos[i], memos[j] = memos[j], memos[i]
	}
	return s.withTags(ctx, memos)
}

// SearchMemos implements MemoService.SearchMemos
func (s *memoServiceImpl) SearchMemos(ctx context.Context, keyword string, limit int) ([]domain.MemoWithTags, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: search keyword cannot be empty", ErrInvalidMemo)
	}

	memos, err := s.memos.Search(ctx, keyword, clampLimit(limit))
	if err != nil {
		return nil, NewMemoServiceError("search_memos", "failed to search memos", err)
	}
	return s.withTags(ctx, memos)
}

// DeleteMemo implements MemoService.DeleteMemo
func (s *memoServiceImpl) DeleteMemo(ctx context.Context, id uuid.UUID) error {
	if err := s.memos.Delete(ctx, id); err != nil {
		return NewMemoServiceError("delete_memo", "failed to delete memo", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("memo deleted", "memo_id", id)
	return nil
}

// ListTags implements MemoService.ListTags
func (s *memoServiceImpl) ListTags(ctx context.Context) ([]domain.Tag, error) {
	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		return nil, NewMemoServiceError("list_tags", "failed to list tags", err)
	}
	return tags, nil
}

// RetagMemo implements MemoService.RetagMemo
func (s *memoServiceImpl) RetagMemo(ctx context.Context, id uuid.UUID) ([]domain.Tag, error) {
	memo, err := s.memos.GetByID(ctx, id)
	if err != nil {
		return nil, NewMemoServiceError("retag_memo", "failed to load memo", err)
	}

	// Unlike TagMemo, a quarantined memo is a failure here: the caller asked
	// for tags and only got the error marker.
	switch s.enricher.EnrichMemo(ctx, *memo) {
	case enrichment.OutcomeFailed, enrichment.OutcomeQuarantined:
		return nil, ErrTaggingFailed
	}

	byMemo, err := s.tags.TagsForMemos(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, NewMemoServiceError("retag_memo", "failed to load tags", err)
	}
	tags := byMemo[id]
	if tags == nil {
		tags = []domain.Tag{}
	}
	return tags, nil
}

// TagMemo implements task.MemoTagger. Redelivered tasks for a memo that
// already has tags do nothing.
func (s *memoServiceImpl) TagMemo(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	memo, err := s.memos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrMemoNotFound) {
			log.Info("memo deleted before tagging", "memo_id", id)
			return nil
		}
		return NewMemoServiceError("tag_memo", "failed to load memo", err)
	}

	tagged, err := s.tags.TaggedAmong(ctx, []uuid.UUID{id})
	if err != nil {
		return NewMemoServiceError("tag_memo", "failed to check existing tags", err)
	}
	if tagged[id] {
		return nil
	}

	if outcome := s.enricher.EnrichMemo(ctx, *memo); outcome == enrichment.OutcomeFailed {
		return ErrTaggingFailed
	}
	return nil
}

// withTags attaches each memo's tags.
func (s *memoServiceImpl) withTags(ctx context.Context, memos []domain.Memo) ([]domain.MemoWithTags, error) {
	ids := make([]uuid.UUID, len(memos))
	for i, m := range memos {
		ids[i] = m.ID
	}

	byMemo, err := s.tags.TagsForMemos(ctx, ids)
	if err != nil {
		return nil, NewMemoServiceError("load_tags", "failed to load memo tags", err)
	}

	out := make([]domain.MemoWithTags, len(memos))
	for i, m := range memos {
		tags := byMemo[m.ID]
		if tags == nil {
			tags = []domain.Tag{}
		}
		out[i] = domain.MemoWithTags{Memo: m, Tags: tags}
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

package testutils

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/store"
)

// MemStore keeps memos, tags and associations in memory. It implements
// store.MemoStore and store.TagStore.
//
// The hook fields are read without locking and must be set before the store
// is shared between goroutines.
type MemStore struct {
	mu           sync.Mutex
	memos        map[uuid.UUID]domain.Memo
	tagsByName   map[string]domain.Tag
	associations map[domain.TagAssociation]struct{}

	// ReadErr, when set, is returned by every read used by the locator.
	ReadErr error

	// UpsertTagHook runs before a tag upsert; a non-nil error aborts it.
	UpsertTagHook func(name string) error

	// UpsertAssociationHook runs before an association upsert; a non-nil
	// error aborts it.
	UpsertAssociationHook func(memoID, tagID uuid.UUID) error

	// RemoveAssociationsErr, when set, fails every association removal.
	RemoveAssociationsErr error
}

var (
	_ store.MemoStore = (*MemStore)(nil)
	_ store.TagStore  = (*MemStore)(nil)
)

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		memos:        make(map[uuid.UUID]domain.Memo),
		tagsByName:   make(map[string]domain.Tag),
		associations: make(map[domain.TagAssociation]struct{}),
	}
}

// Create implements store.MemoStore.
func (s *MemStore) Create(_ context.Context, memo *domain.Memo) error {
	if err := memo.Validate(); err != nil {
		return store.ErrInvalidEntity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memos[memo.ID]; ok {
		return store.ErrDuplicate
	}
	s.memos[memo.ID] = *memo
	return nil
}

// CreateMany implements store.MemoStore.
func (s *MemStore) CreateMany(ctx context.Context, memos []*domain.Memo) error {
	for _, memo := range memos {
		if err := s.Create(ctx, memo); err != nil {
			return err
		}
	}
	return nil
}

// GetByID implements store.MemoStore.
func (s *MemStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memo, ok := s.memos[id]
	if !ok {
		return nil, store.ErrMemoNotFound
	}
	return &memo, nil
}

// Delete implements store.MemoStore.
func (s *MemStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memos[id]; !ok {
		return store.ErrMemoNotFound
	}
	delete(s.memos, id)
	for assoc := range s.associations {
		if assoc.MemoID == id {
			delete(s.associations, assoc)
		}
	}
	return nil
}

// ListRecent implements store.MemoStore.
func (s *MemStore) ListRecent(_ context.Context, before *time.Time, limit int) ([]domain.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Memo
	for _, memo := range s.sortedLocked() {
		if before == nil || memo.CreatedAt.Before(*before) {
			out = append(out, memo)
		}
	}
	reverse(out)
	return truncate(out, limit), nil
}

// Search implements store.MemoStore. Matching is a case-insensitive
// substring test against the memo text and its tag names.
func (s *MemStore) Search(_ context.Context, keyword string, limit int) ([]domain.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(keyword)
	var out []domain.Memo
	for _, memo := range s.sortedLocked() {
		if strings.Contains(strings.ToLower(memo.Text), needle) || s.tagMatchesLocked(memo.ID, needle) {
			out = append(out, memo)
		}
	}
	reverse(out)
	return truncate(out, limit), nil
}

// ScanMemos implements store.MemoStore.
func (s *MemStore) ScanMemos(
	_ context.Context,
	window *domain.Window,
	after *store.MemoCursor,
	limit int,
) ([]domain.Memo, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Memo
	for _, memo := range s.sortedLocked() {
		if !window.Contains(memo.CreatedAt) {
			continue
		}
		if after != nil && !cursorBefore(*after, memo) {
			continue
		}
		out = append(out, memo)
	}
	return truncate(out, limit), nil
}

// WithTx implements store.MemoStore. The in-memory store has no
// transactions, so it returns itself.
func (s *MemStore) WithTx(*sql.Tx) store.MemoStore {
	return s
}

// ListUntagged implements store.TagStore.
func (s *MemStore) ListUntagged(_ context.Context, window *domain.Window, limit int) ([]domain.Memo, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return truncate(s.untaggedLocked(window), limit), nil
}

// CountUntagged implements store.TagStore.
func (s *MemStore) CountUntagged(_ context.Context, window *domain.Window) (int, error) {
	if s.ReadErr != nil {
		return 0, s.ReadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.untaggedLocked(window)), nil
}

// UpsertTag implements store.TagStore.
func (s *MemStore) UpsertTag(_ context.Context, name string) (*domain.Tag, error) {
	if s.UpsertTagHook != nil {
		if err := s.UpsertTagHook(name); err != nil {
			return nil, err
		}
	}
	name = strings.TrimSpace(name)
	if err := domain.ValidateTagName(name); err != nil {
		return nil, store.ErrInvalidEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tag, ok := s.tagsByName[name]
	if !ok {
		tag = domain.Tag{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
		s.tagsByName[name] = tag
	}
	return &tag, nil
}

// UpsertAssociation implements store.TagStore.
func (s *MemStore) UpsertAssociation(_ context.Context, memoID, tagID uuid.UUID) error {
	if s.UpsertAssociationHook != nil {
		if err := s.UpsertAssociationHook(memoID, tagID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memos[memoID]; !ok {
		return store.ErrMemoNotFound
	}
	s.associations[domain.TagAssociation{MemoID: memoID, TagID: tagID}] = struct{}{}
	return nil
}

// RemoveAssociations implements store.TagStore.
func (s *MemStore) RemoveAssociations(_ context.Context, memoID uuid.UUID, names []string) error {
	if s.RemoveAssociationsErr != nil {
		return s.RemoveAssociationsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		if tag, ok := s.tagsByName[name]; ok {
			delete(s.associations, domain.TagAssociation{MemoID: memoID, TagID: tag.ID})
		}
	}
	return nil
}

// TaggedAmong implements store.TagStore.
func (s *MemStore) TaggedAmong(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tagged := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if s.hasAssociationLocked(id) {
			tagged[id] = true
		}
	}
	return tagged, nil
}

// ListTags implements store.TagStore.
func (s *MemStore) ListTags(context.Context) ([]domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := make([]domain.Tag, 0, len(s.tagsByName))
	for _, tag := range s.tagsByName {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// TagsForMemos implements store.TagStore.
func (s *MemStore) TagsForMemos(_ context.Context, memoIDs []uuid.UUID) (map[uuid.UUID][]domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[uuid.UUID]domain.Tag, len(s.tagsByName))
	for _, tag := range s.tagsByName {
		byID[tag.ID] = tag
	}
	out := make(map[uuid.UUID][]domain.Tag, len(memoIDs))
	for _, memoID := range memoIDs {
		for assoc := range s.associations {
			if assoc.MemoID == memoID {
				out[memoID] = append(out[memoID], byID[assoc.TagID])
			}
		}
		sort.Slice(out[memoID], func(i, j int) bool { return out[memoID][i].Name < out[memoID][j].Name })
	}
	return out, nil
}

// AssociationCount returns the number of stored associations.
func (s *MemStore) AssociationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.associations)
}

// TagNamesFor returns the sorted names of the tags attached to memoID.
func (s *MemStore) TagNamesFor(memoID uuid.UUID) []string {
	tags, _ := s.TagsForMemos(context.Background(), []uuid.UUID{memoID})
	names := make([]string, 0, len(tags[memoID]))
	for _, tag := range tags[memoID] {
		names = append(names, tag.Name)
	}
	return names
}

func (s *MemStore) untaggedLocked(window *domain.Window) []domain.Memo {
	var out []domain.Memo
	for _, memo := range s.sortedLocked() {
		if window.Contains(memo.CreatedAt) && !s.hasAssociationLocked(memo.ID) {
			out = append(out, memo)
		}
	}
	return out
}

func (s *MemStore) hasAssociationLocked(memoID uuid.UUID) bool {
	for assoc := range s.associations {
		if assoc.MemoID == memoID {
			return true
		}
	}
	return false
}

func (s *MemStore) tagMatchesLocked(memoID uuid.UUID, needle string) bool {
	for _, tag := range s.tagsByName {
		if !strings.Contains(strings.ToLower(tag.Name), needle) {
			continue
		}
		if _, ok := s.associations[domain.TagAssociation{MemoID: memoID, TagID: tag.ID}]; ok {
			return true
		}
	}
	return false
}

// sortedLocked returns all memos in ascending (created_at, id) order.
func (s *MemStore) sortedLocked() []domain.Memo {
	out := make([]domain.Memo, 0, len(s.memos))
	for _, memo := range s.memos {
		out = append(out, memo)
	}
	sort.Slice(out, func(i, j int) bool {
		return cursorBefore(store.CursorOf(out[i]), out[j])
	})
	return out
}

// cursorBefore reports whether c sorts strictly before memo.
func cursorBefore(c store.MemoCursor, memo domain.Memo) bool {
	if !c.CreatedAt.Equal(memo.CreatedAt) {
		return c.CreatedAt.Before(memo.CreatedAt)
	}
	return strings.Compare(c.ID.String(), memo.ID.String()) < 0
}

func truncate(memos []domain.Memo, limit int) []domain.Memo {
	if limit > 0 && len(memos) > limit {
		return memos[:limit]
	}
	return memos
}

func reverse(memos []domain.Memo) {
	for i, j := 0, len(memos)-1; i < j; i, j = i+1, j-1 {
		memos[i], memos[j] = memos[j], memos[i]
	}
}

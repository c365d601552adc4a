package store

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/phrazzld/memo-tagger/internal/domain"
)

// CachedTagStore remembers the id of every tag name it has upserted so that
// repeated labels skip the database round trip. Tags are never renamed, so a
// cached entry only goes stale if the tag row is deleted; the TTL bounds that.
type CachedTagStore struct {
	TagStore
	tags *cache.Cache
}

// NewCachedTagStore wraps inner with a name → tag cache.
func NewCachedTagStore(inner TagStore, ttl time.Duration) *CachedTagStore {
	return &CachedTagStore{
		TagStore: inner,
		tags:     cache.New(ttl, 2*ttl),
	}
}

var _ TagStore = (*CachedTagStore)(nil)

// UpsertTag implements TagStore.UpsertTag.
func (s *CachedTagStore) UpsertTag(ctx context.Context, name string) (*domain.Tag, error) {
	key := strings.TrimSpace(name)
	if cached, ok := s.tags.Get(key); ok {
		tag := cached.(domain.Tag)
		return &tag, nil
	}

	tag, err := s.TagStore.UpsertTag(ctx, name)
	if err != nil {
		return nil, err
	}

	s.tags.SetDefault(key, *tag)
	return tag, nil
}

// Forget drops every cached tag.
func (s *CachedTagStore) Forget() {
	s.tags.Flush()
}

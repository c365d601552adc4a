package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/service"
)

// MockMemoService implements service.MemoService for testing
type MockMemoService struct {
	CreateMemoFn  func(ctx context.Context, text string) (*domain.Memo, error)
	ImportMemosFn func(ctx context.Context, content string) ([]*domain.Memo, error)
	ListMemosFn   func(ctx context.Context, before *time.Time, limit int) ([]domain.MemoWithTags, error)
	SearchMemosFn func(ctx context.Context, keyword string, limit int) ([]domain.MemoWithTags, error)
	DeleteMemoFn  func(ctx context.Context, id uuid.UUID) error
	ListTagsFn    func(ctx context.Context) ([]domain.Tag, error)
	RetagMemoFn   func(ctx context.Context, id uuid.UUID) ([]domain.Tag, error)
	TagMemoFn     func(ctx context.Context, id uuid.UUID) error

	// Default return values
	Memo         *domain.Memo
	Memos        []domain.MemoWithTags
	Tags         []domain.Tag
	DefaultError error
}

var _ service.MemoService = (*MockMemoService)(nil)

// CreateMemo implements the MemoService.CreateMemo method
func (m *MockMemoService) CreateMemo(ctx context.Context, text string) (*domain.Memo, error) {
	if m.CreateMemoFn != nil {
		return m.CreateMemoFn(ctx, text)
	}
	return m.Memo, m.DefaultError
}

// ImportMemos implements the MemoService.ImportMemos method
func (m *MockMemoService) ImportMemos(ctx context.Context, content string) ([]*domain.Memo, error) {
	if m.ImportMemosFn != nil {
		return m.ImportMemosFn(ctx, content)
	}
	if m.Memo == nil {
		return nil, m.DefaultError
	}
	return []*domain.Memo{m.Memo}, m.DefaultError
}

// ListMemos implements the MemoService.ListMemos method
func (m *MockMemoService) ListMemos(ctx context.Context, before *time.Time, limit int) ([]domain.MemoWithTags, error) {
	if m.ListMemosFn != nil {
		return m.ListMemosFn(ctx, before, limit)
	}
	return m.Memos, m.DefaultError
}

// SearchMemos implements the MemoService.SearchMemos method
func (m *MockMemoService) SearchMemos(ctx context.Context, keyword string, limit int) ([]domain.MemoWithTags, error) {
	if m.SearchMemosFn != nil {
		return m.SearchMemosFn(ctx, keyword, limit)
	}
	return m.Memos, m.DefaultError
}

// DeleteMemo implements the MemoService.DeleteMemo method
func (m *MockMemoService) DeleteMemo(ctx context.Context, id uuid.UUID) error {
	if m.DeleteMemoFn != nil {
		return m.DeleteMemoFn(ctx, id)
	}
	return m.DefaultError
}

// ListTags implements the MemoService.ListTags method
func (m *MockMemoService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	if m.ListTagsFn != nil {
		return m.ListTagsFn(ctx)
	}
	return m.Tags, m.DefaultError
}

// RetagMemo implements the MemoService.RetagMemo method
func (m *MockMemoService) RetagMemo(ctx context.Context, id uuid.UUID) ([]domain.Tag, error) {
	if m.RetagMemoFn != nil {
		return m.RetagMemoFn(ctx, id)
	}
	return m.Tags, m.DefaultError
}

// TagMemo implements the MemoService.TagMemo method
func (m *MockMemoService) TagMemo(ctx context.Context, id uuid.UUID) error {
	if m.TagMemoFn != nil {
		return m.TagMemoFn(ctx, id)
	}
	return m.DefaultError
}

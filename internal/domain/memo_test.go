package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewMemo(t *testing.T) {
	t.Parallel()

	memo, err := NewMemo("  Remember to renew the passport  ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if memo.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if memo.Text != "Remember to renew the passport" {
		t.Errorf("Expected trimmed text, got %q", memo.Text)
	}

	if memo.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	if _, err := NewMemo("   "); !errors.Is(err, ErrEmptyMemoText) {
		t.Errorf("Expected error %v, got %v", ErrEmptyMemoText, err)
	}
}

func TestNewMemoAtKeepsTimestamp(t *testing.T) {
	t.Parallel()

	jst := time.FixedZone("JST", 9*60*60)
	created := time.Date(2024, 1, 15, 9, 0, 0, 0, jst)

	memo, err := NewMemoAt("imported", created)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !memo.CreatedAt.Equal(created) {
		t.Errorf("Expected %v, got %v", created, memo.CreatedAt)
	}
	if memo.CreatedAt.Location() != time.UTC {
		t.Errorf("Expected UTC location, got %v", memo.CreatedAt.Location())
	}
}

func TestMemoValidate(t *testing.T) {
	t.Parallel()

	valid := Memo{ID: uuid.New(), Text: "text", CreatedAt: time.Now()}

	tests := []struct {
		name string
		memo Memo
		want error
	}{
		{"valid", valid, nil},
		{"nil id", Memo{Text: "text", CreatedAt: time.Now()}, ErrEmptyMemoID},
		{"empty text", Memo{ID: uuid.New(), CreatedAt: time.Now()}, ErrEmptyMemoText},
		{"zero time", Memo{ID: uuid.New(), Text: "text"}, ErrEmptyMemoCreatedAt},
	}

	for _, tc := range tests {
		if err := tc.memo.Validate(); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTagNameRules(t *testing.T) {
	t.Parallel()

	if err := ValidateTagName("マーケティング"); err != nil {
		t.Errorf("Expected valid name, got %v", err)
	}
	if err := ValidateTagName("  "); !errors.Is(err, ErrEmptyTagName) {
		t.Errorf("Expected %v, got %v", ErrEmptyTagName, err)
	}
	long := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
	if err := ValidateTagName(long); !errors.Is(err, ErrTagNameTooLong) {
		t.Errorf("Expected %v, got %v", ErrTagNameTooLong, err)
	}

	for _, name := range []string{"unclassified", " Classification-Error "} {
		if !IsSentinelTag(name) {
			t.Errorf("Expected %q to be a sentinel tag", name)
		}
	}
	if IsSentinelTag("go") {
		t.Error("Expected ordinary tag not to be a sentinel")
	}
}

func TestBatchResultMadeProgress(t *testing.T) {
	t.Parallel()

	if (BatchResult{Remaining: 4}).MadeProgress() {
		t.Error("Expected no progress for an empty batch")
	}
	if (BatchResult{Failed: 3, Remaining: 3}).MadeProgress() {
		t.Error("Expected unquarantined failures not to count as progress")
	}
	if !(BatchResult{Failed: 1, Quarantined: 1}).MadeProgress() {
		t.Error("Expected quarantined failures to count as progress")
	}
	if !(BatchResult{Processed: 1}).MadeProgress() {
		t.Error("Expected processed items to count as progress")
	}
}

package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoTaggingEvent(t *testing.T) {
	t.Parallel()

	memoID := uuid.New()
	event, err := NewMemoTaggingEvent(memoID)
	require.NoError(t, err)

	assert.Equal(t, TypeMemoTagging, event.Type)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.CreatedAt.IsZero())

	var payload MemoPayload
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, memoID, payload.MemoID)
}

func TestNewTaskRequestEventRejectsUnmarshalablePayload(t *testing.T) {
	t.Parallel()

	_, err := NewTaskRequestEvent("bad", make(chan int))
	assert.Error(t, err)
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(nil)

	var tagging, other int
	failing := errors.New("handler failed")
	emitter.RegisterHandler(TypeMemoTagging, EventHandlerFunc(func(context.Context, *TaskRequestEvent) error {
		tagging++
		return failing
	}))
	emitter.RegisterHandler(TypeMemoTagging, EventHandlerFunc(func(context.Context, *TaskRequestEvent) error {
		tagging++
		return nil
	}))
	emitter.RegisterHandler("other", EventHandlerFunc(func(context.Context, *TaskRequestEvent) error {
		other++
		return nil
	}))

	event, err := NewMemoTaggingEvent(uuid.New())
	require.NoError(t, err)

	err = emitter.EmitEvent(context.Background(), event)
	assert.ErrorIs(t, err, failing, "first handler error is returned")
	assert.Equal(t, 2, tagging, "every handler of the type runs")
	assert.Zero(t, other, "handlers of other types are not called")

	unhandled, err := NewTaskRequestEvent("nobody_listens", struct{}{})
	require.NoError(t, err)
	assert.NoError(t, emitter.EmitEvent(context.Background(), unhandled))
}

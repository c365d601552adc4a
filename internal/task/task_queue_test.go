package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue(t *testing.T) {
	t.Parallel()

	t.Run("enqueue until full", func(t *testing.T) {
		t.Parallel()
		q := NewTaskQueue(1, setupTestLogger())

		require.NoError(t, q.Enqueue(newMockTask(nil)))
		assert.ErrorIs(t, q.Enqueue(newMockTask(nil)), ErrQueueFull)
		assert.Len(t, q.GetChannel(), 1)
	})

	t.Run("closed queue rejects tasks", func(t *testing.T) {
		t.Parallel()
		q := NewTaskQueue(1, setupTestLogger())
		q.Close()
		q.Close()

		assert.ErrorIs(t, q.Enqueue(newMockTask(nil)), ErrQueueClosed)
		_, ok := <-q.GetChannel()
		assert.False(t, ok)
	})
}

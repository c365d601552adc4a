//go:build integration

package postgres_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/phrazzld/memo-tagger/internal/task"
)

type runExecutorFunc func(ctx context.Context, p task.EnrichmentRunPayload) error

func (f runExecutorFunc) ExecuteRun(ctx context.Context, p task.EnrichmentRunPayload) error {
	return f(ctx, p)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

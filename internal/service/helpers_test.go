package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/phrazzld/memo-tagger/internal/classification"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/phrazzld/memo-tagger/internal/events"
	"github.com/phrazzld/memo-tagger/internal/testutils"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingEmitter records emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TaskRequestEvent
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.TaskRequestEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

// newEnricher builds a real enricher over s.
func newEnricher(s *testutils.MemStore, c classification.Classifier) *enrichment.Enricher {
	return enrichment.NewEnricher(enrichment.NewStoreLocator(s), s, c, enrichment.EnricherConfig{}, discardLogger())
}

type memoFixture struct {
	store      *testutils.MemStore
	classifier *testutils.StaticClassifier
	emitter    *recordingEmitter
	svc        MemoService
}

func newMemoFixture(t *testing.T, labels ...string) *memoFixture {
	t.Helper()
	s := testutils.NewMemStore()
	c := &testutils.StaticClassifier{Labels: labels}
	emitter := &recordingEmitter{}
	svc, err := NewMemoService(nil, s, s, newEnricher(s, c), emitter, nil, discardLogger())
	if err != nil {
		t.Fatalf("NewMemoService: %v", err)
	}
	return &memoFixture{store: s, classifier: c, emitter: emitter, svc: svc}
}

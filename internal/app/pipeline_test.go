package app

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/memo-tagger/internal/config"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/phrazzld/memo-tagger/internal/testutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(locator string) *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{MaxLabels: 5},
		Enrichment: config.EnrichmentConfig{
			BatchSize:                10,
			Concurrency:              2,
			ClassifierTimeoutSeconds: 5,
			Locator:                  locator,
			ChunkSize:                100,
		},
	}
}

// lazyDB returns a pool that never connects; the stores only hold it.
func lazyDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", "postgres://memotag@127.0.0.1:1/memotag")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewPipelineLocatorSelection(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	classifier := &testutils.StaticClassifier{Labels: []string{"x"}}

	tests := []struct {
		locator string
		want    interface{}
		wantErr bool
	}{
		{locator: LocatorSetDifference, want: &enrichment.StoreLocator{}},
		{locator: "", want: &enrichment.StoreLocator{}},
		{locator: LocatorChunked, want: &enrichment.ChunkedLocator{}},
		{locator: "random", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.locator, func(t *testing.T) {
			t.Parallel()
			p, err := NewPipeline(context.Background(), testConfig(tc.locator), lazyDB(t), logger,
				WithClassifier(classifier))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, p.Locator)
			assert.Same(t, classifier, p.Classifier)
			assert.Nil(t, p.Metrics)
		})
	}
}

func TestNewPipelineRegistersMetrics(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	p, err := NewPipeline(context.Background(), testConfig(LocatorSetDifference), lazyDB(t), logger,
		WithClassifier(&testutils.StaticClassifier{}), WithRegisterer(reg))
	require.NoError(t, err)
	require.NotNil(t, p.Metrics)

	_, err = NewPipeline(context.Background(), testConfig(LocatorSetDifference), lazyDB(t), logger,
		WithClassifier(&testutils.StaticClassifier{}), WithRegisterer(reg))
	assert.Error(t, err, "metrics cannot be registered twice")
}

func TestNewPipelineRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(context.Background(), nil, lazyDB(t), nil)
	assert.Error(t, err)
	_, err = NewPipeline(context.Background(), testConfig(""), nil, nil)
	assert.Error(t, err)
}

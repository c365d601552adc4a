package metrics

import (
	"testing"
	"time"

	"github.com/phrazzld/memo-tagger/internal/domain"
	"github.com/phrazzld/memo-tagger/internal/enrichment"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichmentMetricsRecordsEvents(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewEnrichmentMetrics(registry)
	require.NoError(t, err)

	m.ItemFinished(enrichment.OutcomeTagged, 20*time.Millisecond)
	m.ItemFinished(enrichment.OutcomeTagged, 30*time.Millisecond)
	m.ItemFinished(enrichment.OutcomeFailed, time.Second)
	m.BatchFinished(domain.BatchResult{Processed: 2, Failed: 1, Remaining: 7}, time.Second)
	m.RunFinished(enrichment.RunSummary{State: enrichment.StateStalled, Batches: 3})

	assert.Equal(t, float64(2), testutil.ToFloat64(m.itemsTotal.WithLabelValues("tagged")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.itemsTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.batchesTotal))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.remainingUntagged))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runsTotal.WithLabelValues("STALLED")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.itemsTotal)+testutil.CollectAndCount(m.runsTotal))
}

func TestNewEnrichmentMetricsRejectsDoubleRegistration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewEnrichmentMetrics(registry)
	require.NoError(t, err)

	_, err = NewEnrichmentMetrics(registry)
	assert.Error(t, err)
}

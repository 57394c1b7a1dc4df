package capture

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httpledger/httpledger/pkg/logger"
	"github.com/httpledger/httpledger/pkg/metrics"
	"github.com/httpledger/httpledger/pkg/store"
)

func TestMetricsWiring(t *testing.T) {
	met := metrics.New()
	cfg := DefaultConfig()
	cfg.Notify = false
	e := New(cfg, store.NewMemory(2), logger.Nop(), WithMetrics(met))

	id, err := e.Start(StartRequest{URL: "https://example.com/a", StartTS: 100})
	require.NoError(t, err)
	e.Finish(FinishRequest{ID: id, Status: intPtr(200), FinishTS: 150})

	// Unmatched finish.
	e.Finish(FinishRequest{ID: "ghost", URL: "https://example.com/g", FinishTS: 200})

	// Third record overflows the 2-entry store.
	_, err = e.Start(StartRequest{URL: "https://example.com/b", StartTS: 300})
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(met.StartedTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(met.FinishedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(met.UnmatchedFinishTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(met.EvictionsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(met.StoredRecords))
}

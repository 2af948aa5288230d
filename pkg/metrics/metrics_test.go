package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestObserveRunRecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.ObserveRun("synced", 250*time.Millisecond, 5, 1)
	m.ObserveRun("partial", 100*time.Millisecond, 2, 2)

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]*dto.MetricFamily{}
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}

	pushed := byName["sync_records_pushed_total"]
	require.NotNil(t, pushed)
	require.Equal(t, float64(7), pushed.GetMetric()[0].GetCounter().GetValue())

	failed := byName["sync_records_failed_total"]
	require.NotNil(t, failed)
	require.Equal(t, float64(3), failed.GetMetric()[0].GetCounter().GetValue())

	runs := byName["sync_runs_total"]
	require.NotNil(t, runs)
	require.Len(t, runs.GetMetric(), 2)
}

func TestNilRegistererIsSafe(t *testing.T) {
	m := NewSyncMetrics(nil)
	m.ObserveRun("synced", time.Second, 1, 0)
}

package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiforesti/searchhub/internal/search"
)

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want LatencyBucket
	}{
		{5 * time.Millisecond, BucketP10},
		{10 * time.Millisecond, BucketP50},
		{75 * time.Millisecond, BucketP100},
		{200 * time.Millisecond, BucketP500},
		{2 * time.Second, BucketP1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LatencyToBucket(tt.d))
	}
}

func TestCircularBuffer_EvictsOldest(t *testing.T) {
	buf := NewCircularBuffer[string](3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		buf.Add(s)
	}

	assert.Equal(t, 3, buf.Size())
	assert.Equal(t, []string{"c", "d", "e"}, buf.Items())
}

func TestCircularBuffer_PartiallyFilled(t *testing.T) {
	buf := NewCircularBuffer[int](10)
	buf.Add(1)
	buf.Add(2)
	assert.Equal(t, []int{1, 2}, buf.Items())
}

func TestSearchMetrics_RecordSearch(t *testing.T) {
	m := NewSearchMetrics()

	m.RecordSearch(30*time.Millisecond, 12, []search.SourceStatus{
		{SourceID: "catalog", Status: search.StatusOK},
		{SourceID: "compliance", Status: search.StatusTimeout},
	})
	m.RecordSearch(5*time.Millisecond, 0, []search.SourceStatus{
		{SourceID: "catalog", Status: search.StatusError},
	})

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalSearches)
	assert.Equal(t, int64(1), snap.ZeroResultCount)
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP50])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP10])

	require.Contains(t, snap.SourceOutcomes, "catalog")
	assert.Equal(t, int64(1), snap.SourceOutcomes["catalog"].OK)
	assert.Equal(t, int64(1), snap.SourceOutcomes["catalog"].Error)
	assert.Equal(t, int64(1), snap.SourceOutcomes["compliance"].Timeout)
}

func TestSearchMetrics_ZeroResultPercentage(t *testing.T) {
	m := NewSearchMetrics()
	assert.Equal(t, 0.0, m.Snapshot().ZeroResultPercentage())

	m.RecordSearch(time.Millisecond, 0, nil)
	m.RecordSearch(time.Millisecond, 3, nil)
	m.RecordSearch(time.Millisecond, 0, nil)

	assert.InDelta(t, 66.6, m.Snapshot().ZeroResultPercentage(), 0.1)
}

func TestSearchMetrics_RecordZeroResultQuery(t *testing.T) {
	m := NewSearchMetrics()
	m.RecordZeroResultQuery("asdfgh")
	m.RecordZeroResultQuery("")

	snap := m.Snapshot()
	assert.Equal(t, []string{"asdfgh"}, snap.ZeroResultQueries)
}

func TestSearchMetrics_ConcurrentRecording(t *testing.T) {
	m := NewSearchMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordSearch(time.Millisecond, 1, []search.SourceStatus{
				{SourceID: "catalog", Status: search.StatusOK},
			})
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(50), snap.TotalSearches)
	assert.Equal(t, int64(50), snap.SourceOutcomes["catalog"].OK)
}

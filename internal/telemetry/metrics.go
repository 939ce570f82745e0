// Package telemetry collects local search telemetry: latency
// distribution, zero-result queries, and per-source outcome counts.
// Nothing is reported externally.
package telemetry

import (
	"sync"
	"time"

	"github.com/seiforesti/searchhub/internal/search"
)

// LatencyBucket is one histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	head     int
	size     int
	capacity int
}

// NewCircularBuffer creates a buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add appends an item, evicting the oldest when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns the buffer contents oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return []T{}
	}
	out := make([]T, b.size)
	if b.size < b.capacity {
		copy(out, b.items[:b.size])
	} else {
		copy(out, b.items[b.head:])
		copy(out[b.capacity-b.head:], b.items[:b.head])
	}
	return out
}

// Size returns the current item count.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// SourceCounts aggregates outcomes for one source across searches.
type SourceCounts struct {
	OK        int64 `json:"ok"`
	Timeout   int64 `json:"timeout"`
	Error     int64 `json:"error"`
	Skipped   int64 `json:"skipped"`
	Cancelled int64 `json:"cancelled"`
}

// Snapshot is an immutable view of collected metrics.
type Snapshot struct {
	TotalSearches       int64                   `json:"total_searches"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	SourceOutcomes      map[string]SourceCounts `json:"source_outcomes"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of searches with no results.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalSearches == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalSearches) * 100
}

// SearchMetrics collects search telemetry. Safe for concurrent use.
type SearchMetrics struct {
	mu sync.RWMutex

	total       int64
	zeroResults int64
	zeroQueries *CircularBuffer[string]
	latencies   map[LatencyBucket]int64
	sources     map[string]*SourceCounts
	startTime   time.Time
}

// NewSearchMetrics creates an empty collector.
func NewSearchMetrics() *SearchMetrics {
	return &SearchMetrics{
		zeroQueries: NewCircularBuffer[string](100),
		latencies:   make(map[LatencyBucket]int64),
		sources:     make(map[string]*SourceCounts),
		startTime:   time.Now(),
	}
}

// RecordSearch captures one completed search.
func (m *SearchMetrics) RecordSearch(took time.Duration, total int, statuses []search.SourceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.latencies[LatencyToBucket(took)]++
	if total == 0 {
		m.zeroResults++
	}

	for _, st := range statuses {
		sc, ok := m.sources[st.SourceID]
		if !ok {
			sc = &SourceCounts{}
			m.sources[st.SourceID] = sc
		}
		switch st.Status {
		case search.StatusOK:
			sc.OK++
		case search.StatusTimeout:
			sc.Timeout++
		case search.StatusError:
			sc.Error++
		case search.StatusSkipped:
			sc.Skipped++
		case search.StatusCancelled:
			sc.Cancelled++
		}
	}
}

// RecordZeroResultQuery remembers the text of a query with no results,
// for later relevance tuning.
func (m *SearchMetrics) RecordZeroResultQuery(text string) {
	if text == "" {
		return
	}
	m.zeroQueries.Add(text)
}

// Snapshot returns the current metrics.
func (m *SearchMetrics) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}
	sources := make(map[string]SourceCounts, len(m.sources))
	for id, sc := range m.sources {
		sources[id] = *sc
	}

	return &Snapshot{
		TotalSearches:       m.total,
		ZeroResultCount:     m.zeroResults,
		ZeroResultQueries:   m.zeroQueries.Items(),
		LatencyDistribution: latencies,
		SourceOutcomes:      sources,
		Since:               m.startTime,
	}
}

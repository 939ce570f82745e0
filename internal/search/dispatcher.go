package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/seiforesti/searchhub/internal/config"
	hberrors "github.com/seiforesti/searchhub/internal/errors"
	"github.com/seiforesti/searchhub/internal/registry"
	"github.com/seiforesti/searchhub/internal/source"
)

// SourceBatch pairs one source's raw results with its descriptor so the
// normalizer can apply source-level metadata.
type SourceBatch struct {
	Source  registry.SourceDescriptor
	Results []source.RawResult
}

// DispatchResult is the outcome of one concurrent fan-out.
type DispatchResult struct {
	Batches  []SourceBatch
	Statuses []SourceStatus

	// Superseded is true when the dispatch context was cancelled by a
	// newer query. Batches must be discarded by the caller in that case.
	Superseded bool
}

// Dispatcher fans a query out concurrently to source adapters.
//
// Each source call runs in its own goroutine against a per-source
// timeout; a timeout or error excludes that source without touching its
// siblings. A panicking adapter is recovered and recorded as a failure.
// Cancellation of the parent context stops the whole fan-out and yields
// an explicit superseded result instead of a partial page.
type Dispatcher struct {
	cfg config.DispatchConfig

	mu       sync.RWMutex
	adapters map[string]source.Adapter
	breakers map[string]*hberrors.CircuitBreaker
}

// NewDispatcher creates a dispatcher over the given adapters.
func NewDispatcher(cfg config.DispatchConfig, adapters []source.Adapter) *Dispatcher {
	m := make(map[string]source.Adapter, len(adapters))
	for _, a := range adapters {
		m[a.ID()] = a
	}
	return &Dispatcher{
		cfg:      cfg,
		adapters: m,
		breakers: make(map[string]*hberrors.CircuitBreaker),
	}
}

// Register adds or replaces the adapter for a source.
func (d *Dispatcher) Register(a source.Adapter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.adapters[a.ID()] = a
}

// breaker returns the circuit breaker for a source, creating it lazily.
func (d *Dispatcher) breaker(sourceID string) *hberrors.CircuitBreaker {
	d.mu.Lock()
	defer d.mu.Unlock()

	cb, ok := d.breakers[sourceID]
	if !ok {
		cb = hberrors.NewCircuitBreaker(sourceID,
			hberrors.WithMaxFailures(d.cfg.BreakerMaxFailures),
			hberrors.WithResetTimeout(d.cfg.BreakerResetTimeout))
		d.breakers[sourceID] = cb
	}
	return cb
}

func (d *Dispatcher) adapter(sourceID string) (source.Adapter, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.adapters[sourceID]
	return a, ok
}

// taskResult carries one source call's outcome back to the collector.
type taskResult struct {
	batch  *SourceBatch
	status SourceStatus
}

// Dispatch runs the query against every given source concurrently and
// waits for the slowest call or the per-source timeouts, whichever comes
// first. The returned batch order is insignificant; statuses are sorted
// by source id for reproducible logs.
func (d *Dispatcher) Dispatch(ctx context.Context, q Query, sources []registry.SourceDescriptor) (*DispatchResult, error) {
	if len(sources) == 0 {
		return &DispatchResult{}, nil
	}

	srcQuery := source.Query{
		Text:    q.Text,
		Filters: q.Filters,
		Limit:   d.fetchLimit(q),
	}

	var sem *semaphore.Weighted
	if d.cfg.MaxConcurrent > 0 {
		sem = semaphore.NewWeighted(int64(d.cfg.MaxConcurrent))
	}

	ch := make(chan taskResult, len(sources))
	var wg sync.WaitGroup

	for _, desc := range sources {
		wg.Add(1)
		go func(desc registry.SourceDescriptor) {
			defer wg.Done()
			ch <- d.callSource(ctx, desc, srcQuery, sem)
		}(desc)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	result := &DispatchResult{}
	for tr := range ch {
		result.Statuses = append(result.Statuses, tr.status)
		if tr.batch != nil {
			result.Batches = append(result.Batches, *tr.batch)
		}
	}

	// A cancelled parent context means a newer query superseded this
	// one: whatever arrived must not be served as a partial page.
	if errors.Is(ctx.Err(), context.Canceled) {
		for i := range result.Statuses {
			result.Statuses[i].Status = StatusCancelled
		}
		result.Batches = nil
		result.Superseded = true
	}

	sort.Slice(result.Statuses, func(i, j int) bool {
		return result.Statuses[i].SourceID < result.Statuses[j].SourceID
	})

	return result, nil
}

// callSource runs one adapter call with timeout, breaker, optional
// retry, and panic isolation.
func (d *Dispatcher) callSource(ctx context.Context, desc registry.SourceDescriptor, q source.Query, sem *semaphore.Weighted) (tr taskResult) {
	start := time.Now()
	tr.status = SourceStatus{SourceID: desc.ID, Status: StatusError}

	defer func() {
		if r := recover(); r != nil {
			// One misbehaving adapter must not take down the fan-out.
			slog.Error("source adapter panicked",
				slog.String("source", desc.ID),
				slog.Any("panic", r))
			tr.batch = nil
			tr.status.Status = StatusError
			tr.status.Error = hberrors.New(hberrors.ErrCodeAdapterPanic,
				fmt.Sprintf("panic: %v", r), nil).Error()
		}
		tr.status.Took = time.Since(start)
	}()

	adapter, ok := d.adapter(desc.ID)
	if !ok {
		tr.status.Status = StatusSkipped
		tr.status.Error = "no adapter registered"
		return tr
	}

	cb := d.breaker(desc.ID)
	if !cb.Allow() {
		tr.status.Status = StatusSkipped
		tr.status.Error = hberrors.ErrCircuitOpen.Error()
		return tr
	}

	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			tr.status.Status = StatusCancelled
			tr.status.Error = err.Error()
			return tr
		}
		defer sem.Release(1)
	}

	timeout := d.cfg.PerSourceTimeout
	if desc.Timeout > 0 {
		timeout = time.Duration(desc.Timeout)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	call := func() ([]source.RawResult, error) {
		return adapter.Search(callCtx, q)
	}

	var results []source.RawResult
	var err error
	if d.cfg.MaxRetries > 0 {
		retryCfg := hberrors.DefaultRetryConfig()
		retryCfg.MaxRetries = d.cfg.MaxRetries
		results, err = hberrors.RetryWithResult(callCtx, retryCfg, call)
	} else {
		results, err = call()
	}

	switch {
	case err == nil:
		cb.RecordSuccess()
		tr.status.Status = StatusOK
		tr.status.Count = len(results)
		tr.batch = &SourceBatch{Source: desc, Results: results}

	case errors.Is(ctx.Err(), context.Canceled):
		// Parent cancelled: superseded, not a source fault.
		tr.status.Status = StatusCancelled
		tr.status.Error = ctx.Err().Error()

	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		cb.RecordFailure()
		tr.status.Status = StatusTimeout
		tr.status.Error = hberrors.TimeoutError(desc.ID, err).Error()
		slog.Warn("source timed out",
			slog.String("source", desc.ID),
			slog.Duration("timeout", timeout))

	default:
		cb.RecordFailure()
		tr.status.Status = StatusError
		tr.status.Error = hberrors.SourceError(desc.ID, err.Error(), err).Error()
		slog.Warn("source failed",
			slog.String("source", desc.ID),
			slog.String("error", err.Error()))
	}

	return tr
}

// fetchLimit asks sources for more than one page so ranking has enough
// candidates to fill the requested page after merging and filtering.
func (d *Dispatcher) fetchLimit(q Query) int {
	limit := q.Limit
	if limit <= 0 {
		limit = d.cfg.DefaultLimit
	}
	if limit > d.cfg.MaxLimit {
		limit = d.cfg.MaxLimit
	}
	return limit*2 + q.Offset
}

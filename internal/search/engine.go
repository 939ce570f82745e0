package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/seiforesti/searchhub/internal/config"
	hberrors "github.com/seiforesti/searchhub/internal/errors"
	"github.com/seiforesti/searchhub/internal/registry"
)

// PopularityProvider supplies engagement-derived popularity scores for
// unified result ids, each in [0,1].
type PopularityProvider interface {
	Popularity(ctx context.Context, resultIDs []string) (map[string]float64, error)
}

// AISignal supplies an opaque semantic relevance score in [0,1] per
// unified result id. A nil or failing signal contributes zero to every
// composite score without renormalizing the other weights.
type AISignal interface {
	Score(ctx context.Context, queryText string, results []NormalizedResult) (map[string]float64, error)
}

// QueryRecorder captures executed queries for history-based suggestions.
type QueryRecorder interface {
	RecordQuery(ctx context.Context, callerID, queryText string) error
}

// Metrics receives per-search observations.
type Metrics interface {
	RecordSearch(took time.Duration, total int, statuses []SourceStatus)
}

// Engine orchestrates one search end to end: access filtering,
// concurrent dispatch, normalization, scoring, faceting, and paging.
type Engine struct {
	cfg        *config.Config
	reg        *registry.Registry
	dispatcher *Dispatcher
	normalizer *Normalizer
	ranker     *Ranker

	popularity PopularityProvider
	ai         AISignal
	recorder   QueryRecorder
	metrics    Metrics
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithPopularity wires an engagement popularity provider.
func WithPopularity(p PopularityProvider) EngineOption {
	return func(e *Engine) { e.popularity = p }
}

// WithAISignal wires a semantic relevance signal.
func WithAISignal(s AISignal) EngineOption {
	return func(e *Engine) { e.ai = s }
}

// WithRecorder wires a query history recorder.
func WithRecorder(r QueryRecorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// WithMetrics wires a metrics sink.
func WithMetrics(m Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates a search engine over the given registry and
// dispatcher.
func NewEngine(cfg *config.Config, reg *registry.Registry, d *Dispatcher, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:        cfg,
		reg:        reg,
		dispatcher: d,
		normalizer: NewNormalizer(),
		ranker:     NewRanker(cfg.Scoring),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry exposes the engine's source registry.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Search runs one query for one caller and returns a ranked, faceted,
// paginated response. Only sources the caller's capabilities admit are
// consulted; a scope naming unknown or denied sources silently narrows
// to the admissible intersection. Per-source failures degrade the
// response rather than failing it; only dispatch-level faults return an
// error.
func (e *Engine) Search(ctx context.Context, q Query, caller Caller) (*Response, error) {
	start := time.Now()
	e.applyDefaults(&q)

	sources := e.eligibleSources(q, caller)

	if e.cfg.Dispatch.GlobalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Dispatch.GlobalTimeout)
		defer cancel()
	}

	dr, err := e.dispatcher.Dispatch(ctx, q, sources)
	if err != nil {
		return nil, hberrors.Wrap(hberrors.ErrCodeDispatchFailed, err)
	}

	if dr.Superseded {
		return &Response{
			Status:  SessionSuperseded,
			Sources: dr.Statuses,
			TookMs:  time.Since(start).Milliseconds(),
			Facets:  Facets{},
			Results: []*NormalizedResult{},
		}, nil
	}

	results, dropped := e.normalizer.Normalize(dr.Batches)
	e.enrich(ctx, q, results)
	e.ranker.Score(results)

	// Facets describe the full admissible set, before caller filters.
	facets := ComputeFacets(results)

	filtered := ApplyFilters(results, q.Filters)
	e.ranker.Sort(filtered, q.SortMode)

	total := len(filtered)
	page := paginate(filtered, q.Offset, q.Limit)

	resp := &Response{
		Results: page,
		Facets:  facets,
		Total:   total,
		TookMs:  time.Since(start).Milliseconds(),
		Sources: dr.Statuses,
		Dropped: dropped,
		Status:  SessionComplete,
	}

	e.record(ctx, q, caller)
	if e.metrics != nil {
		e.metrics.RecordSearch(time.Since(start), total, dr.Statuses)
		if total == 0 {
			if zr, ok := e.metrics.(interface{ RecordZeroResultQuery(string) }); ok {
				zr.RecordZeroResultQuery(strings.TrimSpace(q.Text))
			}
		}
	}

	slog.Info("search completed",
		slog.String("caller", caller.ID),
		slog.Int("sources", len(sources)),
		slog.Int("total", total),
		slog.Int64("took_ms", resp.TookMs))

	return resp, nil
}

// applyDefaults clamps paging to configured bounds.
func (e *Engine) applyDefaults(q *Query) {
	if q.Limit <= 0 {
		q.Limit = e.cfg.Dispatch.DefaultLimit
	}
	if q.Limit > e.cfg.Dispatch.MaxLimit {
		q.Limit = e.cfg.Dispatch.MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.SortMode == "" {
		q.SortMode = SortRelevance
	}
}

// eligibleSources intersects the caller's accessible sources with the
// query's scope. Sources the caller may not see are omitted without any
// indication, so a response never reveals their existence.
func (e *Engine) eligibleSources(q Query, caller Caller) []registry.SourceDescriptor {
	accessible := e.reg.Accessible(caller.Capabilities)
	if len(q.SourceScope) == 0 {
		return accessible
	}

	scoped := make(map[string]bool, len(q.SourceScope))
	for _, id := range q.SourceScope {
		scoped[id] = true
	}

	out := accessible[:0:0]
	for _, desc := range accessible {
		if scoped[desc.ID] {
			out = append(out, desc)
		}
	}
	return out
}

// enrich fills popularity and AI components. Both signals are best
// effort: a failure leaves the component at zero and the search goes on.
func (e *Engine) enrich(ctx context.Context, q Query, results []NormalizedResult) {
	if len(results) == 0 {
		return
	}

	if e.popularity != nil {
		ids := make([]string, len(results))
		for i := range results {
			ids[i] = results[i].ID
		}
		pops, err := e.popularity.Popularity(ctx, ids)
		if err != nil {
			slog.Warn("popularity lookup failed", slog.String("error", err.Error()))
		} else {
			for i := range results {
				results[i].Score.Popularity = clamp01(pops[results[i].ID])
			}
		}
	}

	if e.ai != nil {
		scores, err := e.ai.Score(ctx, q.Text, results)
		if err != nil {
			slog.Warn("ai signal unavailable", slog.String("error", err.Error()))
		} else {
			for i := range results {
				results[i].Score.AI = clamp01(scores[results[i].ID])
			}
		}
	}
}

func (e *Engine) record(ctx context.Context, q Query, caller Caller) {
	if e.recorder == nil {
		return
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return
	}
	// History persists past the request's own lifetime.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := e.recorder.RecordQuery(rctx, caller.ID, text); err != nil {
		slog.Warn("query history write failed", slog.String("error", err.Error()))
	}
}

func paginate(results []NormalizedResult, offset, limit int) []*NormalizedResult {
	if offset >= len(results) {
		return []*NormalizedResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	page := make([]*NormalizedResult, 0, end-offset)
	for i := offset; i < end; i++ {
		page = append(page, &results[i])
	}
	return page
}

// Package suggest produces typed query suggestions from concurrent
// candidate generators. Generators are independent and best effort: a
// slow or failing generator drops out of one response without affecting
// the others.
package suggest

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/seiforesti/searchhub/internal/config"
	"github.com/seiforesti/searchhub/internal/search"
)

// Origin identifies which kind of generator produced a candidate.
type Origin string

const (
	OriginHistory    Origin = "history"
	OriginPopular    Origin = "popular"
	OriginContextual Origin = "contextual"
	OriginAI         Origin = "ai"
)

// Candidate is one suggestion with its provenance.
type Candidate struct {
	Text   string `json:"text"`
	Origin Origin `json:"origin"`

	// Weight is the generator's own confidence in [0,1].
	Weight float64 `json:"weight"`

	// OccurrenceCount is how often this text was seen, when the
	// generator tracks that.
	OccurrenceCount int `json:"occurrence_count,omitempty"`
}

// Generator produces suggestion candidates for a prefix. Generators
// see the full caller so capability-gated material never reaches a
// caller who could not search its source.
type Generator interface {
	Origin() Origin
	Generate(ctx context.Context, caller search.Caller, prefix string, limit int) ([]Candidate, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc struct {
	Kind Origin
	Fn   func(ctx context.Context, caller search.Caller, prefix string, limit int) ([]Candidate, error)
}

func (g GeneratorFunc) Origin() Origin { return g.Kind }

func (g GeneratorFunc) Generate(ctx context.Context, caller search.Caller, prefix string, limit int) ([]Candidate, error) {
	return g.Fn(ctx, caller, prefix, limit)
}

// Engine fans a prefix out to all generators and merges their candidates.
type Engine struct {
	cfg        config.SuggestConfig
	generators []Generator
}

// NewEngine creates a suggestion engine over the given generators.
func NewEngine(cfg config.SuggestConfig, generators ...Generator) *Engine {
	return &Engine{cfg: cfg, generators: generators}
}

// Suggest returns ranked, deduplicated suggestions for a prefix. All
// generators run concurrently, each against its own timeout.
func (e *Engine) Suggest(ctx context.Context, caller search.Caller, prefix string) []Candidate {
	limit := e.cfg.DefaultLimit
	if limit <= 0 {
		limit = 10
	}

	ch := make(chan []Candidate, len(e.generators))
	var wg sync.WaitGroup

	for _, g := range e.generators {
		wg.Add(1)
		go func(g Generator) {
			defer wg.Done()
			ch <- e.runGenerator(ctx, g, caller, prefix, limit)
		}(g)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []Candidate
	for batch := range ch {
		all = append(all, batch...)
	}

	merged := e.merge(all)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func (e *Engine) runGenerator(ctx context.Context, g Generator, caller search.Caller, prefix string, limit int) (out []Candidate) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("suggestion generator panicked",
				slog.String("origin", string(g.Origin())),
				slog.Any("panic", r))
			out = nil
		}
	}()

	timeout := e.cfg.GeneratorTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	gctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	candidates, err := g.Generate(gctx, caller, prefix, limit)
	if err != nil {
		slog.Debug("suggestion generator failed",
			slog.String("origin", string(g.Origin())),
			slog.String("error", err.Error()))
		return nil
	}

	for i := range candidates {
		candidates[i].Origin = g.Origin()
		candidates[i].Text = strings.TrimSpace(candidates[i].Text)
	}
	return candidates
}

// merge deduplicates candidates case-insensitively and ranks them.
// A duplicate keeps the text of the highest-prior origin and the
// maximum occurrence count across origins.
func (e *Engine) merge(all []Candidate) []Candidate {
	byKey := make(map[string]Candidate)
	for _, c := range all {
		if c.Text == "" {
			continue
		}
		key := strings.ToLower(c.Text)
		best, ok := byKey[key]
		if !ok {
			byKey[key] = c
			continue
		}
		if c.OccurrenceCount > best.OccurrenceCount {
			best.OccurrenceCount = c.OccurrenceCount
		}
		if e.rank(c) > e.rank(best) {
			occ := best.OccurrenceCount
			best = c
			if occ > best.OccurrenceCount {
				best.OccurrenceCount = occ
			}
		}
		byKey[key] = best
	}

	merged := make([]Candidate, 0, len(byKey))
	for _, c := range byKey {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool {
		ri, rj := e.rank(merged[i]), e.rank(merged[j])
		if ri != rj {
			return ri > rj
		}
		if merged[i].OccurrenceCount != merged[j].OccurrenceCount {
			return merged[i].OccurrenceCount > merged[j].OccurrenceCount
		}
		return strings.ToLower(merged[i].Text) < strings.ToLower(merged[j].Text)
	})
	return merged
}

// rank combines a candidate's own weight with its origin prior.
func (e *Engine) rank(c Candidate) float64 {
	return e.prior(c.Origin) * (0.5 + 0.5*clamp01(c.Weight))
}

func (e *Engine) prior(o Origin) float64 {
	switch o {
	case OriginAI:
		return e.cfg.AIPrior
	case OriginContextual:
		return e.cfg.ContextualPrior
	case OriginPopular:
		return e.cfg.PopularPrior
	case OriginHistory:
		return e.cfg.HistoryPrior
	default:
		return 0.1
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

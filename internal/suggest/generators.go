package suggest

import (
	"context"
	"strings"

	"github.com/seiforesti/searchhub/internal/history"
	"github.com/seiforesti/searchhub/internal/registry"
	"github.com/seiforesti/searchhub/internal/search"
)

// NewHistoryGenerator suggests the caller's own past queries.
func NewHistoryGenerator(p history.Provider) Generator {
	return GeneratorFunc{
		Kind: OriginHistory,
		Fn: func(ctx context.Context, caller search.Caller, prefix string, limit int) ([]Candidate, error) {
			stats, err := p.RecentQueries(ctx, caller.ID, prefix, limit)
			if err != nil {
				return nil, err
			}
			return statsToCandidates(stats), nil
		},
	}
}

// NewPopularGenerator suggests queries frequent across all callers.
func NewPopularGenerator(p history.Provider) Generator {
	return GeneratorFunc{
		Kind: OriginPopular,
		Fn: func(ctx context.Context, caller search.Caller, prefix string, limit int) ([]Candidate, error) {
			stats, err := p.PopularQueries(ctx, prefix, limit)
			if err != nil {
				return nil, err
			}
			return statsToCandidates(stats), nil
		},
	}
}

// NewContextualGenerator suggests source names and categories that
// match the prefix. These are structural completions the console can
// turn directly into scoped searches. Only sources the caller's
// capabilities admit contribute: a suggestion must never reveal a
// source the caller could not search.
func NewContextualGenerator(reg *registry.Registry) Generator {
	return GeneratorFunc{
		Kind: OriginContextual,
		Fn: func(ctx context.Context, caller search.Caller, prefix string, limit int) ([]Candidate, error) {
			p := strings.ToLower(strings.TrimSpace(prefix))
			seen := make(map[string]bool)
			var out []Candidate

			add := func(text string, weight float64) {
				key := strings.ToLower(text)
				if seen[key] || text == "" {
					return
				}
				if p != "" && !strings.HasPrefix(key, p) {
					return
				}
				seen[key] = true
				out = append(out, Candidate{Text: text, Weight: weight})
			}

			for _, desc := range reg.Accessible(caller.Capabilities) {
				add(desc.DisplayName, 0.9)
				for _, cat := range desc.Categories {
					add(cat, 0.6)
				}
				if len(out) >= limit {
					break
				}
			}
			return out, nil
		},
	}
}

// AICompleter produces free-form completions for a prefix.
type AICompleter interface {
	Complete(ctx context.Context, prefix string, limit int) ([]string, error)
}

// NewAIGenerator wraps an AI completion backend as a generator.
func NewAIGenerator(c AICompleter) Generator {
	return GeneratorFunc{
		Kind: OriginAI,
		Fn: func(ctx context.Context, caller search.Caller, prefix string, limit int) ([]Candidate, error) {
			texts, err := c.Complete(ctx, prefix, limit)
			if err != nil {
				return nil, err
			}
			out := make([]Candidate, 0, len(texts))
			for _, t := range texts {
				out = append(out, Candidate{Text: t, Weight: 0.8})
			}
			return out, nil
		},
	}
}

func statsToCandidates(stats []history.QueryStat) []Candidate {
	out := make([]Candidate, 0, len(stats))
	for i, s := range stats {
		// Earlier rows ranked higher by the store; decay weight with
		// position so that order survives merging.
		w := 1.0 - float64(i)*0.05
		if w < 0.5 {
			w = 0.5
		}
		out = append(out, Candidate{
			Text:            s.Text,
			Weight:          w,
			OccurrenceCount: s.Count,
		})
	}
	return out
}

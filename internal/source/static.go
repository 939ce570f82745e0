package source

import (
	"context"
	"sort"
	"strings"
)

// StaticAdapter serves a fixed result set with naive substring matching.
// It backs tiny curated sources (a glossary, a link directory) and is
// the standard stub in dispatcher tests.
type StaticAdapter struct {
	id      string
	results []RawResult
}

// NewStaticAdapter creates an adapter over a fixed result list.
func NewStaticAdapter(id string, results []RawResult) *StaticAdapter {
	return &StaticAdapter{id: id, results: results}
}

// ID implements Adapter.
func (a *StaticAdapter) ID() string { return a.id }

// Search implements Adapter. Matching is case-insensitive over title
// and description; relevance reflects where the match landed.
func (a *StaticAdapter) Search(ctx context.Context, q Query) ([]RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.ToLower(strings.TrimSpace(q.Text))

	var out []RawResult
	for _, r := range a.results {
		if text == "" {
			out = append(out, r)
			continue
		}
		title := strings.ToLower(r.Title)
		desc := strings.ToLower(r.Description)
		switch {
		case strings.Contains(title, text):
			r.SourceRelevance = 1.0
			out = append(out, r)
		case strings.Contains(desc, text):
			r.SourceRelevance = 0.6
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SourceRelevance > out[j].SourceRelevance
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

package search

import (
	"sort"
	"time"

	"github.com/seiforesti/searchhub/internal/config"
)

// Ranker computes composite scores and orders results deterministically.
//
// The composite score is a weighted sum of the per-result signals; a
// missing signal contributes zero without renormalizing the remaining
// weights, so scores stay comparable across queries whether or not an
// AI signal was available.
type Ranker struct {
	weights config.ScoringConfig
	now     func() time.Time
}

// NewRanker creates a ranker with the given weights.
func NewRanker(weights config.ScoringConfig) *Ranker {
	return &Ranker{weights: weights, now: time.Now}
}

// Score fills CompositeScore on every result.
func (r *Ranker) Score(results []NormalizedResult) {
	now := r.now()
	for i := range results {
		res := &results[i]
		res.Score.Recency = recency(res.LastModified, now)
		res.CompositeScore = r.composite(res)
	}
}

func (r *Ranker) composite(res *NormalizedResult) float64 {
	return res.Score.SourceRelevance*res.sourceWeight*r.weights.RelevanceWeight +
		res.Score.Recency*r.weights.RecencyWeight +
		res.Score.Popularity*r.weights.PopularityWeight +
		res.Score.AI*r.weights.AIWeight
}

// Sort orders results in place by the given mode. Ties break on last
// modified descending, then unified id ascending, so any input
// permutation yields the same ordering.
func (r *Ranker) Sort(results []NormalizedResult, mode SortMode) {
	var key func(a, b *NormalizedResult) (float64, float64)
	switch mode {
	case SortRecency:
		key = func(a, b *NormalizedResult) (float64, float64) {
			return a.Score.Recency, b.Score.Recency
		}
	case SortPopularity:
		key = func(a, b *NormalizedResult) (float64, float64) {
			return a.Score.Popularity, b.Score.Popularity
		}
	default:
		key = func(a, b *NormalizedResult) (float64, float64) {
			return a.CompositeScore, b.CompositeScore
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		ka, kb := key(a, b)
		if ka != kb {
			return ka > kb
		}
		if !a.LastModified.Equal(b.LastModified) {
			return a.LastModified.After(b.LastModified)
		}
		return a.ID < b.ID
	})
}

// recency maps a last-modified time to [0,1]: 1.0 for just-modified,
// decaying as 1/(1+days). A zero time scores zero.
func recency(lastModified, now time.Time) float64 {
	if lastModified.IsZero() {
		return 0
	}
	days := now.Sub(lastModified).Hours() / 24
	if days < 0 {
		days = 0
	}
	return 1 / (1 + days)
}

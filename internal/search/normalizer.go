package search

import (
	"log/slog"
	"strings"

	"github.com/seiforesti/searchhub/internal/registry"
	"github.com/seiforesti/searchhub/internal/source"
)

// Normalizer converts per-source raw rows into the unified result shape.
//
// Malformed rows (missing id or title) are dropped and counted rather
// than failing the batch; duplicates within a source keep the higher
// source relevance.
type Normalizer struct{}

// NewNormalizer creates a normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize flattens all batches into unified results. The second
// return value is the number of rows dropped as malformed.
func (n *Normalizer) Normalize(batches []SourceBatch) ([]NormalizedResult, int) {
	var out []NormalizedResult
	dropped := 0
	seen := make(map[string]int) // unified id -> index in out

	for _, batch := range batches {
		for _, raw := range batch.Results {
			nr, ok := n.normalizeOne(batch.Source, raw)
			if !ok {
				dropped++
				continue
			}
			if idx, dup := seen[nr.ID]; dup {
				if nr.Score.SourceRelevance > out[idx].Score.SourceRelevance {
					out[idx] = nr
				}
				continue
			}
			seen[nr.ID] = len(out)
			out = append(out, nr)
		}
	}

	if dropped > 0 {
		slog.Warn("dropped malformed rows", slog.Int("count", dropped))
	}
	return out, dropped
}

func (n *Normalizer) normalizeOne(desc registry.SourceDescriptor, raw source.RawResult) (NormalizedResult, bool) {
	id := strings.TrimSpace(raw.ID)
	title := strings.TrimSpace(raw.Title)
	if id == "" || title == "" {
		slog.Debug("malformed row",
			slog.String("source", desc.ID),
			slog.String("id", raw.ID))
		return NormalizedResult{}, false
	}

	category := raw.Category
	if category == "" && len(desc.Categories) > 0 {
		category = desc.Categories[0]
	}

	return NormalizedResult{
		ID:           desc.ID + "/" + id,
		NativeID:     id,
		Title:        title,
		Description:  raw.Description,
		URL:          raw.URL,
		SourceID:     desc.ID,
		Category:     category,
		ResultType:   resultType(category),
		LastModified: raw.LastModified,
		Score: ScoreComponents{
			SourceRelevance: clamp01(raw.SourceRelevance),
		},
		Metadata:     raw.Metadata,
		sourceWeight: desc.DisplayWeight,
	}, true
}

// resultType buckets a category into a coarse type used for faceting.
func resultType(category string) string {
	switch strings.ToLower(category) {
	case "table", "view", "column", "schema", "dataset":
		return "asset"
	case "policy", "rule", "requirement":
		return "policy"
	case "glossary", "term", "tag":
		return "term"
	case "":
		return "other"
	default:
		return strings.ToLower(category)
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

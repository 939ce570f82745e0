// Package history persists query history and result engagement, backing
// history/popular suggestions and the popularity ranking signal.
package history

import (
	"context"
)

// QueryStat is one remembered query with its occurrence count.
type QueryStat struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// Provider is the history surface the suggestion and ranking layers
// consume.
type Provider interface {
	// RecordQuery remembers one executed query for a caller.
	RecordQuery(ctx context.Context, callerID, queryText string) error

	// RecordClick increments the engagement count for a result.
	RecordClick(ctx context.Context, resultID string) error

	// RecentQueries returns the caller's own past queries matching the
	// prefix, most recent first.
	RecentQueries(ctx context.Context, callerID, prefix string, limit int) ([]QueryStat, error)

	// PopularQueries returns queries matching the prefix across all
	// callers, most frequent first.
	PopularQueries(ctx context.Context, prefix string, limit int) ([]QueryStat, error)

	// Popularity returns engagement-derived scores in [0,1] for the
	// given unified result ids. Ids with no recorded clicks map to 0.
	Popularity(ctx context.Context, resultIDs []string) (map[string]float64, error)

	// Close releases the underlying store.
	Close() error
}

// NullProvider is a Provider that remembers nothing. It stands in when
// no database path is configured.
type NullProvider struct{}

func (NullProvider) RecordQuery(context.Context, string, string) error { return nil }
func (NullProvider) RecordClick(context.Context, string) error         { return nil }

func (NullProvider) RecentQueries(context.Context, string, string, int) ([]QueryStat, error) {
	return nil, nil
}

func (NullProvider) PopularQueries(context.Context, string, int) ([]QueryStat, error) {
	return nil, nil
}

func (NullProvider) Popularity(context.Context, []string) (map[string]float64, error) {
	return map[string]float64{}, nil
}

func (NullProvider) Close() error { return nil }

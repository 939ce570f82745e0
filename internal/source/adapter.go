// Package source defines the outbound adapter contract every federated
// source implements, plus the adapters shipped with searchhub.
//
// Adapters must honor context cancellation and must not retry
// internally: retries, when enabled, are a dispatcher-level concern.
package source

import (
	"context"
	"time"
)

// Query is the slice of a search request an individual source sees.
type Query struct {
	// Text is the raw user input. May be empty.
	Text string

	// Filters maps facet name to accepted values.
	Filters map[string][]string

	// Limit caps how many results the source should return.
	Limit int
}

// RawResult is the native result shape returned by one source adapter.
// It is owned by the adapter call and converted immediately by the
// normalizer; adapters must not retain it.
type RawResult struct {
	ID              string
	Title           string
	Description     string
	URL             string
	Category        string
	LastModified    time.Time // zero value means unknown
	SourceRelevance float64   // source-local score in [0,1]
	Metadata        Metadata
}

// Adapter queries one federated source.
type Adapter interface {
	// ID returns the source id this adapter serves. It must match a
	// SourceDescriptor id in the registry.
	ID() string

	// Search runs the query against the source. Implementations must
	// return promptly when ctx is cancelled.
	Search(ctx context.Context, q Query) ([]RawResult, error)
}

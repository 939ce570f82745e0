// Package search implements the federated search aggregation engine:
// concurrent dispatch to permission-gated sources, normalization of
// heterogeneous result shapes, composite relevance ranking, and facet
// computation.
package search

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/seiforesti/searchhub/internal/source"
)

// SortMode selects how results are ordered.
type SortMode string

const (
	// SortRelevance orders by the composite score (default).
	SortRelevance SortMode = "relevance"
	// SortRecency orders by the recency component alone.
	SortRecency SortMode = "recency"
	// SortPopularity orders by the popularity component alone.
	SortPopularity SortMode = "popularity"
)

// Query is one immutable search request.
type Query struct {
	// Text is the raw user input. May be empty.
	Text string `json:"text"`

	// Filters maps facet group name to accepted values. Filtering is a
	// conjunction across groups and a disjunction within a group.
	Filters map[string][]string `json:"filters,omitempty"`

	// SourceScope restricts the query to a subset of source ids.
	// Empty means all accessible sources.
	SourceScope []string `json:"source_scope,omitempty"`

	// SortMode selects the ordering. Empty means relevance.
	SortMode SortMode `json:"sort_mode,omitempty"`

	// Limit is the page size; Offset the page start.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Fingerprint returns a canonical hash of the query's dispatch-relevant
// fields (text, filters, scope). Two queries with equal fingerprints can
// share one in-flight dispatch; pagination and sort are applied after
// dispatch, so they do not participate.
func (q Query) Fingerprint() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(q.Text))
	b.WriteByte(0)

	groups := make([]string, 0, len(q.Filters))
	for g := range q.Filters {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		vals := append([]string(nil), q.Filters[g]...)
		sort.Strings(vals)
		b.WriteString(g)
		b.WriteByte('=')
		b.WriteString(strings.Join(vals, ","))
		b.WriteByte(0)
	}

	scope := append([]string(nil), q.SourceScope...)
	sort.Strings(scope)
	b.WriteString(strings.Join(scope, ","))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}

// Caller identifies the authenticated user a request runs as.
// Capabilities gate which sources the access filter admits.
type Caller struct {
	ID           string          `json:"id"`
	Capabilities map[string]bool `json:"capabilities,omitempty"`
}

// CapabilityFingerprint returns a canonical hash of the caller's held
// capabilities. Two callers with equal fingerprints are admitted to
// exactly the same sources, so their dispatches are interchangeable.
func (c Caller) CapabilityFingerprint() string {
	caps := make([]string, 0, len(c.Capabilities))
	for name, held := range c.Capabilities {
		if held {
			caps = append(caps, name)
		}
	}
	sort.Strings(caps)

	sum := sha256.Sum256([]byte(strings.Join(caps, "\x00")))
	return hex.EncodeToString(sum[:16])
}

// ScoreComponents holds the individual signals behind a composite score.
// All components are in [0,1].
type ScoreComponents struct {
	SourceRelevance float64 `json:"source_relevance"`
	Recency         float64 `json:"recency"`
	Popularity      float64 `json:"popularity"`
	AI              float64 `json:"ai"`
}

// NormalizedResult is the common result record every source maps into.
// Created once per search and discarded after the response is sent.
type NormalizedResult struct {
	// ID is globally unique within a response: sourceID + "/" + native id.
	ID string `json:"id"`

	// NativeID is the id the source itself returned.
	NativeID string `json:"native_id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	SourceID    string `json:"source_id"`
	Category    string `json:"category,omitempty"`
	ResultType  string `json:"result_type,omitempty"`

	// LastModified is zero when the source reported none.
	LastModified time.Time `json:"last_modified,omitempty"`

	Score          ScoreComponents `json:"score"`
	CompositeScore float64         `json:"composite_score"`

	Metadata source.Metadata `json:"metadata,omitempty"`

	// sourceWeight is the descriptor's display weight, carried for scoring.
	sourceWeight float64
}

// StatusKind classifies the outcome of one source call.
type StatusKind string

const (
	StatusOK        StatusKind = "ok"
	StatusTimeout   StatusKind = "timeout"
	StatusError     StatusKind = "error"
	StatusSkipped   StatusKind = "skipped"
	StatusCancelled StatusKind = "cancelled"
)

// SourceStatus records the outcome of one source call for observability.
// The set of included and excluded sources for a dispatch is reproducible
// from this log.
type SourceStatus struct {
	SourceID string        `json:"source_id"`
	Status   StatusKind    `json:"status"`
	Error    string        `json:"error,omitempty"`
	Took     time.Duration `json:"took"`
	Count    int           `json:"count"`
}

// SessionStatus labels a whole response.
type SessionStatus string

const (
	// SessionComplete marks a fully delivered result page. Some sources
	// may still have failed individually; see the status log.
	SessionComplete SessionStatus = "complete"
	// SessionSuperseded marks a response whose dispatch was cancelled by
	// a newer query from the same caller. The caller must discard it.
	SessionSuperseded SessionStatus = "superseded"
	// SessionFailed marks a request that aborted on a fatal error.
	SessionFailed SessionStatus = "failed"
)

// Facets holds per-group value counts computed on the pre-filter set.
type Facets map[string]map[string]int

// Response is the ranked, paginated answer to one search request.
type Response struct {
	Results []*NormalizedResult `json:"results"`

	// Facets are computed on the scope- and access-restricted set
	// before caller filters apply, so counts show what filtering
	// further would yield.
	Facets Facets `json:"facets"`

	// Total is the number of results after filtering, before paging.
	Total int `json:"total"`

	TookMs int64 `json:"took_ms"`

	// Sources is the per-source status log for this dispatch.
	Sources []SourceStatus `json:"sources"`

	// Dropped counts malformed records discarded during normalization.
	Dropped int `json:"dropped,omitempty"`

	Status SessionStatus `json:"status"`
}

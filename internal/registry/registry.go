// Package registry holds the catalog of federated search sources and the
// capability-based access filter over it.
//
// The registry is immutable at request time. Administrative reload swaps
// the whole source set atomically; in-flight requests keep the snapshot
// they started with.
package registry

import (
	"fmt"
	"sort"
	"sync"

	hberrors "github.com/seiforesti/searchhub/internal/errors"
)

// SourceDescriptor identifies one federated source.
// Descriptors are created at load time and never mutated.
type SourceDescriptor struct {
	// ID is the unique source identifier (e.g., "catalog", "compliance").
	ID string `yaml:"id" json:"id"`

	// DisplayName is the human-readable source name.
	DisplayName string `yaml:"display_name" json:"display_name"`

	// DisplayWeight is the source-level relevance multiplier.
	DisplayWeight float64 `yaml:"display_weight" json:"display_weight"`

	// Categories this source contributes results to.
	Categories []string `yaml:"categories" json:"categories"`

	// SearchableFields is the ordered, informational list of fields the
	// source matches against.
	SearchableFields []string `yaml:"searchable_fields" json:"searchable_fields"`

	// AccessRequirement is the capability needed to query this source.
	// Empty means public.
	AccessRequirement string `yaml:"access_requirement" json:"access_requirement"`

	// Timeout overrides the dispatcher's per-source timeout when > 0.
	Timeout Duration `yaml:"timeout" json:"timeout"`

	// Kind selects the adapter implementation: "http", "bleve", or
	// "static". Empty means http.
	Kind string `yaml:"kind" json:"kind,omitempty"`

	// Endpoint is the search URL for http sources.
	Endpoint string `yaml:"endpoint" json:"-"`

	// SeedPath is a JSON document file for bleve and static sources.
	SeedPath string `yaml:"seed_path" json:"-"`
}

// Public reports whether the source requires no capability.
func (s SourceDescriptor) Public() bool {
	return s.AccessRequirement == ""
}

// HasCategory reports whether the source declares the given category.
func (s SourceDescriptor) HasCategory(category string) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Registry is a read-only snapshot-swapped catalog of sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourceDescriptor
	order   []string
}

// New creates a registry from the given descriptors.
// Duplicate ids and non-positive display weights are rejected.
func New(sources []SourceDescriptor) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(sources); err != nil {
		return nil, err
	}
	return r, nil
}

// Replace atomically swaps the full source set. Used by the
// administrative reload path; request paths only read.
func (r *Registry) Replace(sources []SourceDescriptor) error {
	m := make(map[string]SourceDescriptor, len(sources))
	order := make([]string, 0, len(sources))

	for _, s := range sources {
		if s.ID == "" {
			return hberrors.New(hberrors.ErrCodeRegistryInvalid, "source with empty id", nil)
		}
		if _, exists := m[s.ID]; exists {
			return hberrors.New(hberrors.ErrCodeSourceDuplicate,
				fmt.Sprintf("duplicate source id %q", s.ID), nil)
		}
		if s.DisplayWeight <= 0 {
			return hberrors.New(hberrors.ErrCodeRegistryInvalid,
				fmt.Sprintf("source %q: display_weight must be positive", s.ID), nil)
		}
		m[s.ID] = s
		order = append(order, s.ID)
	}

	r.mu.Lock()
	r.sources = m
	r.order = order
	r.mu.Unlock()
	return nil
}

// Get returns the descriptor for the given id.
func (r *Registry) Get(id string) (SourceDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[id]
	return s, ok
}

// All returns every descriptor in load order.
func (r *Registry) All() []SourceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SourceDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sources[id])
	}
	return out
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// Accessible returns the sources the caller may query: every public
// source plus every gated source whose requirement appears in caps.
// Pure read, no failure mode; an empty capability set yields only
// public sources. Results are sorted by id for deterministic dispatch
// status logs.
func (r *Registry) Accessible(caps map[string]bool) []SourceDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SourceDescriptor, 0, len(r.sources))
	for _, s := range r.sources {
		if s.Public() || caps[s.AccessRequirement] {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

package search

// Facet group names understood by the filter engine.
const (
	FacetSource   = "source"
	FacetCategory = "category"
	FacetType     = "type"
)

// facetValue extracts a result's value for a facet group. Unknown
// groups return "" so unrecognized filters match nothing.
func facetValue(r *NormalizedResult, group string) string {
	switch group {
	case FacetSource:
		return r.SourceID
	case FacetCategory:
		return r.Category
	case FacetType:
		return r.ResultType
	default:
		return ""
	}
}

// ApplyFilters keeps results that match every filter group, where a
// group matches when the result's value equals any of the group's
// accepted values. Applying the same filters twice yields the same set.
func ApplyFilters(results []NormalizedResult, filters map[string][]string) []NormalizedResult {
	if len(filters) == 0 {
		return results
	}

	out := results[:0:0]
	for i := range results {
		if matchesFilters(&results[i], filters) {
			out = append(out, results[i])
		}
	}
	return out
}

func matchesFilters(r *NormalizedResult, filters map[string][]string) bool {
	for group, accepted := range filters {
		if len(accepted) == 0 {
			continue
		}
		v := facetValue(r, group)
		found := false
		for _, want := range accepted {
			if v == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ComputeFacets counts distinct values per facet group. It runs on the
// pre-filter result set so the console can show what each filter would
// narrow to. Empty values are not counted.
func ComputeFacets(results []NormalizedResult) Facets {
	f := Facets{
		FacetSource:   map[string]int{},
		FacetCategory: map[string]int{},
		FacetType:     map[string]int{},
	}
	for i := range results {
		r := &results[i]
		for _, group := range []string{FacetSource, FacetCategory, FacetType} {
			if v := facetValue(r, group); v != "" {
				f[group][v]++
			}
		}
	}
	return f
}

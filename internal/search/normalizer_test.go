package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiforesti/searchhub/internal/source"
)

func TestNormalizer_UnifiedIDs(t *testing.T) {
	n := NewNormalizer()

	desc := testDesc("catalog")
	desc.DisplayWeight = 1.2

	results, dropped := n.Normalize([]SourceBatch{{
		Source: desc,
		Results: []source.RawResult{
			{ID: "42", Title: "Customer table", SourceRelevance: 0.8},
		},
	}})

	assert.Equal(t, 0, dropped)
	require.Len(t, results, 1)
	assert.Equal(t, "catalog/42", results[0].ID)
	assert.Equal(t, "42", results[0].NativeID)
	assert.Equal(t, "catalog", results[0].SourceID)
	assert.Equal(t, 0.8, results[0].Score.SourceRelevance)
	assert.Equal(t, 1.2, results[0].sourceWeight)
}

func TestNormalizer_DropsMalformedRows(t *testing.T) {
	n := NewNormalizer()

	results, dropped := n.Normalize([]SourceBatch{{
		Source: testDesc("catalog"),
		Results: []source.RawResult{
			{ID: "", Title: "no id"},
			{ID: "2", Title: "   "},
			{ID: "3", Title: "kept"},
		},
	}})

	assert.Equal(t, 2, dropped)
	require.Len(t, results, 1)
	assert.Equal(t, "catalog/3", results[0].ID)
}

func TestNormalizer_DedupeKeepsHigherRelevance(t *testing.T) {
	n := NewNormalizer()

	results, dropped := n.Normalize([]SourceBatch{{
		Source: testDesc("catalog"),
		Results: []source.RawResult{
			{ID: "7", Title: "first copy", SourceRelevance: 0.3},
			{ID: "7", Title: "second copy", SourceRelevance: 0.9},
		},
	}})

	assert.Equal(t, 0, dropped)
	require.Len(t, results, 1)
	assert.Equal(t, "second copy", results[0].Title)
	assert.Equal(t, 0.9, results[0].Score.SourceRelevance)
}

func TestNormalizer_SameNativeIDAcrossSourcesStaysDistinct(t *testing.T) {
	n := NewNormalizer()

	results, _ := n.Normalize([]SourceBatch{
		{Source: testDesc("catalog"), Results: []source.RawResult{{ID: "1", Title: "a"}}},
		{Source: testDesc("compliance"), Results: []source.RawResult{{ID: "1", Title: "b"}}},
	})

	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].ID, results[1].ID)
}

func TestNormalizer_ClampsRelevance(t *testing.T) {
	n := NewNormalizer()

	results, _ := n.Normalize([]SourceBatch{{
		Source: testDesc("catalog"),
		Results: []source.RawResult{
			{ID: "1", Title: "hot", SourceRelevance: 3.5},
			{ID: "2", Title: "cold", SourceRelevance: -1},
		},
	}})

	require.Len(t, results, 2)
	assert.Equal(t, 1.0, results[0].Score.SourceRelevance)
	assert.Equal(t, 0.0, results[1].Score.SourceRelevance)
}

func TestNormalizer_CategoryFallsBackToDescriptor(t *testing.T) {
	n := NewNormalizer()

	desc := testDesc("glossary")
	desc.Categories = []string{"term"}

	results, _ := n.Normalize([]SourceBatch{{
		Source:  desc,
		Results: []source.RawResult{{ID: "1", Title: "PII", LastModified: time.Now()}},
	}})

	require.Len(t, results, 1)
	assert.Equal(t, "term", results[0].Category)
	assert.Equal(t, "term", results[0].ResultType)
}

func TestResultType_Buckets(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"table", "asset"},
		{"View", "asset"},
		{"policy", "policy"},
		{"rule", "policy"},
		{"glossary", "term"},
		{"", "other"},
		{"dashboard", "dashboard"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resultType(tt.category), "category %q", tt.category)
	}
}

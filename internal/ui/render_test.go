package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seiforesti/searchhub/internal/registry"
	"github.com/seiforesti/searchhub/internal/search"
	"github.com/seiforesti/searchhub/internal/suggest"
)

func TestRenderer_Response(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Response(&search.Response{
		Results: []*search.NormalizedResult{
			{
				ID:             "catalog/t1",
				SourceID:       "catalog",
				Title:          "orders table",
				Description:    "daily order fact table",
				URL:            "https://console/catalog/t1",
				CompositeScore: 0.812,
			},
		},
		Facets: search.Facets{
			"source": {"catalog": 1},
		},
		Total:  1,
		TookMs: 42,
		Sources: []search.SourceStatus{
			{SourceID: "catalog", Status: search.StatusOK, Count: 1},
			{SourceID: "compliance", Status: search.StatusTimeout},
		},
		Status: search.SessionComplete,
	})

	out := buf.String()
	assert.Contains(t, out, "orders table")
	assert.Contains(t, out, "[catalog]")
	assert.Contains(t, out, "0.812")
	assert.Contains(t, out, "daily order fact table")
	assert.Contains(t, out, "source: catalog(1)")
	assert.Contains(t, out, "compliance timeout")
	assert.Contains(t, out, "1 results in 42ms")
}

func TestRenderer_Response_Superseded(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Response(&search.Response{Status: search.SessionSuperseded})

	assert.Contains(t, buf.String(), "superseded")
	assert.NotContains(t, buf.String(), "results in")
}

func TestRenderer_Response_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Response(&search.Response{Status: search.SessionComplete})

	assert.Contains(t, buf.String(), "no results")
}

func TestRenderer_Suggestions(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Suggestions([]suggest.Candidate{
		{Text: "customer churn", Origin: suggest.OriginHistory},
		{Text: "customer pii policy", Origin: suggest.OriginAI},
	})

	out := buf.String()
	assert.Contains(t, out, "customer churn")
	assert.Contains(t, out, "(history)")
	assert.Contains(t, out, "(ai)")
}

func TestRenderer_Sources(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Sources([]registry.SourceDescriptor{
		{ID: "catalog", DisplayName: "Data Catalog"},
		{ID: "compliance", DisplayName: "Compliance Rules", AccessRequirement: "compliance.read"},
	})

	out := buf.String()
	assert.Contains(t, out, "Data Catalog")
	assert.Contains(t, out, "public")
	assert.Contains(t, out, "compliance.read")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "longtex...", truncate("longtextlongtext", 10))
}

package source

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/seiforesti/searchhub/internal/registry"
)

// seedDocument is the on-disk shape of a seeded record.
type seedDocument struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	URL             string  `json:"url"`
	Category        string  `json:"category"`
	LastModified    string  `json:"last_modified"`
	SourceRelevance float64 `json:"source_relevance"`
}

// BuildAdapters constructs one adapter per descriptor according to its
// Kind. Descriptors the factory cannot build fail the whole call:
// serving a registry with silently missing sources would skew every
// response.
func BuildAdapters(descs []registry.SourceDescriptor, client *http.Client) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(descs))
	for _, d := range descs {
		a, err := buildAdapter(d, client)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", d.ID, err)
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

func buildAdapter(d registry.SourceDescriptor, client *http.Client) (Adapter, error) {
	switch d.Kind {
	case "", "http":
		if d.Endpoint == "" {
			return nil, fmt.Errorf("http source requires an endpoint")
		}
		return NewHTTPAdapter(d.ID, d.Endpoint, client), nil

	case "bleve":
		docs, err := loadSeed(d.SeedPath)
		if err != nil {
			return nil, err
		}
		a, err := NewBleveAdapter(d.ID)
		if err != nil {
			return nil, err
		}
		bleveDocs := make([]BleveDocument, 0, len(docs))
		for _, doc := range docs {
			bleveDocs = append(bleveDocs, BleveDocument{
				ID:           doc.ID,
				Title:        doc.Title,
				Description:  doc.Description,
				URL:          doc.URL,
				Category:     doc.Category,
				LastModified: parseSeedTime(doc.LastModified),
			})
		}
		if err := a.Index(bleveDocs); err != nil {
			return nil, err
		}
		return a, nil

	case "static":
		docs, err := loadSeed(d.SeedPath)
		if err != nil {
			return nil, err
		}
		results := make([]RawResult, 0, len(docs))
		for _, doc := range docs {
			rel := doc.SourceRelevance
			if rel <= 0 {
				rel = 1.0
			}
			results = append(results, RawResult{
				ID:              doc.ID,
				Title:           doc.Title,
				Description:     doc.Description,
				URL:             doc.URL,
				Category:        doc.Category,
				LastModified:    parseSeedTime(doc.LastModified),
				SourceRelevance: rel,
			})
		}
		return NewStaticAdapter(d.ID, results), nil

	default:
		return nil, fmt.Errorf("unknown source kind %q", d.Kind)
	}
}

// parseSeedTime accepts RFC 3339 or a bare date; anything else maps to
// the zero time, which scores zero recency.
func parseSeedTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

func loadSeed(path string) ([]seedDocument, error) {
	if path == "" {
		return nil, fmt.Errorf("seeded source requires seed_path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var docs []seedDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return docs, nil
}

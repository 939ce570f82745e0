package source

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
)

// BleveDocument is one locally indexed record served by a BleveAdapter.
type BleveDocument struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	Category     string    `json:"category"`
	LastModified time.Time `json:"last_modified"`
}

// BleveAdapter serves a federated source from an in-process bleve index.
// It backs sources that have no remote endpoint (a local glossary or a
// seeded catalog) and doubles as the reference adapter in integration
// tests.
type BleveAdapter struct {
	id string

	mu    sync.RWMutex
	index bleve.Index
	docs  map[string]BleveDocument
}

// NewBleveAdapter creates an adapter with an in-memory index.
func NewBleveAdapter(id string) (*BleveAdapter, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("create index for source %s: %w", id, err)
	}
	return &BleveAdapter{
		id:    id,
		index: idx,
		docs:  make(map[string]BleveDocument),
	}, nil
}

// ID implements Adapter.
func (a *BleveAdapter) ID() string { return a.id }

// Index adds documents to the source.
func (a *BleveAdapter) Index(docs []BleveDocument) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	batch := a.index.NewBatch()
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document with empty id")
		}
		if err := batch.Index(d.ID, d); err != nil {
			return fmt.Errorf("index document %s: %w", d.ID, err)
		}
		a.docs[d.ID] = d
	}

	if err := a.index.Batch(batch); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	return nil
}

// Search implements Adapter. Scores are normalized to [0,1] against the
// best hit so the dispatcher sees a source-local relevance score.
func (a *BleveAdapter) Search(ctx context.Context, q Query) ([]RawResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}

	matchQuery := bleve.NewMatchQuery(text)
	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit

	res, err := a.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search source %s: %w", a.id, err)
	}

	var maxScore float64
	for _, hit := range res.Hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	results := make([]RawResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		doc, ok := a.docs[hit.ID]
		if !ok {
			continue
		}
		relevance := 0.0
		if maxScore > 0 {
			relevance = hit.Score / maxScore
		}
		results = append(results, RawResult{
			ID:              doc.ID,
			Title:           doc.Title,
			Description:     doc.Description,
			URL:             doc.URL,
			Category:        doc.Category,
			LastModified:    doc.LastModified,
			SourceRelevance: relevance,
			Metadata: Metadata{
				"indexed": Bool(true),
			},
		})
	}
	return results, nil
}

// Close releases the index.
func (a *BleveAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.index.Close()
}

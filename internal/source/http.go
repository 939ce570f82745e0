package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPAdapter queries a remote data-source SPA over its REST search
// endpoint. It sends one POST per search and relies entirely on the
// request context for cancellation; retries happen in the dispatcher.
type HTTPAdapter struct {
	id       string
	endpoint string
	client   *http.Client
}

// httpSearchRequest is the wire request body.
type httpSearchRequest struct {
	Text    string              `json:"text"`
	Filters map[string][]string `json:"filters,omitempty"`
	Limit   int                 `json:"limit"`
}

// httpSearchResult mirrors RawResult on the wire.
type httpSearchResult struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	Category        string    `json:"category"`
	LastModified    time.Time `json:"last_modified"`
	SourceRelevance float64   `json:"source_relevance"`
	Metadata        Metadata  `json:"metadata"`
}

// NewHTTPAdapter creates an adapter for the given source endpoint.
// A nil client uses http.DefaultClient; per-call deadlines come from the
// dispatcher's context, so the client itself carries no timeout.
func NewHTTPAdapter(id, endpoint string, client *http.Client) *HTTPAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAdapter{id: id, endpoint: endpoint, client: client}
}

// ID implements Adapter.
func (a *HTTPAdapter) ID() string { return a.id }

// Search implements Adapter.
func (a *HTTPAdapter) Search(ctx context.Context, q Query) ([]RawResult, error) {
	body, err := json.Marshal(httpSearchRequest{
		Text:    q.Text,
		Filters: q.Filters,
		Limit:   q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", a.id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source %s: unexpected status %d", a.id, resp.StatusCode)
	}

	var wire []httpSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("source %s: decode response: %w", a.id, err)
	}

	results := make([]RawResult, 0, len(wire))
	for _, w := range wire {
		results = append(results, RawResult{
			ID:              w.ID,
			Title:           w.Title,
			Description:     w.Description,
			URL:             w.URL,
			Category:        w.Category,
			LastModified:    w.LastModified,
			SourceRelevance: clamp01(w.SourceRelevance),
			Metadata:        w.Metadata,
		})
	}
	return results, nil
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

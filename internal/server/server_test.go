package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seiforesti/searchhub/internal/config"
	"github.com/seiforesti/searchhub/internal/history"
	"github.com/seiforesti/searchhub/internal/registry"
	"github.com/seiforesti/searchhub/internal/search"
	"github.com/seiforesti/searchhub/internal/session"
	"github.com/seiforesti/searchhub/internal/source"
	"github.com/seiforesti/searchhub/internal/suggest"
	"github.com/seiforesti/searchhub/internal/telemetry"
)

// clickRecorder captures RecordClick calls on top of the null provider.
type clickRecorder struct {
	history.NullProvider
	clicked []string
}

func (c *clickRecorder) RecordClick(_ context.Context, resultID string) error {
	c.clicked = append(c.clicked, resultID)
	return nil
}

func newTestServer(t *testing.T) (*Server, *clickRecorder) {
	t.Helper()

	reg, err := registry.New([]registry.SourceDescriptor{
		{ID: "catalog", DisplayName: "Data Catalog", DisplayWeight: 1.0, Categories: []string{"table"}},
		{ID: "compliance", DisplayName: "Compliance Rules", DisplayWeight: 1.0, Categories: []string{"policy"}, AccessRequirement: "compliance.read"},
	})
	require.NoError(t, err)

	cfg := config.Default()
	d := search.NewDispatcher(cfg.Dispatch, []source.Adapter{
		source.NewStaticAdapter("catalog", []source.RawResult{
			{ID: "t1", Title: "orders table", Category: "table", SourceRelevance: 0.9},
			{ID: "t2", Title: "customers table", Category: "table", SourceRelevance: 0.8},
		}),
		source.NewStaticAdapter("compliance", []source.RawResult{
			{ID: "r1", Title: "orders retention rule", Category: "policy", SourceRelevance: 0.7},
		}),
	})

	engine := search.NewEngine(cfg, reg, d)
	sessions := session.NewManager(engine)
	sug := suggest.NewEngine(cfg.Suggest, suggest.NewContextualGenerator(reg))
	clicks := &clickRecorder{}

	srv := New(cfg.Server, sessions, engine, sug, clicks, telemetry.NewSearchMetrics())
	return srv, clicks
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Router(), http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["sources"])
}

func TestServer_Search(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Router(), http.MethodPost, "/api/search",
		search.Query{Text: "orders"},
		map[string]string{"X-Caller-Id": "alice"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp search.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "catalog/t1", resp.Results[0].ID)
}

func TestServer_Search_MissingCallerID(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Router(), http.MethodPost, "/api/search",
		search.Query{Text: "orders"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "X-Caller-Id")
}

func TestServer_Search_CapabilitiesUnlockGatedSource(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Router(), http.MethodPost, "/api/search",
		search.Query{Text: "orders"},
		map[string]string{
			"X-Caller-Id":           "auditor",
			"X-Caller-Capabilities": "compliance.read",
		})
	require.Equal(t, http.StatusOK, w.Code)

	var resp search.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, "compliance/r1")
}

func TestServer_Sources_HidesGated(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Router(), http.MethodGet, "/api/sources", nil,
		map[string]string{"X-Caller-Id": "alice"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "catalog")
	assert.NotContains(t, w.Body.String(), "compliance")
}

func TestServer_Suggest(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Router(), http.MethodGet, "/api/suggest?q=data", nil,
		map[string]string{"X-Caller-Id": "alice"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Data Catalog")
}

func TestServer_Suggest_HidesGatedSourceNames(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Router(), http.MethodGet, "/api/suggest?q=comp", nil,
		map[string]string{"X-Caller-Id": "alice"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Compliance Rules")

	w = doJSON(t, srv.Router(), http.MethodGet, "/api/suggest?q=comp", nil,
		map[string]string{
			"X-Caller-Id":           "auditor",
			"X-Caller-Capabilities": "compliance.read",
		})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Compliance Rules")
}

func TestServer_Click(t *testing.T) {
	srv, clicks := newTestServer(t)

	w := doJSON(t, srv.Router(), http.MethodPost, "/api/click",
		map[string]string{"result_id": "catalog/t1"},
		map[string]string{"X-Caller-Id": "alice"})
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"catalog/t1"}, clicks.clicked)
}

func TestServer_Click_MissingResultID(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Router(), http.MethodPost, "/api/click",
		map[string]string{}, map[string]string{"X-Caller-Id": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv.Router(), http.MethodGet, "/api/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "total_searches")
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

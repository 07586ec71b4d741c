// Package integration verifies the search HTTP API end to end: real handler
// wiring over a real SQLite-backed index, with Redis and Kafka left out
// (caching disabled, documents indexed directly through the engine).
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shardex/shardex/internal/engine"
	"github.com/shardex/shardex/internal/searcher/executor"
	"github.com/shardex/shardex/internal/searcher/handler"
	"github.com/shardex/shardex/internal/store"
	"github.com/shardex/shardex/internal/tokenizer"
	"github.com/shardex/shardex/pkg/config"
	"github.com/shardex/shardex/pkg/middleware"
)

func newSearchServer(t *testing.T) (*httptest.Server, *engine.Engine, *tokenizer.Tokenizer) {
	t.Helper()
	cfg := config.StorageConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "index.db"),
	}
	st, err := store.Open(cfg, 8)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	eng := engine.New(st)
	tok := tokenizer.New(nil)
	exec := executor.New(eng, tok)
	h := handler.New(exec, eng, nil, tok, nil, 10, 100)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)

	var chain http.Handler = mux
	chain = middleware.RequestID(chain)

	srv := httptest.NewServer(chain)
	t.Cleanup(srv.Close)
	return srv, eng, tok
}

func indexDoc(t *testing.T, eng *engine.Engine, tok *tokenizer.Tokenizer, id int64, text string) {
	t.Helper()
	err := eng.Index(context.Background(), engine.Document{
		ID:        id,
		SourceRef: fmt.Sprintf("doc-%d", id),
		Words:     tok.Tokenize(text),
	})
	if err != nil {
		t.Fatalf("indexing doc %d: %v", id, err)
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding response from %s: %v", url, err)
	}
	return resp.StatusCode
}

func TestSearchEndpoint(t *testing.T) {
	srv, eng, tok := newSearchServer(t)
	indexDoc(t, eng, tok, 1, "the cat sat on the mat")
	indexDoc(t, eng, tok, 2, "dogs chase cats all day")

	var result executor.SearchResult
	status := getJSON(t, srv.URL+"/api/v1/search?q=the+cat", &result)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if result.TotalHits != 1 || result.Results[0].DocID != 1 {
		t.Fatalf("result = %+v, want only doc 1", result)
	}
	if result.Results[0].Score != 0.5 {
		t.Errorf("score = %v, want 0.5", result.Results[0].Score)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	srv, _, _ := newSearchServer(t)
	var body map[string]string
	status := getJSON(t, srv.URL+"/api/v1/search", &body)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if body["error"] == "" {
		t.Error("missing error message in response")
	}
}

func TestSearchBadLimit(t *testing.T) {
	srv, _, _ := newSearchServer(t)
	var body map[string]string
	status := getJSON(t, srv.URL+"/api/v1/search?q=cat&limit=zero", &body)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestSearchLimitCapsResults(t *testing.T) {
	srv, eng, tok := newSearchServer(t)
	for id := int64(1); id <= 5; id++ {
		indexDoc(t, eng, tok, id, "shared phrase here")
	}

	var result executor.SearchResult
	status := getJSON(t, srv.URL+"/api/v1/search?q=shared&limit=3", &result)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if len(result.Results) != 3 {
		t.Errorf("returned %d results, want 3", len(result.Results))
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, eng, tok := newSearchServer(t)
	indexDoc(t, eng, tok, 1, "one two three")

	var stats engine.Stats
	status := getJSON(t, srv.URL+"/api/v1/stats", &stats)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if stats.Documents != 1 {
		t.Errorf("documents = %d, want 1", stats.Documents)
	}
	if stats.Partitions != 8 {
		t.Errorf("partitions = %d, want 8", stats.Partitions)
	}
}

func TestCacheStatsDisabled(t *testing.T) {
	srv, _, _ := newSearchServer(t)
	var body map[string]string
	status := getJSON(t, srv.URL+"/api/v1/cache/stats", &body)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["status"] != "disabled" {
		t.Errorf("status = %q, want disabled", body["status"])
	}
}

func TestRequestIDPropagated(t *testing.T) {
	srv, eng, tok := newSearchServer(t)
	indexDoc(t, eng, tok, 1, "hello world")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/search?q=hello", nil)
	req.Header.Set("X-Request-ID", "test-request-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "test-request-42" {
		t.Errorf("X-Request-ID = %q, want echo of supplied ID", got)
	}
}

package executor

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shardex/shardex/internal/engine"
	"github.com/shardex/shardex/internal/store"
	"github.com/shardex/shardex/internal/tokenizer"
	"github.com/shardex/shardex/pkg/config"
)

func newTestExecutor(t *testing.T) (*Executor, *engine.Engine, *tokenizer.Tokenizer) {
	t.Helper()
	cfg := config.StorageConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "index.db"),
	}
	st, err := store.Open(cfg, 4)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	eng := engine.New(st)
	tok := tokenizer.New(nil)
	return New(eng, tok), eng, tok
}

func indexText(t *testing.T, eng *engine.Engine, tok *tokenizer.Tokenizer, id int64, text string) {
	t.Helper()
	err := eng.Index(context.Background(), engine.Document{
		ID:    id,
		Words: tok.Tokenize(text),
	})
	if err != nil {
		t.Fatalf("indexing doc %d: %v", id, err)
	}
}

func TestExecuteTokenizesQuery(t *testing.T) {
	exec, eng, tok := newTestExecutor(t)
	indexText(t, eng, tok, 1, "The quick brown fox")

	// Punctuation and case in the query must not prevent a match.
	result, err := exec.Execute(context.Background(), "Quick, BROWN!", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalHits != 1 || result.Results[0].DocID != 1 {
		t.Errorf("result = %+v, want doc 1", result)
	}
	if strings.Join(result.Words, " ") != "quick brown" {
		t.Errorf("tokenized words = %v, want [quick brown]", result.Words)
	}
}

func TestExecuteEmptyQuery(t *testing.T) {
	exec, _, _ := newTestExecutor(t)
	result, err := exec.Execute(context.Background(), "...!!!", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalHits != 0 || len(result.Results) != 0 {
		t.Errorf("punctuation-only query returned hits: %+v", result)
	}
	if result.Results == nil {
		t.Error("Results is nil, want empty slice for JSON encoding")
	}
}

func TestExecutePreservesQueryString(t *testing.T) {
	exec, eng, tok := newTestExecutor(t)
	indexText(t, eng, tok, 1, "alpha beta")

	result, err := exec.Execute(context.Background(), "Alpha Beta", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Query != "Alpha Beta" {
		t.Errorf("Query = %q, want original string", result.Query)
	}
}

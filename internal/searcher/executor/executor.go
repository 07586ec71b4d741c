// Package executor turns raw query strings into ranked search results by
// tokenizing the query and running it through the index engine.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shardex/shardex/internal/engine"
	"github.com/shardex/shardex/internal/tokenizer"
)

// SearchResult is the JSON payload returned for a query.
type SearchResult struct {
	Query     string       `json:"query"`
	Words     []string     `json:"words"`
	TotalHits int          `json:"total_hits"`
	Results   []engine.Hit `json:"results"`
}

// Executor tokenizes queries and executes them against the engine.
type Executor struct {
	engine    *engine.Engine
	tokenizer *tokenizer.Tokenizer
	logger    *slog.Logger
}

// New creates an Executor bound to an engine and a tokenizer. Queries are
// tokenized with the same rules as indexed documents so that hashes line up.
func New(eng *engine.Engine, tok *tokenizer.Tokenizer) *Executor {
	return &Executor{
		engine:    eng,
		tokenizer: tok,
		logger:    slog.Default().With("component", "query-executor"),
	}
}

// Execute tokenizes the raw query and searches for it as a contiguous word
// sequence. A query with no indexable words returns an empty result.
func (e *Executor) Execute(ctx context.Context, query string, limit int) (*SearchResult, error) {
	words := e.tokenizer.Tokenize(query)
	if len(words) == 0 {
		return &SearchResult{
			Query:   query,
			Words:   []string{},
			Results: []engine.Hit{},
		}, nil
	}

	hits, err := e.engine.Search(ctx, words, limit)
	if err != nil {
		return nil, fmt.Errorf("executing query %q: %w", query, err)
	}

	e.logger.Info("query executed",
		"query", query,
		"words", words,
		"results", len(hits),
	)
	return &SearchResult{
		Query:     query,
		Words:     words,
		TotalHits: len(hits),
		Results:   hits,
	}, nil
}

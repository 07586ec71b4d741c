// Package engine implements the partitioned lexical search engine: indexing
// of word sequences into hash-partitioned occurrence tables, and phrase-aware
// conjunctive search with term-frequency ranking.
//
// Matching is two-staged. Stage one keeps only documents containing every
// distinct hash of the query (set containment). Stage two keeps only
// documents where the full ordered hash sequence occurs contiguously,
// duplicates included, proving exact phrase occurrence rather than
// bag-of-words overlap. Because words are matched through their hashes, two
// distinct words sharing a hash are indistinguishable here; that can produce
// false-positive matches but never false negatives.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/shardex/shardex/internal/engine/hasher"
	"github.com/shardex/shardex/internal/store"
)

// Document is one unit of indexing: a caller-assigned ID, an opaque source
// reference (never dereferenced here), and the normalised word sequence.
type Document struct {
	ID        int64
	SourceRef string
	Words     []string
}

// Hit is one ranked search result. Score is the number of query-hash
// occurrences in the document divided by the document's total word count,
// so short documents with proportionally many hits rank first.
type Hit struct {
	DocID     int64   `json:"doc_id"`
	Score     float64 `json:"score"`
	Matches   int     `json:"matches"`
	WordCount int64   `json:"word_count"`
}

// Engine ties the word hasher to the partition store and document catalog.
// It is safe for concurrent use; searches never block each other, and a
// search running concurrently with Index sees either none or all of that
// document's rows.
type Engine struct {
	hasher *hasher.Hasher
	store  *store.Store
	logger *slog.Logger
}

// New creates an Engine over an opened store. The hasher's partition count
// is taken from the store so indexing and search can never disagree with
// the schema.
func New(st *store.Store) *Engine {
	return &Engine{
		hasher: hasher.New(st.Partitions()),
		store:  st,
		logger: slog.Default().With("component", "engine"),
	}
}

// Index writes one document into the index: one occurrence row per word,
// routed to the partition owning the word's hash, plus the catalog record.
// The write is atomic; a duplicate ID fails with ErrDuplicateDocument and
// leaves no partial state. An empty word sequence is legal and yields a
// catalog record with word count zero.
func (e *Engine) Index(ctx context.Context, doc Document) error {
	rowsByPartition := make(map[int][]store.Row)
	for pos, word := range doc.Words {
		key := e.hasher.Sum(word)
		id := e.hasher.Partition(key)
		rowsByPartition[id] = append(rowsByPartition[id], store.Row{
			Hash:     key,
			DocID:    doc.ID,
			Position: pos,
		})
	}
	if err := e.store.InsertDocument(ctx, doc.ID, doc.SourceRef, len(doc.Words), rowsByPartition); err != nil {
		return fmt.Errorf("indexing document %d: %w", doc.ID, err)
	}
	e.logger.Debug("document indexed",
		"doc_id", doc.ID,
		"words", len(doc.Words),
		"partitions_touched", len(rowsByPartition),
	)
	return nil
}

// Search runs the two-stage match for the ordered query word sequence and
// returns hits sorted by score descending, document ID ascending on ties.
// limit <= 0 means unlimited. An empty query returns an empty result, not
// an error.
func (e *Engine) Search(ctx context.Context, words []string, limit int) ([]Hit, error) {
	start := time.Now()
	if len(words) == 0 {
		return []Hit{}, nil
	}

	// Ordered hash sequence, duplicates preserved; unique set for pruning
	// and containment.
	keys := e.hasher.SumAll(words)
	unique := make(map[uint64]struct{}, len(keys))
	hashesByPartition := make(map[int][]uint64)
	for _, key := range keys {
		if _, seen := unique[key]; seen {
			continue
		}
		unique[key] = struct{}{}
		id := e.hasher.Partition(key)
		hashesByPartition[id] = append(hashesByPartition[id], key)
	}

	rows, err := e.store.FetchPostings(ctx, hashesByPartition)
	if err != nil {
		return nil, fmt.Errorf("fetching postings: %w", err)
	}

	// Group fetched occurrences per document. Every fetched row has a hash
	// from the query, so the per-document row count is exactly matches(d).
	type docOccurrences struct {
		positions map[uint64]map[int]struct{}
		matches   int
	}
	perDoc := make(map[int64]*docOccurrences)
	foundHashes := make(map[uint64]struct{}, len(unique))
	for _, r := range rows {
		foundHashes[r.Hash] = struct{}{}
		occ := perDoc[r.DocID]
		if occ == nil {
			occ = &docOccurrences{positions: make(map[uint64]map[int]struct{}, len(unique))}
			perDoc[r.DocID] = occ
		}
		set := occ.positions[r.Hash]
		if set == nil {
			set = make(map[int]struct{})
			occ.positions[r.Hash] = set
		}
		set[r.Position] = struct{}{}
		occ.matches++
	}

	// A query hash absent from the whole index fails stage one for every
	// document.
	if len(foundHashes) < len(unique) {
		e.logger.Debug("query hash absent from index", "query_words", len(words))
		return []Hit{}, nil
	}

	type candidate struct {
		docID   int64
		matches int
	}
	var candidates []candidate
	for docID, occ := range perDoc {
		if len(occ.positions) != len(unique) {
			continue // stage 1: some query hash missing from this document
		}
		if !hasContiguousRun(occ.positions, keys) {
			continue // stage 2: full sequence never occurs contiguously
		}
		candidates = append(candidates, candidate{docID: docID, matches: occ.matches})
	}
	if len(candidates) == 0 {
		return []Hit{}, nil
	}

	docIDs := make([]int64, len(candidates))
	for i, c := range candidates {
		docIDs[i] = c.docID
	}
	wordCounts, err := e.store.WordCounts(ctx, docIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching word counts: %w", err)
	}

	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		total := wordCounts[c.docID]
		if total <= 0 {
			continue
		}
		hits = append(hits, Hit{
			DocID:     c.docID,
			Score:     roundScore(float64(c.matches) / float64(total)),
			Matches:   c.matches,
			WordCount: total,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocID < hits[j].DocID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	e.logger.Info("search executed",
		"query_words", len(words),
		"partitions_touched", len(hashesByPartition),
		"candidates", len(perDoc),
		"results", len(hits),
		"elapsed", time.Since(start),
	)
	return hits, nil
}

// Stats summarises the index for monitoring.
type Stats struct {
	Documents     int64   `json:"documents"`
	Partitions    int     `json:"partitions"`
	PartitionRows []int64 `json:"partition_rows"`
}

// Stats returns document and per-partition row counts.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	docs, err := e.store.DocumentCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		Documents:     docs,
		Partitions:    e.hasher.Partitions(),
		PartitionRows: make([]int64, e.hasher.Partitions()),
	}
	for id := 0; id < e.hasher.Partitions(); id++ {
		count, err := e.store.PartitionRowCount(ctx, id)
		if err != nil {
			return Stats{}, err
		}
		st.PartitionRows[id] = count
	}
	return st, nil
}

// hasContiguousRun reports whether the ordered hash sequence keys occurs at
// consecutive positions in the document: some offset o with keys[i] present
// at position o+i for every i. A repeated query word therefore requires the
// hash literally repeated at consecutive positions.
func hasContiguousRun(positions map[uint64]map[int]struct{}, keys []uint64) bool {
	for start := range positions[keys[0]] {
		found := true
		for i := 1; i < len(keys); i++ {
			if _, ok := positions[keys[i]][start+i]; !ok {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}

func roundScore(s float64) float64 {
	return math.Round(s*100000) / 100000
}

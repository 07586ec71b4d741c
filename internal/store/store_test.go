package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shardex/shardex/pkg/config"
	apperrors "github.com/shardex/shardex/pkg/errors"
)

func newTestStore(t *testing.T, partitions int) *Store {
	t.Helper()
	cfg := config.StorageConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "index.db"),
	}
	s, err := Open(cfg, partitions)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := newTestStore(t, 4)
	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	for id := 0; id < 4; id++ {
		if _, err := s.PartitionRowCount(ctx, id); err != nil {
			t.Errorf("partition %d not queryable: %v", id, err)
		}
	}
	count, err := s.DocumentCount(ctx)
	if err != nil {
		t.Fatalf("DocumentCount: %v", err)
	}
	if count != 0 {
		t.Errorf("fresh index has %d documents, want 0", count)
	}
}

func TestReopenPartitionCountMismatch(t *testing.T) {
	cfg := config.StorageConfig{
		Driver: "sqlite3",
		Path:   filepath.Join(t.TempDir(), "index.db"),
	}
	s, err := Open(cfg, 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()

	if _, err := Open(cfg, 4); err == nil {
		t.Fatal("reopening with a different partition count succeeded, want error")
	}

	s2, err := Open(cfg, 8)
	if err != nil {
		t.Fatalf("reopening with the original partition count: %v", err)
	}
	s2.Close()
}

func TestInsertAndFetch(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	rows := map[int][]Row{
		0: {{Hash: 10, DocID: 1, Position: 0}, {Hash: 12, DocID: 1, Position: 2}},
		1: {{Hash: 11, DocID: 1, Position: 1}},
	}
	if err := s.InsertDocument(ctx, 1, "corpus/one.txt", 3, rows); err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}

	got, err := s.FetchPostings(ctx, map[int][]uint64{0: {10, 12}, 1: {11}})
	if err != nil {
		t.Fatalf("FetchPostings: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("fetched %d rows, want 3", len(got))
	}
	byPos := make(map[int]uint64)
	for _, r := range got {
		if r.DocID != 1 {
			t.Errorf("row has doc_id %d, want 1", r.DocID)
		}
		byPos[r.Position] = r.Hash
	}
	want := map[int]uint64{0: 10, 1: 11, 2: 12}
	for pos, hash := range want {
		if byPos[pos] != hash {
			t.Errorf("position %d has hash %d, want %d", pos, byPos[pos], hash)
		}
	}
}

func TestFetchPostingsPrunes(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	rows := map[int][]Row{
		0: {{Hash: 10, DocID: 1, Position: 0}},
		1: {{Hash: 11, DocID: 1, Position: 1}},
	}
	if err := s.InsertDocument(ctx, 1, "", 2, rows); err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}

	// Only partition 0 is named, so partition 1's row must not appear.
	got, err := s.FetchPostings(ctx, map[int][]uint64{0: {10}})
	if err != nil {
		t.Fatalf("FetchPostings: %v", err)
	}
	if len(got) != 1 || got[0].Hash != 10 {
		t.Fatalf("fetched %v, want only hash 10", got)
	}
}

func TestInsertDuplicateDocument(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	first := map[int][]Row{0: {{Hash: 10, DocID: 7, Position: 0}}}
	if err := s.InsertDocument(ctx, 7, "a", 1, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	second := map[int][]Row{0: {{Hash: 99, DocID: 7, Position: 0}}}
	err := s.InsertDocument(ctx, 7, "b", 1, second)
	if !errors.Is(err, apperrors.ErrDuplicateDocument) {
		t.Fatalf("second insert error = %v, want ErrDuplicateDocument", err)
	}

	// First document's data is unchanged.
	wordCount, sourceRef, err := s.GetDocument(ctx, 7)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if wordCount != 1 || sourceRef != "a" {
		t.Errorf("document mutated: word_count=%d source_ref=%q", wordCount, sourceRef)
	}
	got, err := s.FetchPostings(ctx, map[int][]uint64{0: {10, 99}})
	if err != nil {
		t.Fatalf("FetchPostings: %v", err)
	}
	if len(got) != 1 || got[0].Hash != 10 {
		t.Errorf("postings after duplicate insert = %v, want only hash 10", got)
	}
}

func TestInsertEmptyDocument(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()
	if err := s.InsertDocument(ctx, 3, "empty", 0, nil); err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}
	wordCount, _, err := s.GetDocument(ctx, 3)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if wordCount != 0 {
		t.Errorf("word_count = %d, want 0", wordCount)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	s := newTestStore(t, 2)
	_, _, err := s.GetDocument(context.Background(), 404)
	if !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Fatalf("error = %v, want ErrDocumentNotFound", err)
	}
}

func TestWordCounts(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()
	if err := s.InsertDocument(ctx, 1, "", 5, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertDocument(ctx, 2, "", 9, nil); err != nil {
		t.Fatal(err)
	}
	counts, err := s.WordCounts(ctx, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("WordCounts: %v", err)
	}
	if counts[1] != 5 || counts[2] != 9 {
		t.Errorf("counts = %v, want {1:5, 2:9}", counts)
	}
	if _, ok := counts[3]; ok {
		t.Error("unknown doc_id present in counts")
	}
}

func TestOptimizePreservesRows(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	rows := map[int][]Row{
		0: {
			{Hash: 30, DocID: 1, Position: 2},
			{Hash: 10, DocID: 1, Position: 0},
			{Hash: 20, DocID: 1, Position: 1},
		},
	}
	if err := s.InsertDocument(ctx, 1, "", 3, rows); err != nil {
		t.Fatalf("InsertDocument: %v", err)
	}
	if err := s.Optimize(ctx); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	got, err := s.FetchPostings(ctx, map[int][]uint64{0: {10, 20, 30}})
	if err != nil {
		t.Fatalf("FetchPostings after optimize: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("fetched %d rows after optimize, want 3", len(got))
	}
	count, err := s.PartitionRowCount(ctx, 0)
	if err != nil {
		t.Fatalf("PartitionRowCount: %v", err)
	}
	if count != 3 {
		t.Errorf("partition 0 has %d rows after optimize, want 3", count)
	}
}

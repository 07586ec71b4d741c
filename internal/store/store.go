// Package store implements the partition store and document catalog as
// schemas over a generic relational medium (database/sql). The index is
// split into N partition tables of (hash, doc_id, position) rows plus a
// documents catalog; N is pinned in the index_meta table when the schema is
// first created and verified on every subsequent open.
//
// All writes for one document happen inside a single transaction, so a
// concurrent reader sees either none or all of its rows. Reads only ever
// touch the partition tables owning the requested hashes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"github.com/shardex/shardex/pkg/config"
	apperrors "github.com/shardex/shardex/pkg/errors"
)

const metaPartitionsKey = "partitions"

// Row is one recorded word occurrence: the word's hash key, the document it
// occurred in, and its zero-based position in that document's word sequence.
type Row struct {
	Hash     uint64
	DocID    int64
	Position int
}

// Store provides transactional access to the partition tables and the
// document catalog.
type Store struct {
	db         *sql.DB
	dialect    dialect
	partitions int
	logger     *slog.Logger
}

// Open connects to the configured medium, creates the schema if missing,
// and verifies the stored partition count matches the configured one.
func Open(cfg config.StorageConfig, partitions int) (*Store, error) {
	if partitions < 1 {
		return nil, fmt.Errorf("%w: partition count must be at least 1", apperrors.ErrInvalidInput)
	}
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", apperrors.ErrStorageUnavailable, cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.Driver == "sqlite3" {
		for _, pragma := range []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout=5000",
		} {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrStorageUnavailable, pragma, err)
			}
		}
	}
	s := &Store{
		db:         db,
		dialect:    d,
		partitions: partitions,
		logger:     slog.Default().With("component", "store"),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates the catalog tables, pins or verifies the partition
// count, and creates the partition tables.
func (s *Store) initSchema() error {
	for _, stmt := range s.dialect.catalogStatements() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: creating catalog schema: %v", apperrors.ErrStorageUnavailable, err)
		}
	}

	var stored string
	err := s.db.QueryRow(
		s.dialect.rebind("SELECT value FROM index_meta WHERE key = ?"),
		metaPartitionsKey,
	).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.Exec(
			s.dialect.rebind("INSERT INTO index_meta (key, value) VALUES (?, ?)"),
			metaPartitionsKey, strconv.Itoa(s.partitions),
		); err != nil {
			return fmt.Errorf("%w: recording partition count: %v", apperrors.ErrStorageUnavailable, err)
		}
	case err != nil:
		return fmt.Errorf("%w: reading index metadata: %v", apperrors.ErrStorageUnavailable, err)
	default:
		n, convErr := strconv.Atoi(stored)
		if convErr != nil || n != s.partitions {
			return fmt.Errorf("index was created with %s partitions, configured with %d", stored, s.partitions)
		}
	}

	for id := 0; id < s.partitions; id++ {
		for _, stmt := range s.dialect.partitionStatements(id) {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("%w: creating partition %d: %v", apperrors.ErrStorageUnavailable, id, err)
			}
		}
	}
	s.logger.Info("schema ready", "driver", s.dialect.driver, "partitions", s.partitions)
	return nil
}

// Partitions returns the pinned partition count.
func (s *Store) Partitions() int {
	return s.partitions
}

// Ping verifies the medium is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// HasDocument reports whether a document ID is present in the catalog.
func (s *Store) HasDocument(ctx context.Context, docID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind("SELECT EXISTS(SELECT 1 FROM documents WHERE doc_id = ?)"),
		docID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking document %d: %v", apperrors.ErrStorageUnavailable, docID, err)
	}
	return exists, nil
}

// GetDocument returns a catalog record's word count and source reference.
func (s *Store) GetDocument(ctx context.Context, docID int64) (wordCount int64, sourceRef string, err error) {
	err = s.db.QueryRowContext(ctx,
		s.dialect.rebind("SELECT word_count, source_ref FROM documents WHERE doc_id = ?"),
		docID,
	).Scan(&wordCount, &sourceRef)
	if err == sql.ErrNoRows {
		return 0, "", fmt.Errorf("%w: doc_id %d", apperrors.ErrDocumentNotFound, docID)
	}
	if err != nil {
		return 0, "", fmt.Errorf("%w: reading document %d: %v", apperrors.ErrStorageUnavailable, docID, err)
	}
	return wordCount, sourceRef, nil
}

// DocumentCount returns the number of catalogued documents.
func (s *Store) DocumentCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting documents: %v", apperrors.ErrStorageUnavailable, err)
	}
	return count, nil
}

// InsertDocument writes one document's occurrence rows and catalog record in
// a single transaction. Rows are grouped by the partition that owns their
// hash. Returns ErrDuplicateDocument without side effects if the ID exists.
func (s *Store) InsertDocument(
	ctx context.Context,
	docID int64,
	sourceRef string,
	wordCount int,
	rowsByPartition map[int][]Row,
) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		s.dialect.rebind("SELECT EXISTS(SELECT 1 FROM documents WHERE doc_id = ?)"),
		docID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%w: checking document %d: %v", apperrors.ErrStorageUnavailable, docID, err)
	}
	if exists {
		return fmt.Errorf("%w: doc_id %d", apperrors.ErrDuplicateDocument, docID)
	}

	for id, rows := range rowsByPartition {
		if id < 0 || id >= s.partitions {
			return fmt.Errorf("%w: partition %d out of range [0, %d)", apperrors.ErrInvalidInput, id, s.partitions)
		}
		stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
			fmt.Sprintf("INSERT INTO %s (hash, doc_id, position) VALUES (?, ?, ?)", partitionTable(id)),
		))
		if err != nil {
			return fmt.Errorf("%w: preparing insert for partition %d: %v", apperrors.ErrStorageUnavailable, id, err)
		}
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, int64(r.Hash), r.DocID, int64(r.Position)); err != nil {
				stmt.Close()
				return fmt.Errorf("%w: inserting into partition %d: %v", apperrors.ErrStorageUnavailable, id, err)
			}
		}
		stmt.Close()
	}

	if _, err := tx.ExecContext(ctx,
		s.dialect.rebind("INSERT INTO documents (doc_id, word_count, source_ref) VALUES (?, ?, ?)"),
		docID, int64(wordCount), sourceRef,
	); err != nil {
		return fmt.Errorf("%w: inserting catalog record %d: %v", apperrors.ErrStorageUnavailable, docID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing document %d: %v", apperrors.ErrStorageUnavailable, docID, err)
	}
	return nil
}

// FetchPostings returns every (hash, doc_id, position) row whose hash is
// listed for its partition. Partitions are queried concurrently; partitions
// not named in the map are never touched, which bounds lookup cost by query
// size rather than corpus size.
func (s *Store) FetchPostings(ctx context.Context, hashesByPartition map[int][]uint64) ([]Row, error) {
	var (
		mu  sync.Mutex
		out []Row
	)
	g, gctx := errgroup.WithContext(ctx)
	for id, hashes := range hashesByPartition {
		if len(hashes) == 0 {
			continue
		}
		g.Go(func() error {
			args := make([]any, len(hashes))
			for i, h := range hashes {
				args[i] = int64(h)
			}
			query := fmt.Sprintf(
				"SELECT hash, doc_id, position FROM %s WHERE hash IN (%s)",
				partitionTable(id), s.dialect.placeholders(len(hashes)),
			)
			rows, err := s.db.QueryContext(gctx, query, args...)
			if err != nil {
				return fmt.Errorf("%w: querying partition %d: %v", apperrors.ErrStorageUnavailable, id, err)
			}
			defer rows.Close()

			var batch []Row
			for rows.Next() {
				var hash, doc, pos int64
				if err := rows.Scan(&hash, &doc, &pos); err != nil {
					return fmt.Errorf("%w: scanning partition %d: %v", apperrors.ErrStorageUnavailable, id, err)
				}
				batch = append(batch, Row{Hash: uint64(hash), DocID: doc, Position: int(pos)})
			}
			if err := rows.Err(); err != nil {
				return fmt.Errorf("%w: reading partition %d: %v", apperrors.ErrStorageUnavailable, id, err)
			}
			mu.Lock()
			out = append(out, batch...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// WordCounts returns the catalog word counts for the given document IDs.
func (s *Store) WordCounts(ctx context.Context, docIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(docIDs))
	if len(docIDs) == 0 {
		return counts, nil
	}
	args := make([]any, len(docIDs))
	for i, id := range docIDs {
		args[i] = id
	}
	query := fmt.Sprintf(
		"SELECT doc_id, word_count FROM documents WHERE doc_id IN (%s)",
		s.dialect.placeholders(len(docIDs)),
	)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying word counts: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer rows.Close()
	for rows.Next() {
		var doc, count int64
		if err := rows.Scan(&doc, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning word counts: %v", apperrors.ErrStorageUnavailable, err)
		}
		counts[doc] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading word counts: %v", apperrors.ErrStorageUnavailable, err)
	}
	return counts, nil
}

// PartitionRowCount returns the number of occurrence rows in one partition.
func (s *Store) PartitionRowCount(ctx context.Context, id int) (int64, error) {
	if id < 0 || id >= s.partitions {
		return 0, fmt.Errorf("%w: partition %d out of range [0, %d)", apperrors.ErrInvalidInput, id, s.partitions)
	}
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", partitionTable(id))
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting partition %d: %v", apperrors.ErrStorageUnavailable, id, err)
	}
	return count, nil
}

// Optimize rewrites every partition table in (hash, doc_id, position) order.
// Lookups stay correct without it; sorted rows just improve locality and
// compression on media that preserve insertion order.
func (s *Store) Optimize(ctx context.Context) error {
	for id := 0; id < s.partitions; id++ {
		if err := s.optimizePartition(ctx, id); err != nil {
			return err
		}
		s.logger.Info("partition optimized", "partition", id)
	}
	return nil
}

func (s *Store) optimizePartition(ctx context.Context, id int) error {
	table := partitionTable(id)
	sorted := table + "_sorted"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning optimize of partition %d: %v", apperrors.ErrStorageUnavailable, id, err)
	}
	defer tx.Rollback()

	steps := []string{
		fmt.Sprintf(
			"CREATE TABLE %s AS SELECT hash, doc_id, position FROM %s ORDER BY hash, doc_id, position",
			sorted, table,
		),
		fmt.Sprintf("DROP TABLE %s", table),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", sorted, table),
		fmt.Sprintf("CREATE INDEX %s ON %s (hash)", partitionHashIndex(id), table),
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: optimizing partition %d: %v", apperrors.ErrStorageUnavailable, id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing optimize of partition %d: %v", apperrors.ErrStorageUnavailable, id, err)
	}
	return nil
}

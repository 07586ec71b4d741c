package store

import "fmt"

// partitionTable returns the table name for a partition ID.
func partitionTable(id int) string {
	return fmt.Sprintf("partition_%d", id)
}

func partitionHashIndex(id int) string {
	return fmt.Sprintf("idx_partition_%d_hash", id)
}

// catalogStatements returns the DDL for the document catalog and the index
// metadata table. The catalog's primary key gives the O(log n) word-count
// lookup the ranking step relies on.
func (d dialect) catalogStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
    doc_id     %s PRIMARY KEY,
    word_count %s NOT NULL,
    source_ref TEXT NOT NULL DEFAULT ''
)`, d.intType, d.intType),
		`CREATE TABLE IF NOT EXISTS index_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
	}
}

// partitionStatements returns the DDL for one partition table: one row per
// word occurrence, keyed by hash for equality lookup.
func (d dialect) partitionStatements(id int) []string {
	table := partitionTable(id)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    hash     %s NOT NULL,
    doc_id   %s NOT NULL,
    position %s NOT NULL
)`, table, d.intType, d.intType, d.intType),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (hash)", partitionHashIndex(id), table),
	}
}

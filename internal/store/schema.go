package store

import (
	"context"
	"fmt"

	cerrors "github.com/coral-mesh/ncurep/internal/errors"
)

// initSchema creates the tables. It is idempotent across runs.
func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer cerrors.DeferRollback(s.logger, tx)

	for _, ddl := range schemaDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// Only primary keys are indexed. DuckDB rejects ON CONFLICT updates of
// columns covered by secondary indexes.
var schemaDDL = []string{
	// One row per distinct report buffer.
	`CREATE TABLE IF NOT EXISTS reports (
		report_hash TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		file_version BIGINT NOT NULL,
		device_name TEXT NOT NULL,
		compute_capability TEXT NOT NULL,
		kernel_count BIGINT NOT NULL,
		truncated BOOLEAN NOT NULL,
		import_id TEXT NOT NULL,
		imported_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS kernels (
		report_hash TEXT NOT NULL,
		kernel_index BIGINT NOT NULL,
		name TEXT NOT NULL,
		short_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		function_name TEXT NOT NULL,
		grid TEXT NOT NULL,
		block TEXT NOT NULL,
		cc TEXT NOT NULL,
		context_id BIGINT NOT NULL,
		stream_id BIGINT NOT NULL,
		duration TEXT NOT NULL,
		PRIMARY KEY (report_hash, kernel_index)
	)`,

	// Display metrics per section. raw_text holds the exact raw value of
	// every kind; raw_value is its DOUBLE form for numeric metrics only.
	`CREATE TABLE IF NOT EXISTS kernel_metrics (
		report_hash TEXT NOT NULL,
		kernel_index BIGINT NOT NULL,
		section TEXT NOT NULL,
		raw_name TEXT NOT NULL,
		section_order BIGINT NOT NULL,
		seq BIGINT NOT NULL,
		label TEXT NOT NULL,
		unit TEXT NOT NULL,
		value TEXT NOT NULL,
		raw_value DOUBLE,
		raw_text TEXT NOT NULL,
		PRIMARY KEY (report_hash, kernel_index, section, raw_name)
	)`,

	`CREATE TABLE IF NOT EXISTS kernel_hints (
		report_hash TEXT NOT NULL,
		kernel_index BIGINT NOT NULL,
		section TEXT NOT NULL,
		seq BIGINT NOT NULL,
		hint_type TEXT NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (report_hash, kernel_index, section, seq)
	)`,
}

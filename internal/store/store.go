// Package store persists decoded reports in a local DuckDB database so
// kernels can be listed and compared across captures.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"github.com/coral-mesh/ncurep/internal/duckdb"
	cerrors "github.com/coral-mesh/ncurep/internal/errors"
	"github.com/coral-mesh/ncurep/internal/report"
	"github.com/coral-mesh/ncurep/internal/retry"
)

// ErrNotFound is returned when a report or kernel is not stored.
var ErrNotFound = errors.New("not found")

// Store wraps the kernel database.
type Store struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
	now    func() time.Time
	retry  retry.Config

	reports *duckdb.Table[ReportRow]
	kernels *duckdb.Table[KernelRow]
	metrics *duckdb.Table[MetricRow]
	hints   *duckdb.Table[HintRow]
}

// Open opens the database at path for reading and writing, creating its
// directory and schema if needed. An empty path opens an in-memory store.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := duckdb.OpenDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s, err := newStore(ctx, db, path, logger, true)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing database for listing.
func OpenReadOnly(ctx context.Context, path string, logger zerolog.Logger) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no kernel database at %s: %w", path, err)
	}

	db, err := duckdb.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s, err := newStore(ctx, db, path, logger, false)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func newStore(ctx context.Context, db *sql.DB, path string, logger zerolog.Logger, writable bool) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:      db,
		path:    path,
		logger:  logger,
		now:     time.Now,
		retry:   retry.DefaultConfig(),
		reports: duckdb.NewTable[ReportRow](db, "reports"),
		kernels: duckdb.NewTable[KernelRow](db, "kernels"),
		metrics: duckdb.NewTable[MetricRow](db, "kernel_metrics"),
		hints:   duckdb.NewTable[HintRow](db, "kernel_hints"),
	}
	s.retry.OnRetry = s.logRetry

	if writable {
		if err := s.initSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	mode := "read-write"
	if !writable {
		mode = "read-only"
	}
	s.logger.Debug().Str("path", path).Str("mode", mode).Msg("Database opened")

	return s, nil
}

func (s *Store) logRetry(attempt int, err error, backoff time.Duration) {
	s.logger.Debug().
		Err(err).
		Int("attempt", attempt).
		Dur("backoff", backoff).
		Msg("Retrying conflicting transaction")
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Hash identifies a report buffer by its xxh3-64 digest in hex.
func Hash(buf []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(buf))
}

// ImportResult describes one Import call.
type ImportResult struct {
	ReportHash string `json:"reportHash" header:"Report"`
	Path       string `json:"path" header:"Path"`
	ImportID   string `json:"importId" header:"Import"`
	Kernels    int    `json:"kernels" header:"Kernels"`
	Replaced   bool   `json:"replaced" header:"Replaced"`
}

// Import stores r, decoded from buf, under the hash of buf. Importing the
// same buffer again updates the rows in place and keeps the first import
// time.
func (s *Store) Import(ctx context.Context, path string, buf []byte, r *report.Report) (*ImportResult, error) {
	res := &ImportResult{
		ReportHash: Hash(buf),
		Path:       path,
		ImportID:   uuid.NewString(),
		Kernels:    len(r.Kernels),
	}
	rows := buildRows(res.ReportHash, r)
	rows.report.Path = path
	rows.report.ImportID = res.ImportID
	rows.report.ImportedAt = s.now().UTC()

	err := retry.Do(ctx, s.retry, func() error {
		replaced, err := s.importTx(ctx, rows)
		res.Replaced = replaced
		return err
	}, duckdb.IsTransactionConflict)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}

	s.logger.Debug().
		Str("report", res.ReportHash).
		Str("path", path).
		Int("kernels", res.Kernels).
		Bool("replaced", res.Replaced).
		Msg("Report imported")

	return res, nil
}

func (s *Store) importTx(ctx context.Context, rows *reportRows) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer cerrors.DeferRollback(s.logger, tx)

	reports := duckdb.NewTable[ReportRow](tx, s.reports.Name())
	_, err = reports.Get(ctx, rows.report.ReportHash)
	replaced := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup report: %w", err)
	}

	if err := reports.Upsert(ctx, rows.report); err != nil {
		return false, fmt.Errorf("upsert report: %w", err)
	}
	if err := duckdb.NewTable[KernelRow](tx, s.kernels.Name()).BatchUpsert(ctx, rows.kernels); err != nil {
		return false, fmt.Errorf("upsert kernels: %w", err)
	}
	if err := duckdb.NewTable[MetricRow](tx, s.metrics.Name()).BatchUpsert(ctx, rows.metrics); err != nil {
		return false, fmt.Errorf("upsert metrics: %w", err)
	}
	if err := duckdb.NewTable[HintRow](tx, s.hints.Name()).BatchUpsert(ctx, rows.hints); err != nil {
		return false, fmt.Errorf("upsert hints: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return replaced, nil
}

// Reports lists imported reports, newest first.
func (s *Store) Reports(ctx context.Context) ([]*ReportRow, error) {
	return s.reports.Query(ctx, s.reports.Select().OrderBy("-imported_at", "report_hash"))
}

// Report returns the report stored under hash.
func (s *Store) Report(ctx context.Context, hash string) (*ReportRow, error) {
	row, err := s.reports.Get(ctx, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", hash, ErrNotFound)
	}
	return row, err
}

// KernelFilter narrows Kernels. Zero fields match everything; Kinds
// matches any of the listed kinds.
type KernelFilter struct {
	ReportHash string
	NameLike   string
	Kinds      []report.Kind
	Limit      int
}

// Kernels lists stored kernels matching f, ordered by report and launch
// index.
func (s *Store) Kernels(ctx context.Context, f KernelFilter) ([]*KernelRow, error) {
	b := s.kernels.Select().
		Eq("report_hash", f.ReportHash).
		Contains("name", f.NameLike).
		In("kind", kindArgs(f.Kinds)...).
		OrderBy("report_hash", "kernel_index").
		Limit(f.Limit)

	if e := s.logger.Debug(); e.Enabled() {
		query, args, _ := b.Build()
		e.Str("query", duckdb.InterpolateQuery(query, args)).Msg("Listing kernels")
	}

	return s.kernels.Query(ctx, b)
}

func kindArgs(kinds []report.Kind) []any {
	args := make([]any, len(kinds))
	for i, k := range kinds {
		args[i] = string(k)
	}
	return args
}

// Metrics returns the display metrics of one stored kernel in section
// order.
func (s *Store) Metrics(ctx context.Context, hash string, index int) ([]*MetricRow, error) {
	rows, err := s.metrics.Query(ctx, s.metrics.Select().
		Eq("report_hash", hash).
		Where("kernel_index = ?", int64(index)).
		OrderBy("section_order", "section", "seq"))
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	// A kernel without display metrics is not an error.
	kernels, err := s.kernels.Query(ctx, s.kernels.Select().
		Eq("report_hash", hash).
		Where("kernel_index = ?", int64(index)).
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(kernels) == 0 {
		return nil, fmt.Errorf("kernel %d of report %s: %w", index, hash, ErrNotFound)
	}
	return nil, nil
}

// Hints returns the hints of one stored kernel.
func (s *Store) Hints(ctx context.Context, hash string, index int) ([]*HintRow, error) {
	return s.hints.List(ctx, map[string]any{
		"report_hash":  hash,
		"kernel_index": int64(index),
	})
}

// Delete removes a report and everything stored under it. It reports
// whether a report was removed.
func (s *Store) Delete(ctx context.Context, hash string) (bool, error) {
	var removed int64
	err := retry.Do(ctx, s.retry, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer cerrors.DeferRollback(s.logger, tx)

		for _, table := range []string{s.hints.Name(), s.metrics.Name(), s.kernels.Name()} {
			// #nosec G201 - table names are constants.
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE report_hash = ?", table), hash); err != nil {
				return fmt.Errorf("delete from %s: %w", table, err)
			}
		}
		removed, err = duckdb.NewTable[ReportRow](tx, s.reports.Name()).Delete(ctx, "report_hash", hash)
		if err != nil {
			return err
		}
		return tx.Commit()
	}, duckdb.IsTransactionConflict)
	if err != nil {
		return false, fmt.Errorf("failed to delete report %s: %w", hash, err)
	}
	return removed > 0, nil
}

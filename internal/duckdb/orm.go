package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/coral-mesh/ncurep/internal/retry"
)

// ErrNoPrimaryKey is returned by operations that address a row by key on a
// table whose struct declares no `pk` column.
var ErrNoPrimaryKey = errors.New("no primary key defined for table")

// Execer is an interface that matches both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Table maps rows of one DuckDB table onto the struct type T.
type Table[T any] struct {
	db        Execer
	tableName string
	columns   []string
	pkColumns []string
	immutable map[string]bool
	fieldMap  map[string]int
	retry     retry.Config
}

// NewTable creates a Table[T]. T must be a struct whose persisted fields
// carry `duckdb:"column[,pk][,immutable]"` tags.
func NewTable[T any](db Execer, tableName string) *Table[T] {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		panic("Table generic type T must be a struct")
	}

	table := &Table[T]{
		db:        db,
		tableName: tableName,
		immutable: make(map[string]bool),
		fieldMap:  make(map[string]int),
		retry:     retry.DefaultConfig(),
	}

	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("duckdb")
		if tag == "" || tag == "-" {
			continue
		}

		parts := strings.Split(tag, ",")
		col := strings.TrimSpace(parts[0])
		table.columns = append(table.columns, col)
		table.fieldMap[col] = i

		for _, p := range parts[1:] {
			switch strings.TrimSpace(p) {
			case "pk":
				table.pkColumns = append(table.pkColumns, col)
			case "immutable":
				table.immutable[col] = true
			}
		}
	}

	return table
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.tableName }

// upsertQuery builds INSERT ... ON CONFLICT for the mapped columns.
// PK and immutable columns are excluded from the update set.
func (t *Table[T]) upsertQuery() string {
	placeholders := make([]string, len(t.columns))
	updates := make([]string, 0, len(t.columns))

	for i, col := range t.columns {
		placeholders[i] = "?"
		if !slices.Contains(t.pkColumns, col) && !t.immutable[col] {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}

	// #nosec G201 - table and column names come from struct tags.
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.tableName,
		strings.Join(t.columns, ", "),
		strings.Join(placeholders, ", "),
	)

	if len(t.pkColumns) == 0 {
		return query
	}

	updateClause := "DO NOTHING"
	if len(updates) > 0 {
		updateClause = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	return query + fmt.Sprintf(" ON CONFLICT (%s) %s", strings.Join(t.pkColumns, ", "), updateClause)
}

func (t *Table[T]) values(item *T) []any {
	val := reflect.ValueOf(item).Elem()
	values := make([]any, len(t.columns))
	for i, col := range t.columns {
		values[i] = val.Field(t.fieldMap[col]).Interface()
	}
	return values
}

// Upsert inserts or updates a single item, retrying on transaction
// conflicts unless it runs inside a caller's transaction.
func (t *Table[T]) Upsert(ctx context.Context, item *T) error {
	query := t.upsertQuery()
	values := t.values(item)

	return t.withRetry(ctx, func() error {
		_, err := t.db.ExecContext(ctx, query, values...)
		return err
	})
}

// withRetry runs fn, retrying on transaction conflicts. A conflict aborts
// the caller's transaction, so a table bound to a *sql.Tx runs fn once.
func (t *Table[T]) withRetry(ctx context.Context, fn func() error) error {
	if _, inTx := t.db.(*sql.Tx); inTx {
		return fn()
	}
	return retry.Do(ctx, t.retry, fn, IsTransactionConflict)
}

// BatchUpsert writes items through one prepared statement. On a *sql.DB
// the batch runs in its own transaction, retried as a whole on conflict.
// On a *sql.Tx the caller owns commit and retry.
func (t *Table[T]) BatchUpsert(ctx context.Context, items []*T) error {
	if len(items) == 0 {
		return nil
	}

	switch d := t.db.(type) {
	case *sql.Tx:
		return t.batch(ctx, d, items)
	case *sql.DB:
		return retry.Do(ctx, t.retry, func() error {
			tx, err := d.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin tx: %w", err)
			}
			if err := t.batch(ctx, tx, items); err != nil {
				_ = tx.Rollback()
				return err
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("commit: %w", err)
			}
			return nil
		}, IsTransactionConflict)
	default:
		return fmt.Errorf("unsupported Execer type for BatchUpsert: %T", t.db)
	}
}

func (t *Table[T]) batch(ctx context.Context, tx *sql.Tx, items []*T) error {
	stmt, err := tx.PrepareContext(ctx, t.upsertQuery())
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, t.values(item)...); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// Get retrieves a single item by its value in the first PK column.
// It returns sql.ErrNoRows when nothing matches.
func (t *Table[T]) Get(ctx context.Context, id any) (*T, error) {
	if len(t.pkColumns) == 0 {
		return nil, ErrNoPrimaryKey
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(t.columns, ", "),
		t.tableName,
		t.pkColumns[0],
	)

	var item T
	if err := t.db.QueryRowContext(ctx, query, id).Scan(t.dest(&item)...); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes all rows where column equals value.
func (t *Table[T]) Delete(ctx context.Context, column string, value any) (int64, error) {
	if _, ok := t.fieldMap[column]; !ok {
		return 0, fmt.Errorf("column %s does not exist in table %s", column, t.tableName)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.tableName, column)

	var affected int64
	err := t.withRetry(ctx, func() error {
		res, err := t.db.ExecContext(ctx, query, value)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// Select starts a query builder over this table's mapped columns, for use
// with Query.
func (t *Table[T]) Select() *Builder {
	return NewQueryBuilder(t.tableName).Select(t.columns...)
}

// List retrieves all items matching simple "column = value" filters,
// ordered by the primary key.
func (t *Table[T]) List(ctx context.Context, filters map[string]any) ([]*T, error) {
	b := t.Select()
	for _, col := range slices.Sorted(maps.Keys(filters)) {
		b.Eq(col, filters[col])
	}
	b.OrderBy(t.pkColumns...)
	return t.Query(ctx, b)
}

// Query runs a builder started with Select and scans every row.
func (t *Table[T]) Query(ctx context.Context, b *Builder) ([]*T, error) {
	query, args, err := b.Build()
	if err != nil {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.tableName, err)
	}
	defer func() { _ = rows.Close() }()

	var items []*T
	for rows.Next() {
		var item T
		if err := rows.Scan(t.dest(&item)...); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (t *Table[T]) dest(item *T) []any {
	val := reflect.ValueOf(item).Elem()
	dest := make([]any, len(t.columns))
	for i, col := range t.columns {
		dest[i] = val.Field(t.fieldMap[col]).Addr().Interface()
	}
	return dest
}

// IsTransactionConflict reports whether err looks like a DuckDB write
// conflict that is worth retrying.
func IsTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "conflict") ||
		strings.Contains(msg, "serialization") ||
		strings.Contains(msg, "TransactionContext Error")
}

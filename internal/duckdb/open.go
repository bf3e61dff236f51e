package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net/url"
	"strings"

	duckdbDriver "github.com/marcboeker/go-duckdb"
)

// bootQueries run on every pooled connection.
var bootQueries = []string{
	"SET preserve_insertion_order = true",
}

// OpenDB opens a DuckDB database for reading and writing. An empty DSN or
// ":memory:" opens an in-memory database.
func OpenDB(dsn string) (*sql.DB, error) {
	return open(dsn, nil)
}

// OpenReadOnly opens an existing database file in read-only mode so that
// listings can run while another process imports.
func OpenReadOnly(dsn string) (*sql.DB, error) {
	return open(dsn, url.Values{"access_mode": {"READ_ONLY"}})
}

func open(dsn string, params url.Values) (*sql.DB, error) {
	dsn = injectParams(dsn, params)

	connector, err := duckdbDriver.NewConnector(dsn, func(execer driver.ExecerContext) error {
		ctx := context.Background()
		for _, query := range bootQueries {
			if _, err := execer.ExecContext(ctx, query, nil); err != nil {
				return fmt.Errorf("boot query %q: %w", query, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sql.OpenDB(connector), nil
}

// injectParams adds params to the DSN query string. Parameters already
// present in the DSN win. In-memory DSNs are returned unchanged.
func injectParams(dsn string, params url.Values) string {
	if dsn == "" || dsn == ":memory:" || len(params) == 0 {
		return dsn
	}

	path, query, _ := strings.Cut(dsn, "?")
	existing, err := url.ParseQuery(query)
	if err != nil {
		return dsn
	}

	for key, values := range params {
		if !existing.Has(key) {
			existing[key] = values
		}
	}

	return path + "?" + existing.Encode()
}

// Package duckdb opens the local kernel database and maps Go structs onto
// its tables.
//
// # ORM
//
// Table[T] reads and writes rows of a struct type tagged with `duckdb`
// column names. Writes are upserts retried on DuckDB transaction
// conflicts:
//
//	type kernelRow struct {
//	    ReportHash  string `duckdb:"report_hash,pk"`
//	    KernelIndex int64  `duckdb:"kernel_index,pk"`
//	    Name        string `duckdb:"name"`
//	}
//
//	table := duckdb.NewTable[kernelRow](db, "kernels")
//	err := table.BatchUpsert(ctx, rows)
//
// # Query Builder
//
// Builder generates SELECT statements. Table.Select seeds one with the
// table's columns so the result can be scanned back by Table.Query:
//
//	rows, err := table.Query(ctx, table.Select().
//	    Eq("report_hash", hash).
//	    Contains("name", "gemm").
//	    OrderBy("report_hash", "kernel_index").
//	    Limit(50))
//
// Empty string filters are skipped, which gives wildcard behavior for
// optional CLI flags.
package duckdb

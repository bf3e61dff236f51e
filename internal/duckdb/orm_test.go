package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testKernel struct {
	ReportHash  string  `duckdb:"report_hash,pk"`
	KernelIndex int64   `duckdb:"kernel_index,pk"`
	Name        string  `duckdb:"name"`
	Duration    float64 `duckdb:"duration"`
	ImportID    string  `duckdb:"import_id,immutable"`
	Scratch     string
}

func openTestTable(t *testing.T) (*sql.DB, *Table[testKernel]) {
	t.Helper()

	db, err := OpenDB("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE kernels (
		report_hash TEXT,
		kernel_index BIGINT,
		name TEXT,
		duration DOUBLE,
		import_id TEXT,
		PRIMARY KEY (report_hash, kernel_index)
	)`)
	require.NoError(t, err)

	return db, NewTable[testKernel](db, "kernels")
}

func TestNewTable_Columns(t *testing.T) {
	table := NewTable[testKernel](nil, "kernels")

	assert.Equal(t, "kernels", table.Name())
	assert.Equal(t, []string{"report_hash", "kernel_index", "name", "duration", "import_id"}, table.columns)
	assert.Equal(t,
		"INSERT INTO kernels (report_hash, kernel_index, name, duration, import_id) VALUES (?, ?, ?, ?, ?) "+
			"ON CONFLICT (report_hash, kernel_index) DO UPDATE SET name = excluded.name, duration = excluded.duration",
		table.upsertQuery())
}

func TestNewTable_PanicsOnNonStruct(t *testing.T) {
	assert.Panics(t, func() { NewTable[string](nil, "strings") })
}

func TestTable_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	db, table := openTestTable(t)

	require.NoError(t, table.Upsert(ctx, &testKernel{ReportHash: "a1", KernelIndex: 0, Name: "sgemm", Duration: 1.5, ImportID: "first"}))
	require.NoError(t, table.Upsert(ctx, &testKernel{ReportHash: "a1", KernelIndex: 0, Name: "sgemm_v2", Duration: 2.5, ImportID: "second"}))

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM kernels").Scan(&count))
	assert.Equal(t, 1, count)

	got, err := table.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "sgemm_v2", got.Name)
	assert.Equal(t, 2.5, got.Duration)
	assert.Equal(t, "first", got.ImportID, "immutable column must keep its first value")

	_, err = table.Get(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTable_BatchUpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	_, table := openTestTable(t)

	rows := []*testKernel{
		{ReportHash: "a1", KernelIndex: 0, Name: "ampere_sgemm_128x64"},
		{ReportHash: "a1", KernelIndex: 1, Name: "vectorized_elementwise_kernel"},
		{ReportHash: "b2", KernelIndex: 0, Name: "softmax_warp_forward"},
	}
	require.NoError(t, table.BatchUpsert(ctx, rows))
	require.NoError(t, table.BatchUpsert(ctx, nil))

	all, err := table.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ampere_sgemm_128x64", all[0].Name)
	assert.Equal(t, "softmax_warp_forward", all[2].Name)

	filtered, err := table.List(ctx, map[string]any{"report_hash": "a1", "kernel_index": int64(1)})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "vectorized_elementwise_kernel", filtered[0].Name)

	matched, err := table.Query(ctx, table.Select().Contains("name", "SGEMM"))
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, int64(0), matched[0].KernelIndex)

	limited, err := table.Query(ctx, table.Select().OrderBy("-report_hash").Limit(1))
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "b2", limited[0].ReportHash)
}

func TestTable_BatchUpsertInCallerTx(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestTable(t)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	inTx := NewTable[testKernel](tx, "kernels")
	require.NoError(t, inTx.BatchUpsert(ctx, []*testKernel{{ReportHash: "a1", Name: "sgemm"}}))
	require.NoError(t, tx.Rollback())

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM kernels").Scan(&count))
	assert.Zero(t, count)
}

func TestTable_Delete(t *testing.T) {
	ctx := context.Background()
	_, table := openTestTable(t)

	require.NoError(t, table.BatchUpsert(ctx, []*testKernel{
		{ReportHash: "a1", KernelIndex: 0},
		{ReportHash: "a1", KernelIndex: 1},
		{ReportHash: "b2", KernelIndex: 0},
	}))

	n, err := table.Delete(ctx, "report_hash", "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = table.Delete(ctx, "Scratch", "x")
	assert.Error(t, err)

	rest, err := table.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestIsTransactionConflict(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("TransactionContext Error: Conflict on update!"), true},
		{errors.New("could not commit: serialization failure"), true},
		{errors.New("Catalog Error: Table with name kernels does not exist!"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTransactionConflict(tt.err), "%v", tt.err)
	}
}

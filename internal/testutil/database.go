package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// NewTestDBPath returns the path of a kernel database file inside a
// directory removed when the test completes. The file does not exist yet.
func NewTestDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "db", "kernels.duckdb")
}

// WriteReport writes buf to a temporary .ncu-rep file and returns its path.
func WriteReport(t *testing.T, name string, buf []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatalf("failed to write report fixture: %v", err)
	}
	return path
}

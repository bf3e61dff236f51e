package safe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile(t *testing.T) {
	t.Run("reads regular file", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "profile.ncu-rep")
		content := []byte{0x4e, 0x56, 0x52, 0x00, 0x02, 0x00, 0x00, 0x00, 0x08, 0x03}
		require.NoError(t, os.WriteFile(src, content, 0o644))

		got, err := ReadFile(src, nil)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("rejects symlink by default", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "profile.ncu-rep")
		link := filepath.Join(dir, "link.ncu-rep")
		require.NoError(t, os.WriteFile(src, []byte("test"), 0o644))
		require.NoError(t, os.Symlink(src, link))

		_, err := ReadFile(link, nil)
		require.ErrorIs(t, err, ErrSymlink)

		got, err := ReadFile(link, &ReadOptions{AllowSymlinks: true})
		require.NoError(t, err)
		assert.Equal(t, "test", string(got))
	})

	t.Run("rejects directory", func(t *testing.T) {
		_, err := ReadFile(t.TempDir(), nil)
		require.ErrorIs(t, err, ErrNotRegular)
	})

	t.Run("rejects file exceeding max size", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "big.ncu-rep")
		require.NoError(t, os.WriteFile(src, make([]byte, 1024), 0o644))

		_, err := ReadFile(src, &ReadOptions{MaxSize: 512})
		require.ErrorIs(t, err, ErrFileTooLarge)

		got, err := ReadFile(src, &ReadOptions{MaxSize: 1024})
		require.NoError(t, err)
		assert.Len(t, got, 1024)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(t.TempDir(), "absent"), nil)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

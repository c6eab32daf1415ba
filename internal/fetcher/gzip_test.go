package fetcher

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestGunzipFile_DefaultDestination(t *testing.T) {
	src := filepath.Join(t.TempDir(), "cities.sqlite3.gz")
	writeGzip(t, src, "sqlite bytes")

	dst, err := GunzipFile(src, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(src), "cities.sqlite3"), dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "sqlite bytes", string(data))
}

func TestGunzipFile_NoSuffix(t *testing.T) {
	_, err := GunzipFile("cities.sqlite3", "")
	require.Error(t, err)
}

func TestGunzipFile_NotGzip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bad.gz")
	require.NoError(t, os.WriteFile(src, []byte("plain text"), 0o644))

	_, err := GunzipFile(src, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gzip: read header")
}

package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geodata/internal/config"
	"github.com/sells-group/geodata/internal/fetcher"
)

func TestSnapshotPath(t *testing.T) {
	p, err := snapshotPath("https://example.com/db/cities.sqlite3.gz?raw=1", "temp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("temp", "cities.sqlite3.gz"), p)

	_, err = snapshotPath("https://example.com/", "temp")
	require.Error(t, err)
}

func TestOrSnapshot(t *testing.T) {
	cfg = &config.Config{Importer: config.ImporterConfig{TempDir: "temp"}}

	assert.Equal(t, "my.csv", orSnapshot("my.csv", "https://example.com/states.sqlite3"))
	assert.Equal(t, filepath.Join("temp", "cities.sqlite3"), orSnapshot("", "https://example.com/cities.sqlite3.gz"))
}

func TestSyncSnapshot_Gunzips(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte("id,name\n1,Балашиха\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(gz.Bytes())
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})

	p, err := syncSnapshot(context.Background(), f, srv.URL+"/cities.csv.gz", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cities.csv"), p)
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Балашиха\n", string(b))

	p, err = syncSnapshot(context.Background(), f, srv.URL+"/cities.csv.gz", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cities.csv"), p)
	assert.Equal(t, 2, hits)
}

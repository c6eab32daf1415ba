// Package fetcher downloads snapshot files over HTTP and parses CSV, JSON and XLSX rows.
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote snapshots.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// DownloadIfChanged fetches the URL only if its ETag differs from etag.
	// Returns (body, newETag, changed, error). If not changed, body is nil.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}

// Record is one parsed row keyed by its header column.
type Record map[string]string

// Records pairs each row with the header. Short rows yield empty strings for
// missing columns; extra cells are dropped.
func Records(header []string, rows [][]string) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

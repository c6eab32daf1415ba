package fetcher

import (
	"compress/gzip"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// GunzipFile decompresses src into dst. When dst is empty it is src without
// its ".gz" suffix. Returns the destination path.
func GunzipFile(src, dst string) (string, error) {
	if dst == "" {
		if !strings.HasSuffix(src, ".gz") {
			return "", eris.Errorf("gzip: %s has no .gz suffix", src)
		}
		dst = strings.TrimSuffix(src, ".gz")
	}

	in, err := os.Open(src)
	if err != nil {
		return "", eris.Wrap(err, "gzip: open archive")
	}
	defer in.Close() //nolint:errcheck

	zr, err := gzip.NewReader(in)
	if err != nil {
		return "", eris.Wrap(err, "gzip: read header")
	}
	defer zr.Close() //nolint:errcheck

	if _, err := writeAtomically(dst, zr); err != nil {
		return "", eris.Wrap(err, "gzip: extract")
	}
	return dst, nil
}

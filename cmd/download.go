package main

import (
	"context"
	"fmt"
	"net/url"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/fetcher"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the states and cities snapshots into the temp directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{UserAgent: cfg.Importer.UserAgent})
		for _, u := range []string{cfg.Importer.StatesURL, cfg.Importer.CitiesURL} {
			p, err := syncSnapshot(ctx, f, u, cfg.Importer.TempDir)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}

// snapshotPath maps a snapshot URL to its file under dir.
func snapshotPath(rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "download: parse url %q", rawURL)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", eris.Errorf("download: url %q has no file name", rawURL)
	}
	return filepath.Join(dir, name), nil
}

// syncSnapshot refreshes one snapshot and returns the usable (decompressed) path.
func syncSnapshot(ctx context.Context, f *fetcher.HTTPFetcher, rawURL, dir string) (string, error) {
	dst, err := snapshotPath(rawURL, dir)
	if err != nil {
		return "", err
	}
	changed, err := f.SyncFile(ctx, rawURL, dst)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(dst, ".gz") {
		return dst, nil
	}
	out := strings.TrimSuffix(dst, ".gz")
	if changed || !exists(out) {
		if _, err := fetcher.GunzipFile(dst, out); err != nil {
			return "", err
		}
		zap.L().Info("download: extracted snapshot", zap.String("path", out))
	}
	return out, nil
}

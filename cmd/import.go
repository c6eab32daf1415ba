package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/fetcher"
	"github.com/sells-group/geodata/internal/importer"
	"github.com/sells-group/geodata/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import reference data snapshots",
	Long:  "Loads countries, administrative divisions and cities from SQLite, CSV, XLSX or JSON snapshots.",
}

var importCountriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "Import parts of the world, regions and countries from a JSON file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		file, _ := cmd.Flags().GetString("file")
		f, err := os.Open(file)
		if err != nil {
			return eris.Wrap(err, "import countries: open file")
		}
		defer f.Close() //nolint:errcheck

		recs, err := importer.ReadCountries(ctx, f)
		if err != nil {
			return err
		}

		return withImporter(ctx, func(im *importer.Importer) error {
			stats, err := im.ImportCountries(ctx, recs)
			if err != nil {
				return err
			}
			return renderStats(cmd, stats)
		})
	},
}

var importStatesCmd = &cobra.Command{
	Use:   "states",
	Short: "Import administrative divisions and wire their parents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		file, _ := cmd.Flags().GetString("file")
		table, _ := cmd.Flags().GetString("table")
		recs, err := readSnapshot(ctx, orSnapshot(file, cfg.Importer.StatesURL), table)
		if err != nil {
			return err
		}
		rows, err := importer.StateRows(recs)
		if err != nil {
			return err
		}

		return withImporter(ctx, func(im *importer.Importer) error {
			res, err := im.ImportStates(ctx, rows)
			if res != nil {
				if rerr := render(cmd.OutOrStdout(), outputFormat(cmd), res, func(w io.Writer) {
					formatStats(w, []namedStats{
						{importer.DatasetStates, res.Nodes},
						{importer.DatasetStatesParents, res.Parents},
					})
				}); rerr != nil {
					return rerr
				}
			}
			return err
		})
	},
}

var importCitiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "Import cities under their administrative divisions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		file, _ := cmd.Flags().GetString("file")
		table, _ := cmd.Flags().GetString("table")
		recs, err := readSnapshot(ctx, orSnapshot(file, cfg.Importer.CitiesURL), table)
		if err != nil {
			return err
		}
		rows, err := importer.CityRows(recs)
		if err != nil {
			return err
		}

		return withImporter(ctx, func(im *importer.Importer) error {
			stats, err := im.ImportCities(ctx, rows)
			if err != nil {
				return err
			}
			return renderStats(cmd, stats)
		})
	},
}

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Show the import log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListImports(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "imports")
		}
		if len(runs) == 0 {
			zap.L().Info("no imports recorded, run 'import states' to start")
			return nil
		}
		return render(cmd.OutOrStdout(), outputFormat(cmd), runs, func(w io.Writer) {
			formatImportRuns(w, runs)
		})
	},
}

func init() {
	importCountriesCmd.Flags().String("file", "", "countries JSON file")
	_ = importCountriesCmd.MarkFlagRequired("file")

	importStatesCmd.Flags().String("file", "", "states snapshot (default: downloaded file in temp_dir)")
	importStatesCmd.Flags().String("table", "states", "table name for SQLite snapshots")

	importCitiesCmd.Flags().String("file", "", "cities snapshot (default: downloaded file in temp_dir)")
	importCitiesCmd.Flags().String("table", "cities", "table name for SQLite snapshots")

	importsCmd.Flags().Int("limit", 20, "number of runs to show")

	importCmd.AddCommand(importCountriesCmd, importStatesCmd, importCitiesCmd)
	rootCmd.AddCommand(importCmd, importsCmd)
}

func withImporter(ctx context.Context, fn func(im *importer.Importer) error) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	im := importer.New(st, importer.Options{TargetLang: cfg.Importer.TargetLang})
	zap.L().Info("import started", zap.String("run_id", im.RunID()))
	return fn(im)
}

func readSnapshot(ctx context.Context, path, table string) ([]fetcher.Record, error) {
	src, err := importer.SourceFor(path, table)
	if err != nil {
		return nil, err
	}
	recs, err := src.Records(ctx)
	if err != nil {
		return nil, err
	}
	zap.L().Info("snapshot loaded", zap.Stringer("source", src), zap.Int("rows", len(recs)))
	return recs, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type namedStats struct {
	Dataset string
	Stats   importer.Stats
}

func renderStats(cmd *cobra.Command, stats *importer.Stats) error {
	return render(cmd.OutOrStdout(), outputFormat(cmd), stats, func(w io.Writer) {
		formatStats(w, []namedStats{{cmd.Name(), *stats}})
	})
}

func formatStats(out io.Writer, rows []namedStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATASET\tTOTAL\tCREATED\tUPDATED\tSKIPPED\tERRORS\tAMBIGUOUS")
	for _, r := range rows {
		s := r.Stats
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.Dataset, s.Total, s.Created, s.Updated, s.Skipped, s.Errors, s.Ambiguous)
	}
	_ = w.Flush()
}

// formatImportRuns writes a tabular representation of import runs to out.
func formatImportRuns(out io.Writer, runs []model.ImportRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDATASET\tSTATUS\tSTARTED\tDURATION\tTOTAL\tCREATED\tUPDATED\tSKIPPED\tERROR")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t-------\t--------\t-----\t-------\t-------\t-------\t-----")

	for _, r := range runs {
		dur := "-"
		if r.CompletedAt != nil {
			dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		errMsg := ""
		if r.Error != nil {
			errMsg = truncate(*r.Error, 60)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID,
			r.Dataset,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
			r.Total,
			r.Created,
			r.Updated,
			r.Skipped,
			errMsg,
		)
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

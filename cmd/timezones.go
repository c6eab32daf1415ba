package main

import (
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/geodata/internal/importer"
)

var timezonesCmd = &cobra.Command{
	Use:   "timezones",
	Short: "Seed time zones named by the states and cities snapshots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		statesFile, _ := cmd.Flags().GetString("states")
		citiesFile, _ := cmd.Flags().GetString("cities")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stateRecs, err := readSnapshot(ctx, orSnapshot(statesFile, cfg.Importer.StatesURL), "states")
		if err != nil {
			return err
		}
		states, err := importer.StateRows(stateRecs)
		if err != nil {
			return err
		}
		cityRecs, err := readSnapshot(ctx, orSnapshot(citiesFile, cfg.Importer.CitiesURL), "cities")
		if err != nil {
			return err
		}
		cities, err := importer.CityRows(cityRecs)
		if err != nil {
			return err
		}

		im := importer.New(st, importer.Options{TargetLang: cfg.Importer.TargetLang})
		stats, err := im.SeedTimeZones(ctx, importer.TimeZoneNames(states, cities))
		if err != nil {
			return err
		}
		return renderStats(cmd, stats)
	},
}

func init() {
	timezonesCmd.Flags().String("states", "", "states snapshot (default: downloaded file in temp_dir)")
	timezonesCmd.Flags().String("cities", "", "cities snapshot (default: downloaded file in temp_dir)")
	rootCmd.AddCommand(timezonesCmd)
}

// orSnapshot returns file, or the decompressed download location of rawURL.
func orSnapshot(file, rawURL string) string {
	if file != "" {
		return file
	}
	p, err := snapshotPath(rawURL, cfg.Importer.TempDir)
	if err != nil {
		return filepath.Join(cfg.Importer.TempDir, filepath.Base(rawURL))
	}
	return strings.TrimSuffix(p, ".gz")
}

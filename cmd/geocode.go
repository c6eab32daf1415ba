package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/geodata/internal/quota"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocoding provider usage",
}

type quotaReport struct {
	Today   *quota.Status  `json:"today" yaml:"today"`
	History []quota.Status `json:"history" yaml:"history"`
}

var geocodeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's provider calls against the daily limit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		days, _ := cmd.Flags().GetInt("days")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		counter := quota.New(st, cfg.Geocoder.DailyLimit)
		today, err := counter.Today(ctx)
		if err != nil {
			return err
		}
		history, err := counter.History(ctx, days)
		if err != nil {
			return err
		}

		report := quotaReport{Today: today, History: history}
		return render(cmd.OutOrStdout(), outputFormat(cmd), report, func(w io.Writer) {
			formatQuota(w, history)
		})
	},
}

func init() {
	geocodeStatusCmd.Flags().Int("days", 7, "days of history to show")
	geocodeCmd.AddCommand(geocodeStatusCmd)
	rootCmd.AddCommand(geocodeCmd)
}

func formatQuota(out io.Writer, rows []quota.Status) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tCALLS\tLIMIT\tREMAINING")
	for _, s := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", s.Date, s.Count, s.Limit, s.Remaining)
	}
	_ = w.Flush()
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/geodata/internal/ipgeo"
)

var ipCmd = &cobra.Command{
	Use:   "ip",
	Short: "IP address lookups",
}

var ipCountryCmd = &cobra.Command{
	Use:   "country <ip>",
	Short: "Resolve the stored country of an IP address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("ipgeo"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		r, err := ipgeo.Open(cfg.IPGeo.Database, st)
		if err != nil {
			return err
		}
		defer r.Close() //nolint:errcheck

		c, err := r.Country(ctx, args[0])
		if err != nil {
			return err
		}
		if c == nil {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "unknown")
			return nil
		}
		return render(cmd.OutOrStdout(), outputFormat(cmd), c, func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", args[0], c.NameRU)
		})
	},
}

func init() {
	ipCmd.AddCommand(ipCountryCmd)
	rootCmd.AddCommand(ipCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect administrative divisions",
}

var nodePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the full path of a node or a city",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		nodeID, _ := cmd.Flags().GetInt64("id")
		cityID, _ := cmd.Flags().GetInt64("city")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var p string
		if cityID > 0 {
			p, err = st.CityPath(ctx, cityID)
		} else {
			p, err = st.NodePath(ctx, nodeID)
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	nodePathCmd.Flags().Int64("id", 0, "node id")
	nodePathCmd.Flags().Int64("city", 0, "city id (takes precedence over --id)")
	nodePathCmd.MarkFlagsOneRequired("id", "city")
	nodeCmd.AddCommand(nodePathCmd)
	rootCmd.AddCommand(nodeCmd)
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/store"
)

var streetCmd = &cobra.Command{
	Use:   "street",
	Short: "Manage streets",
}

var streetAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a street to a city",
	Long:  "Adds a street, resolving its type from an abbreviation or spelling such as \"ул.\" or \"avenue\". An existing street with the same name is reused.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cityID, _ := cmd.Flags().GetInt64("city")
		typeToken, _ := cmd.Flags().GetString("type")
		name, _ := cmd.Flags().GetString("name")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		s, err := addStreet(ctx, st, cityID, typeToken, name)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", s.ID, s.NameNative)
		return nil
	},
}

func init() {
	streetAddCmd.Flags().Int64("city", 0, "city id")
	streetAddCmd.Flags().String("type", "ул.", "street type abbreviation or spelling")
	streetAddCmd.Flags().String("name", "", "street name")
	_ = streetAddCmd.MarkFlagRequired("city")
	_ = streetAddCmd.MarkFlagRequired("name")
	streetCmd.AddCommand(streetAddCmd)
	rootCmd.AddCommand(streetCmd)
}

func addStreet(ctx context.Context, st store.Queries, cityID int64, typeToken, name string) (*model.Street, error) {
	if _, err := st.GetCity(ctx, cityID); err != nil {
		return nil, eris.Wrapf(err, "street add: city %d", cityID)
	}
	typ, err := st.ResolveStreetType(ctx, typeToken)
	if err != nil {
		return nil, eris.Wrapf(err, "street add: street type %q", typeToken)
	}

	s := &model.Street{CityID: cityID, StreetTypeID: typ.ID}
	s.SetName(name)
	if s.NameNative == "" {
		return nil, eris.Wrap(model.ErrInvalid, "street add: name is required")
	}

	existing, err := st.FindStreet(ctx, cityID, s.NameNative)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	if err := st.CreateStreet(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

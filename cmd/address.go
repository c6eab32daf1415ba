package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/address"
	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/quota"
	"github.com/sells-group/geodata/pkg/geocode"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Compose, geocode and store postal addresses",
}

var addressSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a base address (street + house) and geocode it",
	Long:  "Saves a base address and geocodes it when unverified. Accepts --output geojson in addition to the global formats.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		streetID, _ := cmd.Flags().GetInt64("street")
		house, _ := cmd.Flags().GetString("house")
		building, _ := cmd.Flags().GetString("building")

		return withAddressService(cmd.Context(), func(svc *address.Service) error {
			b := &model.BaseAddress{StreetID: streetID, House: house, Building: building}
			if err := svc.SaveBaseAddress(cmd.Context(), b); err != nil {
				return err
			}
			if outputFormat(cmd) == "geojson" {
				return writeFeature(cmd.OutOrStdout(), b)
			}
			return render(cmd.OutOrStdout(), outputFormat(cmd), b, func(w io.Writer) {
				formatBaseAddress(w, b)
			})
		})
	},
}

var addressUnitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Add an entrance and apartment to a saved base address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		baseID, _ := cmd.Flags().GetInt64("base")
		entrance, _ := cmd.Flags().GetInt("entrance")
		apartment, _ := cmd.Flags().GetInt("apartment")

		a := &model.Address{BaseID: baseID, Entrance: entrance, Apartment: apartment, IsActive: true}
		if cmd.Flags().Changed("floor") {
			floor, _ := cmd.Flags().GetInt("floor")
			a.Floor = &floor
		}
		if cmd.Flags().Changed("intercom") {
			intercom, _ := cmd.Flags().GetInt("intercom")
			a.Intercom = &intercom
		}

		return withAddressService(cmd.Context(), func(svc *address.Service) error {
			if err := svc.SaveAddress(cmd.Context(), a); err != nil {
				return err
			}
			view, err := svc.Describe(cmd.Context(), a.ID)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outputFormat(cmd), view, func(w io.Writer) {
				_, _ = fmt.Fprintf(w, "%d\t%s\n", view.Address.ID, view.FullAddress)
			})
		})
	},
}

var addressReverifyCmd = &cobra.Command{
	Use:   "reverify",
	Short: "Geocode unverified base addresses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.Address.ReverifyBatch
		}

		return withAddressService(ctx, func(svc *address.Service) error {
			stats, err := svc.Reverify(ctx, limit)
			if stats != nil {
				if rerr := render(cmd.OutOrStdout(), outputFormat(cmd), stats, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
					_, _ = fmt.Fprintln(tw, "TOTAL\tVERIFIED\tUNVERIFIED\tFAILED\tBREAKER")
					_, _ = fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%t\n",
						stats.Total, stats.Verified, stats.Unverified, stats.Failed, stats.BreakerTripped)
					_ = tw.Flush()
				}); rerr != nil {
					return rerr
				}
			}
			return err
		})
	},
}

func init() {
	addressSaveCmd.Flags().Int64("street", 0, "street id")
	addressSaveCmd.Flags().String("house", "", "house number")
	addressSaveCmd.Flags().String("building", "", "building (корпус)")
	_ = addressSaveCmd.MarkFlagRequired("street")
	_ = addressSaveCmd.MarkFlagRequired("house")

	addressUnitCmd.Flags().Int64("base", 0, "base address id")
	addressUnitCmd.Flags().Int("entrance", 1, "entrance number")
	addressUnitCmd.Flags().Int("floor", 0, "floor")
	addressUnitCmd.Flags().Int("apartment", 0, "apartment number")
	addressUnitCmd.Flags().Int("intercom", 0, "intercom code")
	_ = addressUnitCmd.MarkFlagRequired("base")
	_ = addressUnitCmd.MarkFlagRequired("apartment")

	addressReverifyCmd.Flags().Int("limit", 0, "max base addresses to process (default: address.reverify_batch)")

	addressCmd.AddCommand(addressSaveCmd, addressUnitCmd, addressReverifyCmd)
	rootCmd.AddCommand(addressCmd)
}

// newGeocoder builds the provider client from config.
func newGeocoder() geocode.Client {
	return geocode.NewClient(cfg.Geocoder.APIKey,
		geocode.WithBaseURL(cfg.Geocoder.BaseURL),
		geocode.WithLang(cfg.Geocoder.Lang),
		geocode.WithTimeout(time.Duration(cfg.Geocoder.TimeoutSecs)*time.Second),
		geocode.WithRateLimit(cfg.Geocoder.RateLimit),
	)
}

func withAddressService(ctx context.Context, fn func(svc *address.Service) error) error {
	if err := cfg.Validate("geocode"); err != nil {
		return err
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	svc := address.NewService(st, newGeocoder(), quota.New(st, cfg.Geocoder.DailyLimit),
		address.WithConcurrency(cfg.Address.ReverifyConcurrency),
	)
	zap.L().Debug("address service ready", zap.Int("daily_limit", cfg.Geocoder.DailyLimit))
	return fn(svc)
}

func formatBaseAddress(out io.Writer, b *model.BaseAddress) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID\t%d\n", b.ID)
	_, _ = fmt.Fprintf(w, "FULL\t%s\n", deref(b.FullAddress))
	_, _ = fmt.Fprintf(w, "NORMAL\t%s\n", deref(b.NormalAddress))
	_, _ = fmt.Fprintf(w, "POSTAL CODE\t%s\n", deref(b.PostalCode))
	if lat, lon, ok := b.Coordinates(); ok {
		_, _ = fmt.Fprintf(w, "POINT\t%.6f,%.6f\n", lat, lon)
	}
	_, _ = fmt.Fprintf(w, "VERIFIED\t%t\n", b.IsVerified)
	_ = w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

// writeFeature writes the address as a GeoJSON feature, or "null" when it has no point.
func writeFeature(out io.Writer, b *model.BaseAddress) error {
	return json.NewEncoder(out).Encode(address.Feature(b))
}

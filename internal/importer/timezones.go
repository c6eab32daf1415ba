package importer

import (
	"context"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/store"
)

// TimeZoneNames returns the distinct non-empty zone names used by the snapshots, sorted.
func TimeZoneNames(states []StateRow, cities []CityRow) []string {
	names := append(
		lo.Map(states, func(r StateRow, _ int) string { return r.TimeZone }),
		lo.Map(cities, func(r CityRow, _ int) string { return r.TimeZone })...,
	)
	names = lo.Uniq(lo.Compact(names))
	slices.Sort(names)
	return names
}

// SeedTimeZones upserts one timezone per name with its current whole-hour shift.
// Names unknown to the tz database are skipped.
func (im *Importer) SeedTimeZones(ctx context.Context, names []string) (*Stats, error) {
	stats := &Stats{Total: len(names)}
	now := im.now()

	err := im.pass(ctx, DatasetTimeZones, stats, func(q store.Queries) error {
		for _, name := range names {
			z, err := model.NewTimeZone(name, now)
			if err != nil {
				stats.Skipped++
				im.log.Warn("importer: unknown timezone", zap.String("name", name), zap.Error(err))
				continue
			}
			if err := q.UpsertTimeZone(ctx, &z); err != nil {
				stats.Errors++
				return err
			}
			stats.Created++
		}
		return nil
	})
	return stats, err
}

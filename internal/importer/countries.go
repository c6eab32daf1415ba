package importer

import (
	"context"
	"errors"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/fetcher"
	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/store"
)

// CountryRecord is one element of the countries JSON file. The continent and
// world region are nested and upserted by English name.
type CountryRecord struct {
	PartWorld   model.PartWorld   `json:"part_world"`
	RegionWorld model.RegionWorld `json:"region_world"`
	model.Country
}

// ReadCountries decodes a JSON array of CountryRecord.
func ReadCountries(ctx context.Context, r io.Reader) ([]CountryRecord, error) {
	recs, err := fetcher.DecodeJSONArray[CountryRecord](ctx, r)
	if err != nil {
		return nil, eris.Wrap(err, "importer: read countries")
	}
	return recs, nil
}

// ImportCountries upserts continents, world regions and countries. Countries
// failing validation are skipped with a warning; every other error is fatal.
func (im *Importer) ImportCountries(ctx context.Context, recs []CountryRecord) (*Stats, error) {
	stats := &Stats{Total: len(recs)}

	err := im.pass(ctx, DatasetCountries, stats, func(q store.Queries) error {
		parts := make(map[string]int64)
		regions := make(map[string]int64)

		for _, rec := range recs {
			partID, ok := parts[rec.PartWorld.NameEN]
			if !ok {
				p := rec.PartWorld
				if err := q.UpsertPartWorld(ctx, &p); err != nil {
					return err
				}
				partID = p.ID
				parts[p.NameEN] = partID
			}

			regionID, ok := regions[rec.RegionWorld.NameEN]
			if !ok {
				rw := rec.RegionWorld
				rw.PartWorldID = partID
				if err := q.UpsertRegionWorld(ctx, &rw); err != nil {
					return err
				}
				regionID = rw.ID
				regions[rw.NameEN] = regionID
			}

			c := rec.Country
			c.RegionWorldID = regionID
			_, existed, err := im.existingCountry(ctx, q, c)
			if err != nil {
				return err
			}
			if err := q.UpsertCountry(ctx, &c); err != nil {
				if errors.Is(err, model.ErrInvalid) {
					stats.Skipped++
					im.log.Warn("importer: country skipped", zap.String("country", c.NameEN), zap.Error(err))
					continue
				}
				stats.Errors++
				return err
			}
			if existed {
				stats.Updated++
			} else {
				stats.Created++
			}
		}
		return nil
	})
	return stats, err
}

func (im *Importer) existingCountry(ctx context.Context, q store.Queries, c model.Country) (*model.Country, bool, error) {
	if c.CCA2 == nil {
		return nil, false, nil
	}
	return miss(q.GetCountryByCode(ctx, *c.CCA2))
}

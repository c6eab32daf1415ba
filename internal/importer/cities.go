package importer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/refcache"
	"github.com/sells-group/geodata/internal/store"
)

// ImportCities creates or refreshes one city per row in a single pass.
func (im *Importer) ImportCities(ctx context.Context, rows []CityRow) (*Stats, error) {
	stats := &Stats{Total: len(rows)}

	err := im.pass(ctx, DatasetCities, stats, func(q store.Queries) error {
		r := newRefs(q)
		nodes := im.nodeResolver(q)
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "importer: cities cancelled")
			}
			if err := im.upsertCity(ctx, q, r, nodes, row, stats); err != nil {
				stats.Errors++
				im.log.Error("importer: city row failed", zap.Int64("row_id", row.SourceID), zap.Error(err))
				return eris.Wrapf(err, "importer: city row %d", row.SourceID)
			}
			if (i+1)%citiesProgressEvery == 0 {
				im.progress(DatasetCities, i+1, stats)
			}
		}
		return nil
	})
	return stats, err
}

// nodeResolver maps "CC-SS" codes to nodes, falling back to the first node of
// the country when no node carries the code.
func (im *Importer) nodeResolver(q store.Queries) *refcache.Cache[string, *model.Node] {
	return refcache.New(func(ctx context.Context, iso string) (*model.Node, bool, error) {
		n, ok, err := miss(q.FindNodeByISOCode(ctx, iso))
		if err != nil || ok {
			return n, ok, err
		}
		cca2, _, _ := strings.Cut(iso, "-")
		n, ok, err = miss(q.FirstNodeOfCountry(ctx, cca2))
		if ok {
			im.log.Debug("importer: city node resolved by country fallback",
				zap.String("iso", iso), zap.Int64("node_id", n.ID))
		}
		return n, ok, err
	})
}

func (im *Importer) upsertCity(ctx context.Context, q store.Queries, r *refs,
	nodes *refcache.Cache[string, *model.Node], row CityRow, stats *Stats,
) error {
	node, ok, err := nodes.Get(ctx, row.NodeISO())
	if err != nil {
		return err
	}
	if !ok {
		return eris.Wrapf(ErrUnresolvedNode, "importer: node code %q", row.NodeISO())
	}
	zoneID, err := r.timeZone(ctx, row.TimeZone)
	if err != nil {
		return err
	}
	createdAt, updatedAt, err := im.feedTimes(row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return err
	}

	c := &model.City{
		NodeID:     node.ID,
		NameRU:     row.Translations.Name(im.lang, row.Name),
		NameEN:     row.Name,
		NameNative: orDefault(row.Native, row.Name),
		Latitude:   row.Latitude,
		Longitude:  row.Longitude,
		TimeZoneID: zoneID,
		Population: row.Population,
		WikiDataID: row.WikiDataID,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}

	existing, found, err := miss(q.FindCity(ctx, node.ID, c.NameRU))
	if err != nil {
		return err
	}
	switch {
	case !found:
		if err := q.CreateCity(ctx, c); err != nil {
			return err
		}
		stats.Created++
	case updatedAt.After(existing.UpdatedAt):
		c.ID = existing.ID
		if err := q.UpdateCity(ctx, c); err != nil {
			return err
		}
		stats.Updated++
	default:
		stats.Skipped++
	}
	return nil
}

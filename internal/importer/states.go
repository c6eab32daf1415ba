package importer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/store"
)

// StatesResult holds the counters of both states passes.
type StatesResult struct {
	Nodes   Stats `json:"nodes" yaml:"nodes"`
	Parents Stats `json:"parents" yaml:"parents"`
}

// ImportStates creates or refreshes one node per row, then wires parent
// references. Any fatal row aborts its pass; a failed first pass skips the second.
func (im *Importer) ImportStates(ctx context.Context, rows []StateRow) (*StatesResult, error) {
	res := &StatesResult{}
	res.Nodes.Total = len(rows)
	ids := make(map[int64]int64, len(rows))

	err := im.pass(ctx, DatasetStates, &res.Nodes, func(q store.Queries) error {
		r := newRefs(q)
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "importer: states cancelled")
			}
			id, err := im.upsertState(ctx, q, r, row, &res.Nodes)
			if err != nil {
				res.Nodes.Errors++
				im.log.Error("importer: state row failed", zap.Int64("row_id", row.SourceID), zap.Error(err))
				return eris.Wrapf(err, "importer: state row %d", row.SourceID)
			}
			ids[row.SourceID] = id
			if (i+1)%statesProgressEvery == 0 {
				im.progress(DatasetStates, i+1, &res.Nodes)
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	withParent := 0
	for _, row := range rows {
		if row.ParentSourceID != nil {
			withParent++
		}
	}
	res.Parents.Total = withParent

	err = im.pass(ctx, DatasetStatesParents, &res.Parents, func(q store.Queries) error {
		done := 0
		for _, row := range rows {
			if row.ParentSourceID == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "importer: parents cancelled")
			}
			if err := im.wireParent(ctx, q, row, ids, &res.Parents); err != nil {
				res.Parents.Errors++
				im.log.Error("importer: parent wiring failed",
					zap.Int64("row_id", row.SourceID),
					zap.Int64("parent_row_id", *row.ParentSourceID),
					zap.Error(err),
				)
				return eris.Wrapf(err, "importer: parent of state row %d", row.SourceID)
			}
			done++
			if done%parentsProgressEvery == 0 {
				im.progress(DatasetStatesParents, done, &res.Parents)
			}
		}
		return nil
	})
	return res, err
}

func (im *Importer) upsertState(ctx context.Context, q store.Queries, r *refs, row StateRow, stats *Stats) (int64, error) {
	country, err := r.country(ctx, row.CountryCode)
	if err != nil {
		return 0, err
	}
	typeID, err := r.nodeType(ctx, row.Type)
	if err != nil {
		return 0, err
	}
	zoneID, err := r.timeZone(ctx, row.TimeZone)
	if err != nil {
		return 0, err
	}
	createdAt, updatedAt, err := im.feedTimes(row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return 0, err
	}

	existing, err := im.matchNode(ctx, q, country.ID, row, stats)
	if err != nil {
		return 0, err
	}

	n := &model.Node{
		CountryID:  country.ID,
		NodeTypeID: typeID,
		Level:      row.Level,
		NameRU:     row.Translations.Name(im.lang, row.Name),
		NameEN:     row.Name,
		NameNative: orDefault(row.Native, row.Name),
		Latitude:   row.Latitude,
		Longitude:  row.Longitude,
		TimeZoneID: zoneID,
		Population: row.Population,
		ISOCode:    row.ISO3166_2,
		WikiDataID: row.WikiDataID,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}

	switch {
	case existing == nil:
		if err := q.CreateNode(ctx, n); err != nil {
			return 0, err
		}
		stats.Created++
		return n.ID, nil
	case updatedAt.After(existing.UpdatedAt):
		n.ID = existing.ID
		n.ParentID = existing.ParentID
		if err := q.UpdateNode(ctx, n); err != nil {
			return 0, err
		}
		stats.Updated++
		return n.ID, nil
	default:
		stats.Skipped++
		return existing.ID, nil
	}
}

// matchNode finds the stored node for row by subdivision code, then by English
// name. When both match different nodes the code match wins and the row is
// counted as ambiguous.
func (im *Importer) matchNode(ctx context.Context, q store.Queries, countryID int64, row StateRow, stats *Stats) (*model.Node, error) {
	var byISO *model.Node
	if row.ISO3166_2 != nil {
		n, ok, err := miss(q.FindNodeByISO(ctx, countryID, *row.ISO3166_2))
		if err != nil {
			return nil, err
		}
		if ok {
			byISO = n
		}
	}

	byName, ok, err := miss(q.FindNodeByNameEN(ctx, countryID, row.Name))
	if err != nil {
		return nil, err
	}
	if !ok {
		byName = nil
	}

	switch {
	case byISO != nil && byName != nil && byISO.ID != byName.ID:
		stats.Ambiguous++
		im.log.Warn("importer: ambiguous state match, using subdivision code",
			zap.Int64("row_id", row.SourceID),
			zap.Int64("iso_node", byISO.ID),
			zap.Int64("name_node", byName.ID),
		)
		return byISO, nil
	case byISO != nil:
		return byISO, nil
	default:
		return byName, nil
	}
}

func (im *Importer) wireParent(ctx context.Context, q store.Queries, row StateRow, ids map[int64]int64, stats *Stats) error {
	nodeID, ok := ids[row.SourceID]
	if !ok {
		return eris.Wrapf(ErrUnresolvedParent, "importer: no node for row %d", row.SourceID)
	}
	parentID, ok := ids[*row.ParentSourceID]
	if !ok {
		return eris.Wrapf(ErrUnresolvedParent, "importer: parent row %d not in snapshot", *row.ParentSourceID)
	}

	n, err := q.GetNode(ctx, nodeID)
	if err != nil {
		return err
	}
	if n.ParentID != nil && *n.ParentID == parentID {
		stats.Skipped++
		return nil
	}
	if err := q.SetNodeParent(ctx, nodeID, &parentID); err != nil {
		return err
	}
	stats.Updated++
	return nil
}

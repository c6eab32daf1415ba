package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/model"
)

const streetTypeColumns = `id, short_ru, short_en, long_ru, long_en, variants_ru, variants_en, sort_order`

func scanStreetType(r row) (*model.StreetType, error) {
	var (
		t                      model.StreetType
		variantsRU, variantsEN string
	)
	if err := r.Scan(&t.ID, &t.ShortRU, &t.ShortEN, &t.LongRU, &t.LongEN, &variantsRU, &variantsEN, &t.Order); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(variantsRU), &t.VariantsRU); err != nil {
		return nil, eris.Wrapf(err, "store: decode variants_ru of street type %d", t.ID)
	}
	if err := json.Unmarshal([]byte(variantsEN), &t.VariantsEN); err != nil {
		return nil, eris.Wrapf(err, "store: decode variants_en of street type %d", t.ID)
	}
	return &t, nil
}

// ListStreetTypes returns every street type in display order.
func (q *queries) ListStreetTypes(ctx context.Context) ([]model.StreetType, error) {
	rs, err := q.c.query(ctx, `SELECT `+streetTypeColumns+` FROM geo_streets_types ORDER BY sort_order, id`)
	if err != nil {
		return nil, eris.Wrap(err, "store: list street types")
	}
	defer rs.Close()

	var types []model.StreetType
	for rs.Next() {
		t, err := scanStreetType(rs)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan street type")
		}
		types = append(types, *t)
	}
	return types, eris.Wrap(rs.Err(), "store: iterate street types")
}

func (q *queries) GetStreetType(ctx context.Context, id int64) (*model.StreetType, error) {
	t, err := scanStreetType(q.c.queryRow(ctx, `SELECT `+streetTypeColumns+` FROM geo_streets_types WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "store: get street type %d", id)
	}
	return t, nil
}

const streetColumns = `id, city_id, street_type_id, name_native, name_lower, created_at, updated_at`

func scanStreet(r row) (*model.Street, error) {
	var s model.Street
	if err := r.Scan(&s.ID, &s.CityID, &s.StreetTypeID, &s.NameNative, &s.NameLower, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateStreet inserts a street, recomputing its lower-cased lookup name.
// A same-name street in the city, in any case, yields ErrDuplicate.
func (q *queries) CreateStreet(ctx context.Context, s *model.Street) error {
	s.SetName(s.NameNative)
	if s.NameNative == "" {
		return eris.Wrap(model.ErrInvalid, "store: street name is required")
	}
	now := q.now()
	s.CreatedAt, s.UpdatedAt = now, now

	err := q.c.queryRow(ctx, `
		INSERT INTO geo_streets (city_id, street_type_id, name_native, name_lower, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		s.CityID, s.StreetTypeID, s.NameNative, s.NameLower, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	return writeErrOrNil(err, "store: create street %q in city %d", s.NameNative, s.CityID)
}

func (q *queries) GetStreet(ctx context.Context, id int64) (*model.Street, error) {
	s, err := scanStreet(q.c.queryRow(ctx, `SELECT `+streetColumns+` FROM geo_streets WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "store: get street %d", id)
	}
	return s, nil
}

// FindStreet matches name case-insensitively within a city.
func (q *queries) FindStreet(ctx context.Context, cityID int64, name string) (*model.Street, error) {
	var probe model.Street
	probe.SetName(name)
	s, err := scanStreet(q.c.queryRow(ctx,
		`SELECT `+streetColumns+` FROM geo_streets WHERE city_id = ? AND name_lower = ?`,
		cityID, probe.NameLower,
	))
	if err != nil {
		return nil, notFound(err, "store: find street %q in city %d", name, cityID)
	}
	return s, nil
}

package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/model"
)

const baseAddressColumns = `id, street_id, city_id, node_id, country_id, house, building, postal_code,
	full_address, normal_address, latitude, longitude, s2_cell, is_verified, created_at, updated_at`

func scanBaseAddress(r row) (*model.BaseAddress, error) {
	var b model.BaseAddress
	err := r.Scan(
		&b.ID, &b.StreetID, &b.CityID, &b.NodeID, &b.CountryID, &b.House, &b.Building, &b.PostalCode,
		&b.FullAddress, &b.NormalAddress, &b.Latitude, &b.Longitude, &b.S2Cell, &b.IsVerified,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBaseAddress inserts a base address. (street, house, building) is unique.
func (q *queries) CreateBaseAddress(ctx context.Context, b *model.BaseAddress) error {
	if err := b.Validate(); err != nil {
		return err
	}
	now := q.now()
	b.CreatedAt, b.UpdatedAt = now, now

	err := q.c.queryRow(ctx, `
		INSERT INTO base_addresses (street_id, city_id, node_id, country_id, house, building, postal_code,
			full_address, normal_address, latitude, longitude, s2_cell, is_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		b.StreetID, b.CityID, b.NodeID, b.CountryID, b.House, b.Building, b.PostalCode,
		b.FullAddress, b.NormalAddress, b.Latitude, b.Longitude, b.S2Cell, b.IsVerified, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	return writeErrOrNil(err, "store: create base address %d/%q/%q", b.StreetID, b.House, b.Building)
}

func (q *queries) UpdateBaseAddress(ctx context.Context, b *model.BaseAddress) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.UpdatedAt = q.now()

	affected, err := q.c.exec(ctx, `
		UPDATE base_addresses SET street_id = ?, city_id = ?, node_id = ?, country_id = ?, house = ?,
			building = ?, postal_code = ?, full_address = ?, normal_address = ?, latitude = ?,
			longitude = ?, s2_cell = ?, is_verified = ?, updated_at = ?
		WHERE id = ?`,
		b.StreetID, b.CityID, b.NodeID, b.CountryID, b.House,
		b.Building, b.PostalCode, b.FullAddress, b.NormalAddress, b.Latitude,
		b.Longitude, b.S2Cell, b.IsVerified, b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		return writeErr(err, "store: update base address %d", b.ID)
	}
	if affected == 0 {
		return eris.Wrapf(ErrNotFound, "store: update base address %d", b.ID)
	}
	return nil
}

func (q *queries) GetBaseAddress(ctx context.Context, id int64) (*model.BaseAddress, error) {
	b, err := scanBaseAddress(q.c.queryRow(ctx, `SELECT `+baseAddressColumns+` FROM base_addresses WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "store: get base address %d", id)
	}
	return b, nil
}

func (q *queries) FindBaseAddress(ctx context.Context, streetID int64, house, building string) (*model.BaseAddress, error) {
	b, err := scanBaseAddress(q.c.queryRow(ctx,
		`SELECT `+baseAddressColumns+` FROM base_addresses WHERE street_id = ? AND house = ? AND building = ?`,
		streetID, house, building,
	))
	if err != nil {
		return nil, notFound(err, "store: find base address %d/%q/%q", streetID, house, building)
	}
	return b, nil
}

// ListUnverifiedBaseAddresses returns up to limit addresses awaiting geocoding, oldest first.
func (q *queries) ListUnverifiedBaseAddresses(ctx context.Context, limit int) ([]model.BaseAddress, error) {
	rs, err := q.c.query(ctx,
		`SELECT `+baseAddressColumns+` FROM base_addresses WHERE is_verified = FALSE ORDER BY id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list unverified base addresses")
	}
	defer rs.Close()

	var out []model.BaseAddress
	for rs.Next() {
		b, err := scanBaseAddress(rs)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan base address")
		}
		out = append(out, *b)
	}
	return out, eris.Wrap(rs.Err(), "store: iterate base addresses")
}

const addressColumns = `id, base_id, entrance, floor, apartment, intercom, is_active, created_at, updated_at`

// CreateAddress inserts a unit. (base, entrance, apartment) is unique.
func (q *queries) CreateAddress(ctx context.Context, a *model.Address) error {
	if err := a.Validate(); err != nil {
		return err
	}
	now := q.now()
	a.CreatedAt, a.UpdatedAt = now, now

	err := q.c.queryRow(ctx, `
		INSERT INTO addresses (base_id, entrance, floor, apartment, intercom, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		a.BaseID, a.Entrance, a.Floor, a.Apartment, a.Intercom, a.IsActive, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	return writeErrOrNil(err, "store: create address %d/%d/%d", a.BaseID, a.Entrance, a.Apartment)
}

func (q *queries) GetAddress(ctx context.Context, id int64) (*model.Address, error) {
	var a model.Address
	err := q.c.queryRow(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = ?`, id).Scan(
		&a.ID, &a.BaseID, &a.Entrance, &a.Floor, &a.Apartment, &a.Intercom, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "store: get address %d", id)
	}
	return &a, nil
}

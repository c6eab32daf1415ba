package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/model"
)

func (q *queries) UpsertPartWorld(ctx context.Context, p *model.PartWorld) error {
	err := q.c.queryRow(ctx, `
		INSERT INTO geo_parts_world (name_ru, name_en, wiki_data_id)
		VALUES (?, ?, ?)
		ON CONFLICT (name_en) DO UPDATE SET
			name_ru = excluded.name_ru,
			wiki_data_id = excluded.wiki_data_id
		RETURNING id`,
		p.NameRU, p.NameEN, p.WikiDataID,
	).Scan(&p.ID)
	return writeErrOrNil(err, "store: upsert part world %q", p.NameEN)
}

func (q *queries) UpsertRegionWorld(ctx context.Context, r *model.RegionWorld) error {
	err := q.c.queryRow(ctx, `
		INSERT INTO geo_regions_world (part_world_id, name_ru, name_en, wiki_data_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name_en) DO UPDATE SET
			part_world_id = excluded.part_world_id,
			name_ru = excluded.name_ru,
			wiki_data_id = excluded.wiki_data_id
		RETURNING id`,
		r.PartWorldID, r.NameRU, r.NameEN, r.WikiDataID,
	).Scan(&r.ID)
	return writeErrOrNil(err, "store: upsert region world %q", r.NameEN)
}

const countryColumns = `id, region_world_id, name_ru, name_official_ru, name_en, name_official_en,
	capital_ru, capital_en, emoji_code, emoji_flag, flag, currency_code, currency_name,
	currency_symbol, phone_code, cca2, cca3, ccn3, top_level_domain, is_landlocked,
	is_independent, is_un_member, area, population, latitude, longitude, wiki_data_id,
	is_manually_verified, created_at, edited_at`

func scanCountry(r row) (*model.Country, error) {
	var c model.Country
	err := r.Scan(
		&c.ID, &c.RegionWorldID, &c.NameRU, &c.NameOfficialRU, &c.NameEN, &c.NameOfficialEN,
		&c.CapitalRU, &c.CapitalEN, &c.EmojiCode, &c.EmojiFlag, &c.Flag, &c.CurrencyCode, &c.CurrencyName,
		&c.CurrencySymbol, &c.PhoneCode, &c.CCA2, &c.CCA3, &c.CCN3, &c.TopLevelDomain, &c.IsLandlocked,
		&c.IsIndependent, &c.IsUNMember, &c.Area, &c.Population, &c.Latitude, &c.Longitude, &c.WikiDataID,
		&c.IsManuallyVerified, &c.CreatedAt, &c.EditedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertCountry inserts or updates a country keyed by its English name.
// created_at is preserved on update.
func (q *queries) UpsertCountry(ctx context.Context, c *model.Country) error {
	if err := c.Validate(); err != nil {
		return err
	}
	now := q.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.EditedAt = now

	err := q.c.queryRow(ctx, `
		INSERT INTO geo_countries (region_world_id, name_ru, name_official_ru, name_en, name_official_en,
			capital_ru, capital_en, emoji_code, emoji_flag, flag, currency_code, currency_name,
			currency_symbol, phone_code, cca2, cca3, ccn3, top_level_domain, is_landlocked,
			is_independent, is_un_member, area, population, latitude, longitude, wiki_data_id,
			is_manually_verified, created_at, edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name_en) DO UPDATE SET
			region_world_id = excluded.region_world_id,
			name_ru = excluded.name_ru,
			name_official_ru = excluded.name_official_ru,
			name_official_en = excluded.name_official_en,
			capital_ru = excluded.capital_ru,
			capital_en = excluded.capital_en,
			emoji_code = excluded.emoji_code,
			emoji_flag = excluded.emoji_flag,
			flag = excluded.flag,
			currency_code = excluded.currency_code,
			currency_name = excluded.currency_name,
			currency_symbol = excluded.currency_symbol,
			phone_code = excluded.phone_code,
			cca2 = excluded.cca2,
			cca3 = excluded.cca3,
			ccn3 = excluded.ccn3,
			top_level_domain = excluded.top_level_domain,
			is_landlocked = excluded.is_landlocked,
			is_independent = excluded.is_independent,
			is_un_member = excluded.is_un_member,
			area = excluded.area,
			population = excluded.population,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			wiki_data_id = excluded.wiki_data_id,
			edited_at = excluded.edited_at
		RETURNING id`,
		c.RegionWorldID, c.NameRU, c.NameOfficialRU, c.NameEN, c.NameOfficialEN,
		c.CapitalRU, c.CapitalEN, c.EmojiCode, c.EmojiFlag, c.Flag, c.CurrencyCode, c.CurrencyName,
		c.CurrencySymbol, c.PhoneCode, c.CCA2, c.CCA3, c.CCN3, c.TopLevelDomain, c.IsLandlocked,
		c.IsIndependent, c.IsUNMember, c.Area, c.Population, c.Latitude, c.Longitude, c.WikiDataID,
		c.IsManuallyVerified, c.CreatedAt, c.EditedAt,
	).Scan(&c.ID)
	return writeErrOrNil(err, "store: upsert country %q", c.NameEN)
}

func (q *queries) GetCountry(ctx context.Context, id int64) (*model.Country, error) {
	c, err := scanCountry(q.c.queryRow(ctx, `SELECT `+countryColumns+` FROM geo_countries WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "store: get country %d", id)
	}
	return c, nil
}

// GetCountryByCode looks a country up by its ISO 3166-1 alpha-2 code (case-insensitive input).
func (q *queries) GetCountryByCode(ctx context.Context, cca2 string) (*model.Country, error) {
	code := strings.ToUpper(strings.TrimSpace(cca2))
	c, err := scanCountry(q.c.queryRow(ctx, `SELECT `+countryColumns+` FROM geo_countries WHERE cca2 = ?`, code))
	if err != nil {
		return nil, notFound(err, "store: get country by code %q", code)
	}
	return c, nil
}

func (q *queries) UpsertTimeZone(ctx context.Context, z *model.TimeZone) error {
	err := q.c.queryRow(ctx, `
		INSERT INTO geo_timezones (name, shift) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET shift = excluded.shift
		RETURNING id`,
		z.Name, z.Shift,
	).Scan(&z.ID)
	return writeErrOrNil(err, "store: upsert timezone %q", z.Name)
}

func (q *queries) GetTimeZoneByName(ctx context.Context, name string) (*model.TimeZone, error) {
	var z model.TimeZone
	err := q.c.queryRow(ctx, `SELECT id, name, shift FROM geo_timezones WHERE name = ?`, name).
		Scan(&z.ID, &z.Name, &z.Shift)
	if err != nil {
		return nil, notFound(err, "store: get timezone %q", name)
	}
	return &z, nil
}

func (q *queries) ListTimeZones(ctx context.Context) ([]model.TimeZone, error) {
	rs, err := q.c.query(ctx, `SELECT id, name, shift FROM geo_timezones ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "store: list timezones")
	}
	defer rs.Close()

	var zones []model.TimeZone
	for rs.Next() {
		var z model.TimeZone
		if err := rs.Scan(&z.ID, &z.Name, &z.Shift); err != nil {
			return nil, eris.Wrap(err, "store: scan timezone")
		}
		zones = append(zones, z)
	}
	return zones, eris.Wrap(rs.Err(), "store: iterate timezones")
}

func writeErrOrNil(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return writeErr(err, format, args...)
}

package importer

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/fetcher"
)

// StateRow is one administrative division from the snapshot.
type StateRow struct {
	SourceID       int64
	ParentSourceID *int64
	CountryCode    string
	Name           string
	Type           string
	Level          *int
	Native         string
	Translations   Translations
	Latitude       *float64
	Longitude      *float64
	Population     *int64
	ISO3166_2      *string
	WikiDataID     *string
	TimeZone       string
	CreatedAt      Timestamp
	UpdatedAt      Timestamp
}

// CityRow is one city from the snapshot.
type CityRow struct {
	SourceID     int64
	CountryCode  string
	StateCode    string
	Name         string
	Native       string
	Translations Translations
	Latitude     *float64
	Longitude    *float64
	Population   *int64
	WikiDataID   *string
	TimeZone     string
	CreatedAt    Timestamp
	UpdatedAt    Timestamp
}

// NodeISO is the subdivision code a city refers to, e.g. "RU-MOS".
func (r CityRow) NodeISO() string {
	return r.CountryCode + "-" + r.StateCode
}

func sourceID(rec fetcher.Record) (int64, error) {
	raw := strings.TrimSpace(rec["id"])
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "importer: row id %q", raw)
	}
	return id, nil
}

// StateRowFromRecord maps snapshot columns to a StateRow. Only the id must parse.
func StateRowFromRecord(rec fetcher.Record) (StateRow, error) {
	id, err := sourceID(rec)
	if err != nil {
		return StateRow{}, err
	}
	name := strings.TrimSpace(rec["name"])
	row := StateRow{
		SourceID:     id,
		CountryCode:  strings.ToUpper(strings.TrimSpace(rec["country_code"])),
		Name:         name,
		Type:         strings.TrimSpace(rec["type"]),
		Level:        parseInt(rec["level"]),
		Native:       strings.TrimSpace(rec["native"]),
		Translations: decodeTranslations(rec["translations"]),
		Latitude:     parseFloat(rec["latitude"]),
		Longitude:    parseFloat(rec["longitude"]),
		Population:   parseInt64(rec["population"]),
		ISO3166_2:    optString(rec["iso3166_2"]),
		WikiDataID:   optString(rec["wikiDataId"]),
		TimeZone:     strings.TrimSpace(rec["timezone"]),
		CreatedAt:    ParseTimestamp(rec["created_at"]),
		UpdatedAt:    ParseTimestamp(rec["updated_at"]),
	}
	if p := parseInt64(rec["parent_id"]); p != nil && *p != 0 {
		row.ParentSourceID = p
	}
	return row, nil
}

// CityRowFromRecord maps snapshot columns to a CityRow.
func CityRowFromRecord(rec fetcher.Record) (CityRow, error) {
	id, err := sourceID(rec)
	if err != nil {
		return CityRow{}, err
	}
	return CityRow{
		SourceID:     id,
		CountryCode:  strings.ToUpper(strings.TrimSpace(rec["country_code"])),
		StateCode:    strings.TrimSpace(rec["state_code"]),
		Name:         strings.TrimSpace(rec["name"]),
		Native:       strings.TrimSpace(rec["native"]),
		Translations: decodeTranslations(rec["translations"]),
		Latitude:     parseFloat(rec["latitude"]),
		Longitude:    parseFloat(rec["longitude"]),
		Population:   parseInt64(rec["population"]),
		WikiDataID:   optString(rec["wikiDataId"]),
		TimeZone:     strings.TrimSpace(rec["timezone"]),
		CreatedAt:    ParseTimestamp(rec["created_at"]),
		UpdatedAt:    ParseTimestamp(rec["updated_at"]),
	}, nil
}

// StateRows converts every record, failing on the first bad id.
func StateRows(recs []fetcher.Record) ([]StateRow, error) {
	rows := make([]StateRow, 0, len(recs))
	for i, rec := range recs {
		row, err := StateRowFromRecord(rec)
		if err != nil {
			return nil, eris.Wrapf(err, "importer: states record %d", i+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CityRows converts every record, failing on the first bad id.
func CityRows(recs []fetcher.Record) ([]CityRow, error) {
	rows := make([]CityRow, 0, len(recs))
	for i, rec := range recs {
		row, err := CityRowFromRecord(rec)
		if err != nil {
			return nil, eris.Wrapf(err, "importer: cities record %d", i+1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Package ipgeo resolves client IP addresses to stored countries using a
// MaxMind-format database.
package ipgeo

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/oschwald/maxminddb-golang"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/store"
)

// record covers both GeoIP2/GeoLite2 country databases and flat
// "country_code" databases such as DB-IP lite.
type record struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	RegisteredCountry struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"registered_country"`
	CountryCode string `maxminddb:"country_code"`
}

func (r record) code() string {
	for _, c := range []string{r.Country.ISOCode, r.CountryCode, r.RegisteredCountry.ISOCode} {
		if c != "" {
			return strings.ToUpper(c)
		}
	}
	return ""
}

type reader interface {
	Lookup(ip net.IP, result any) error
	Close() error
}

// CountryFinder looks countries up by cca2.
type CountryFinder interface {
	GetCountryByCode(ctx context.Context, cca2 string) (*model.Country, error)
}

// Resolver maps IPs to countries.
type Resolver struct {
	db        reader
	countries CountryFinder
}

// Open loads the database at path.
func Open(path string, countries CountryFinder) (*Resolver, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ipgeo: open database %s", path)
	}
	return &Resolver{db: db, countries: countries}, nil
}

// Close releases the database.
func (r *Resolver) Close() error {
	return r.db.Close()
}

// CountryCode returns the ISO code for ip, or "" when ip is not an address
// or the database has no entry for it.
func (r *Resolver) CountryCode(ip string) (string, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "", nil
	}
	var rec record
	if err := r.db.Lookup(parsed, &rec); err != nil {
		return "", eris.Wrapf(err, "ipgeo: lookup %s", ip)
	}
	return rec.code(), nil
}

// Country returns the stored country for ip, or nil when the address is
// invalid, unknown to the database, or maps to a country not in the store.
func (r *Resolver) Country(ctx context.Context, ip string) (*model.Country, error) {
	code, err := r.CountryCode(ip)
	if err != nil || code == "" {
		return nil, err
	}
	c, err := r.countries.GetCountryByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		zap.L().Debug("ipgeo: country not stored", zap.String("ip", ip), zap.String("code", code))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

package ipgeo

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/store"
)

// fakeReader serves records keyed by IP string, filling the record the way
// the maxminddb decoder does.
type fakeReader struct {
	recs map[string]record
	err  error
}

func (f *fakeReader) Lookup(ip net.IP, result any) error {
	if f.err != nil {
		return f.err
	}
	if rec, ok := f.recs[ip.String()]; ok {
		*(result.(*record)) = rec
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

type fakeCountries map[string]*model.Country

func (f fakeCountries) GetCountryByCode(_ context.Context, cca2 string) (*model.Country, error) {
	if c, ok := f[cca2]; ok {
		return c, nil
	}
	return nil, eris.Wrapf(store.ErrNotFound, "store: country %q", cca2)
}

func geoip2(code string) record {
	var r record
	r.Country.ISOCode = code
	return r
}

func TestResolver_Country(t *testing.T) {
	ru := &model.Country{ID: 1, NameRU: "Россия"}
	r := &Resolver{
		db: &fakeReader{recs: map[string]record{
			"95.108.213.1": geoip2("RU"),
			"8.8.8.8":      geoip2("US"),
			"2a02:6b8::1":  {CountryCode: "ru"},
		}},
		countries: fakeCountries{"RU": ru},
	}
	ctx := context.Background()

	c, err := r.Country(ctx, "95.108.213.1")
	require.NoError(t, err)
	assert.Same(t, ru, c)

	c, err = r.Country(ctx, " 2a02:6b8::1 ")
	require.NoError(t, err)
	assert.Same(t, ru, c)

	c, err = r.Country(ctx, "8.8.8.8")
	require.NoError(t, err)
	assert.Nil(t, c, "country not stored")

	c, err = r.Country(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, c, "no database entry")

	c, err = r.Country(ctx, "not-an-ip")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestResolver_CountryCodeFallbacks(t *testing.T) {
	var reg record
	reg.RegisteredCountry.ISOCode = "DE"
	r := &Resolver{db: &fakeReader{recs: map[string]record{"1.2.3.4": reg}}}

	code, err := r.CountryCode("1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "DE", code)
}

func TestResolver_LookupError(t *testing.T) {
	r := &Resolver{db: &fakeReader{err: errors.New("corrupt")}}
	_, err := r.Country(context.Background(), "1.2.3.4")
	require.Error(t, err)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open("/nonexistent/GeoLite2-Country.mmdb", fakeCountries{})
	require.Error(t, err)
}

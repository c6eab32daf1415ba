// Package store persists the geographic hierarchy, addresses, the geocode
// quota counter and the import log in Postgres or SQLite.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/model"
)

// Sentinel errors returned by every backend. Match with errors.Is.
var (
	ErrNotFound              = eris.New("store: not found")
	ErrDuplicate             = eris.New("store: duplicate")
	ErrParentCountryMismatch = eris.New("store: parent node belongs to another country")
	ErrParentCycle           = eris.New("store: parent assignment creates a cycle")
)

// Queries is the data access surface available on the store and inside a transaction.
type Queries interface {
	// World reference data.
	UpsertPartWorld(ctx context.Context, p *model.PartWorld) error
	UpsertRegionWorld(ctx context.Context, r *model.RegionWorld) error
	UpsertCountry(ctx context.Context, c *model.Country) error
	GetCountry(ctx context.Context, id int64) (*model.Country, error)
	GetCountryByCode(ctx context.Context, cca2 string) (*model.Country, error)
	UpsertTimeZone(ctx context.Context, z *model.TimeZone) error
	GetTimeZoneByName(ctx context.Context, name string) (*model.TimeZone, error)
	ListTimeZones(ctx context.Context) ([]model.TimeZone, error)

	// Administrative divisions.
	GetNodeType(ctx context.Context, id int64) (*model.NodeType, error)
	GetNodeTypeByName(ctx context.Context, nameEN string) (*model.NodeType, error)
	CreateNode(ctx context.Context, n *model.Node) error
	UpdateNode(ctx context.Context, n *model.Node) error
	GetNode(ctx context.Context, id int64) (*model.Node, error)
	FindNodeByISO(ctx context.Context, countryID int64, iso string) (*model.Node, error)
	FindNodeByNameEN(ctx context.Context, countryID int64, nameEN string) (*model.Node, error)
	FindNodeByISOCode(ctx context.Context, iso string) (*model.Node, error)
	FirstNodeOfCountry(ctx context.Context, cca2 string) (*model.Node, error)
	SetNodeParent(ctx context.Context, nodeID int64, parentID *int64) error
	NodeAncestors(ctx context.Context, nodeID int64) ([]model.Node, error)
	CountNodes(ctx context.Context) (int, error)
	NodePath(ctx context.Context, nodeID int64) (string, error)

	// Cities.
	CreateCity(ctx context.Context, c *model.City) error
	UpdateCity(ctx context.Context, c *model.City) error
	GetCity(ctx context.Context, id int64) (*model.City, error)
	FindCity(ctx context.Context, nodeID int64, nameRU string) (*model.City, error)
	CountCities(ctx context.Context) (int, error)
	CityPath(ctx context.Context, cityID int64) (string, error)

	// Streets.
	ListStreetTypes(ctx context.Context) ([]model.StreetType, error)
	GetStreetType(ctx context.Context, id int64) (*model.StreetType, error)
	CreateStreet(ctx context.Context, s *model.Street) error
	GetStreet(ctx context.Context, id int64) (*model.Street, error)
	FindStreet(ctx context.Context, cityID int64, name string) (*model.Street, error)
	ResolveStreetType(ctx context.Context, token string) (*model.StreetType, error)
	LoadStreetContext(ctx context.Context, streetID int64) (*StreetContext, error)

	// Addresses.
	CreateBaseAddress(ctx context.Context, b *model.BaseAddress) error
	UpdateBaseAddress(ctx context.Context, b *model.BaseAddress) error
	GetBaseAddress(ctx context.Context, id int64) (*model.BaseAddress, error)
	FindBaseAddress(ctx context.Context, streetID int64, house, building string) (*model.BaseAddress, error)
	ListUnverifiedBaseAddresses(ctx context.Context, limit int) ([]model.BaseAddress, error)
	CreateAddress(ctx context.Context, a *model.Address) error
	GetAddress(ctx context.Context, id int64) (*model.Address, error)

	// Geocode quota.
	EnsureGeocodeStat(ctx context.Context, day time.Time) (*model.GeocodeStat, error)
	LockGeocodeStat(ctx context.Context, day time.Time) (*model.GeocodeStat, error)
	IncrementGeocodeStat(ctx context.Context, id int64) error
	ListGeocodeStats(ctx context.Context, limit int) ([]model.GeocodeStat, error)

	// Import log.
	StartImport(ctx context.Context, runID, dataset string, total int) (int64, error)
	CompleteImport(ctx context.Context, id int64, counts model.ImportCounts) error
	FailImport(ctx context.Context, id int64, counts model.ImportCounts, cause error) error
	ListImports(ctx context.Context, limit int) ([]model.ImportRun, error)
}

// Store is a Queries backed by a database, with transactions and lifecycle.
type Store interface {
	Queries

	// WithTx runs fn in one transaction. The transaction commits when fn returns
	// nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(q Queries) error) error
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// queries implements Queries over either backend.
type queries struct {
	c conn
	// forUpdate is appended to row-lock reads. Empty on SQLite, whose
	// transactions already serialize writers.
	forUpdate string
}

func (q *queries) now() time.Time {
	return time.Now().UTC()
}

// notFound maps a no-rows error to ErrNotFound and wraps everything else.
func notFound(err error, format string, args ...any) error {
	if isNoRows(err) {
		return eris.Wrapf(ErrNotFound, format, args...)
	}
	return eris.Wrapf(err, format, args...)
}

// writeErr maps a unique violation to ErrDuplicate and wraps everything else.
func writeErr(err error, format string, args ...any) error {
	if isUniqueViolation(err) {
		return eris.Wrapf(ErrDuplicate, format, args...)
	}
	return eris.Wrapf(err, format, args...)
}

// prefixed qualifies each column of a comma-separated list with prefix.
func prefixed(prefix, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

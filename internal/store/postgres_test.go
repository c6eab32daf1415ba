package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geodata/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_GetNode_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, country_id, node_type_id, .* FROM geo_nodes WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetNode(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "get node 42")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetTimeZoneByName(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, shift FROM geo_timezones WHERE name = \$1`).
		WithArgs("Asia/Yekaterinburg").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "shift"}).AddRow(int64(7), "Asia/Yekaterinburg", 5))

	z, err := s.GetTimeZoneByName(context.Background(), "Asia/Yekaterinburg")
	require.NoError(t, err)
	assert.Equal(t, int64(7), z.ID)
	assert.Equal(t, "UTC+5", z.ByUTC())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateStreet_Duplicate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO geo_streets .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)\s+RETURNING id`).
		WithArgs(int64(1), int64(2), "Ленина", "ленина", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "geo_streets_city_id_name_lower_key"})

	err := s.CreateStreet(context.Background(), &model.Street{CityID: 1, StreetTypeID: 2, NameNative: " Ленина "})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LockGeocodeStat_ForUpdate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	day := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO tech_geocode_stats \(stat_date, count\) VALUES \(\$1, 0\) ON CONFLICT \(stat_date\) DO NOTHING`).
		WithArgs(day).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`SELECT id, stat_date, count FROM tech_geocode_stats WHERE stat_date = \$1 FOR UPDATE`).
		WithArgs(day).
		WillReturnRows(pgxmock.NewRows([]string{"id", "stat_date", "count"}).AddRow(int64(3), day, 999))
	mock.ExpectExec(`UPDATE tech_geocode_stats SET count = count \+ 1 WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(q Queries) error {
		stat, err := q.LockGeocodeStat(context.Background(), day.Add(13*time.Hour))
		if err != nil {
			return err
		}
		assert.Equal(t, 999, stat.Count)
		return q.IncrementGeocodeStat(context.Background(), stat.ID)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureGeocodeStat_NoLock(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	day := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO tech_geocode_stats`).
		WithArgs(day).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT id, stat_date, count FROM tech_geocode_stats WHERE stat_date = \$1$`).
		WithArgs(day).
		WillReturnRows(pgxmock.NewRows([]string{"id", "stat_date", "count"}).AddRow(int64(1), day, 0))

	stat, err := s.EnsureGeocodeStat(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 0, stat.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WithTx_Rollback(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(Queries) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WithTx_BeginError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	err := s.WithTx(context.Background(), func(Queries) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetNodeParent_CountryMismatch(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()
	cols := []string{
		"id", "country_id", "node_type_id", "parent_id", "level", "name_ru", "name_en", "name_native",
		"latitude", "longitude", "timezone_id", "population", "iso_code", "wiki_data_id", "created_at", "updated_at",
	}
	nodeRow := func(id, country int64) *pgxmock.Rows {
		return pgxmock.NewRows(cols).AddRow(id, country, int64(0), nil, nil, "n", "n", "n",
			nil, nil, nil, nil, nil, nil, now, now)
	}

	mock.ExpectQuery(`FROM geo_nodes WHERE id = \$1`).WithArgs(int64(1)).WillReturnRows(nodeRow(1, 10))
	mock.ExpectQuery(`FROM geo_nodes WHERE id = \$1`).WithArgs(int64(2)).WillReturnRows(nodeRow(2, 20))

	parent := int64(2)
	err := s.SetNodeParent(context.Background(), 1, &parent)
	assert.ErrorIs(t, err, ErrParentCountryMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteImport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE import_runs SET status = \$1, completed_at = \$2`).
		WithArgs("complete", pgxmock.AnyArg(), 10, 4, 3, 3, 0, int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteImport(context.Background(), 5, model.ImportCounts{Total: 10, Created: 4, Updated: 3, Skipped: 3})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectPing().WillReturnError(errors.New("down"))
	err := s.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: ping")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
	assert.False(t, isUniqueViolation(nil))
}

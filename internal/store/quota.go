package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/model"
)

// Day returns midnight UTC of the calendar date t falls on in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EnsureGeocodeStat returns the counter row for day, creating it at zero when absent.
func (q *queries) EnsureGeocodeStat(ctx context.Context, day time.Time) (*model.GeocodeStat, error) {
	return q.geocodeStat(ctx, day, "")
}

// LockGeocodeStat is EnsureGeocodeStat plus a row lock held until the transaction ends.
// Call it inside WithTx.
func (q *queries) LockGeocodeStat(ctx context.Context, day time.Time) (*model.GeocodeStat, error) {
	return q.geocodeStat(ctx, day, q.forUpdate)
}

func (q *queries) geocodeStat(ctx context.Context, day time.Time, lock string) (*model.GeocodeStat, error) {
	day = Day(day)
	if _, err := q.c.exec(ctx,
		`INSERT INTO tech_geocode_stats (stat_date, count) VALUES (?, 0) ON CONFLICT (stat_date) DO NOTHING`, day,
	); err != nil {
		return nil, eris.Wrapf(err, "store: ensure geocode stat %s", day.Format(time.DateOnly))
	}

	var s model.GeocodeStat
	err := q.c.queryRow(ctx,
		`SELECT id, stat_date, count FROM tech_geocode_stats WHERE stat_date = ?`+lock, day,
	).Scan(&s.ID, &s.Date, &s.Count)
	if err != nil {
		return nil, notFound(err, "store: get geocode stat %s", day.Format(time.DateOnly))
	}
	return &s, nil
}

func (q *queries) IncrementGeocodeStat(ctx context.Context, id int64) error {
	affected, err := q.c.exec(ctx, `UPDATE tech_geocode_stats SET count = count + 1 WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "store: increment geocode stat %d", id)
	}
	if affected == 0 {
		return eris.Wrapf(ErrNotFound, "store: increment geocode stat %d", id)
	}
	return nil
}

// ListGeocodeStats returns the most recent counters, newest first.
func (q *queries) ListGeocodeStats(ctx context.Context, limit int) ([]model.GeocodeStat, error) {
	rs, err := q.c.query(ctx, `SELECT id, stat_date, count FROM tech_geocode_stats ORDER BY stat_date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list geocode stats")
	}
	defer rs.Close()

	var stats []model.GeocodeStat
	for rs.Next() {
		var s model.GeocodeStat
		if err := rs.Scan(&s.ID, &s.Date, &s.Count); err != nil {
			return nil, eris.Wrap(err, "store: scan geocode stat")
		}
		stats = append(stats, s)
	}
	return stats, eris.Wrap(rs.Err(), "store: iterate geocode stats")
}

// Package quota gates outbound geocoding calls with a per-day counter kept in the store.
package quota

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/store"
)

// Counter is a daily call budget. The count lives in one row per calendar date,
// so it holds across processes and restarts.
type Counter struct {
	store store.Store
	limit int
	now   func() time.Time
}

// Option configures a Counter.
type Option func(*Counter)

// WithClock replaces time.Now. The calendar date is taken in the clock's location.
func WithClock(now func() time.Time) Option {
	return func(c *Counter) {
		c.now = now
	}
}

// New creates a Counter allowing limit calls per day.
func New(st store.Store, limit int, opts ...Option) *Counter {
	c := &Counter{store: st, limit: limit, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Limit returns the daily budget.
func (c *Counter) Limit() int { return c.limit }

// CanCallAPI creates today's row if absent and reports whether today's count
// is below the limit.
func (c *Counter) CanCallAPI(ctx context.Context) (bool, error) {
	stat, err := c.store.EnsureGeocodeStat(ctx, store.Day(c.now()))
	if err != nil {
		return false, eris.Wrap(err, "quota: check")
	}
	return stat.Count < c.limit, nil
}

// Increment counts one call for today. The row is locked and the limit
// re-checked, so concurrent callers never push the count past the limit.
// It reports whether the call was counted.
func (c *Counter) Increment(ctx context.Context) (bool, error) {
	day := store.Day(c.now())
	counted := false

	err := c.store.WithTx(ctx, func(q store.Queries) error {
		stat, err := q.LockGeocodeStat(ctx, day)
		if err != nil {
			return err
		}
		if stat.Count >= c.limit {
			return nil
		}
		if err := q.IncrementGeocodeStat(ctx, stat.ID); err != nil {
			return err
		}
		counted = true
		return nil
	})
	if err != nil {
		return false, eris.Wrap(err, "quota: increment")
	}
	if !counted {
		zap.L().Debug("quota: daily limit reached", zap.Time("day", day), zap.Int("limit", c.limit))
	}
	return counted, nil
}

// Status is today's usage.
type Status struct {
	Date      string `json:"date" yaml:"date"`
	Count     int    `json:"count" yaml:"count"`
	Limit     int    `json:"limit" yaml:"limit"`
	Remaining int    `json:"remaining" yaml:"remaining"`
}

// Today returns today's usage, creating the row if absent.
func (c *Counter) Today(ctx context.Context) (*Status, error) {
	stat, err := c.store.EnsureGeocodeStat(ctx, store.Day(c.now()))
	if err != nil {
		return nil, eris.Wrap(err, "quota: today")
	}
	return c.status(*stat), nil
}

// History returns usage for the most recent days, newest first.
func (c *Counter) History(ctx context.Context, days int) ([]Status, error) {
	stats, err := c.store.ListGeocodeStats(ctx, days)
	if err != nil {
		return nil, eris.Wrap(err, "quota: history")
	}
	out := make([]Status, 0, len(stats))
	for _, s := range stats {
		out = append(out, *c.status(s))
	}
	return out, nil
}

func (c *Counter) status(s model.GeocodeStat) *Status {
	return &Status{
		Date:      s.Date.Format(time.DateOnly),
		Count:     s.Count,
		Limit:     c.limit,
		Remaining: max(c.limit-s.Count, 0),
	}
}

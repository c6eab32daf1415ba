// Package importer loads countries-states-cities snapshots into the geo store.
//
// States are imported in two passes: nodes are created or refreshed first,
// then parent references are wired using the snapshot's own row ids. Each
// pass is one transaction and one import log entry.
package importer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/refcache"
	"github.com/sells-group/geodata/internal/store"
)

// Dataset names recorded in the import log.
const (
	DatasetCountries     = "countries"
	DatasetTimeZones     = "timezones"
	DatasetStates        = "states"
	DatasetStatesParents = "states_parents"
	DatasetCities        = "cities"
)

// Progress is logged every N processed rows.
const (
	statesProgressEvery  = 100
	parentsProgressEvery = 1000
	citiesProgressEvery  = 500
)

var (
	ErrUnknownCountry   = eris.New("importer: unknown country")
	ErrUnresolvedParent = eris.New("importer: unresolved parent reference")
	ErrUnresolvedNode   = eris.New("importer: no node for city")
)

// Stats are the running counters of one pass.
type Stats struct {
	Total     int `json:"total" yaml:"total"`
	Created   int `json:"created" yaml:"created"`
	Updated   int `json:"updated" yaml:"updated"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Errors    int `json:"errors" yaml:"errors"`
	Ambiguous int `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"`
}

func (s Stats) counts() model.ImportCounts {
	return model.ImportCounts{
		Total:   s.Total,
		Created: s.Created,
		Updated: s.Updated,
		Skipped: s.Skipped,
		Errors:  s.Errors,
	}
}

func (s Stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int("total", s.Total),
		zap.Int("created", s.Created),
		zap.Int("updated", s.Updated),
		zap.Int("skipped", s.Skipped),
		zap.Int("errors", s.Errors),
		zap.Int("ambiguous", s.Ambiguous),
	}
}

// Options tune an Importer.
type Options struct {
	// TargetLang selects the translation used for the Russian-name columns. Default "ru".
	TargetLang string
	// Now is the clock used for absent feed timestamps. Default time.Now.
	Now func() time.Time
}

// Importer runs import passes against a store. One Importer is one run:
// every pass it executes shares the run id in logs and the import log.
type Importer struct {
	store store.Store
	lang  string
	now   func() time.Time
	runID string
	log   *zap.Logger
}

// New creates an Importer with a fresh run id.
func New(st store.Store, opts Options) *Importer {
	if opts.TargetLang == "" {
		opts.TargetLang = "ru"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	runID := uuid.NewString()
	return &Importer{
		store: st,
		lang:  opts.TargetLang,
		now:   opts.Now,
		runID: runID,
		log:   zap.L().With(zap.String("component", "importer"), zap.String("run_id", runID)),
	}
}

// RunID identifies this run in logs and in the import log.
func (im *Importer) RunID() string { return im.runID }

// pass runs fn in one transaction and records it in the import log.
// The log entry is written outside the transaction so failures are kept.
func (im *Importer) pass(ctx context.Context, dataset string, stats *Stats, fn func(q store.Queries) error) error {
	logID, err := im.store.StartImport(ctx, im.runID, dataset, stats.Total)
	if err != nil {
		return err
	}
	im.log.Info("importer: pass started", zap.String("dataset", dataset), zap.Int("total", stats.Total))

	if txErr := im.store.WithTx(ctx, func(q store.Queries) error { return fn(q) }); txErr != nil {
		if err := im.store.FailImport(ctx, logID, stats.counts(), txErr); err != nil {
			im.log.Warn("importer: record failed pass", zap.String("dataset", dataset), zap.Error(err))
		}
		im.log.Error("importer: pass aborted", append(stats.fields(), zap.String("dataset", dataset), zap.Error(txErr))...)
		return txErr
	}

	if err := im.store.CompleteImport(ctx, logID, stats.counts()); err != nil {
		return err
	}
	im.log.Info("importer: pass complete", append(stats.fields(), zap.String("dataset", dataset))...)
	return nil
}

func (im *Importer) progress(dataset string, processed int, stats *Stats) {
	im.log.Info("importer: progress",
		append(stats.fields(), zap.String("dataset", dataset), zap.Int("processed", processed))...)
}

// miss turns ErrNotFound into a cache miss.
func miss[V any](v V, err error) (V, bool, error) {
	if errors.Is(err, store.ErrNotFound) {
		var zero V
		return zero, false, nil
	}
	if err != nil {
		var zero V
		return zero, false, err
	}
	return v, true, nil
}

// refs are the per-pass reference caches. They are bound to the pass
// transaction and must not outlive it.
type refs struct {
	countries *refcache.Cache[string, *model.Country]
	nodeTypes *refcache.Cache[string, int64]
	zones     *refcache.Cache[string, int64]
}

func newRefs(q store.Queries) *refs {
	return &refs{
		countries: refcache.New(func(ctx context.Context, cca2 string) (*model.Country, bool, error) {
			return miss(q.GetCountryByCode(ctx, cca2))
		}),
		nodeTypes: refcache.New(func(ctx context.Context, name string) (int64, bool, error) {
			t, err := q.GetNodeTypeByName(ctx, name)
			if err != nil {
				return miss(int64(0), err)
			}
			return t.ID, true, nil
		}),
		zones: refcache.New(func(ctx context.Context, name string) (int64, bool, error) {
			z, err := q.GetTimeZoneByName(ctx, name)
			if err != nil {
				return miss(int64(0), err)
			}
			return z.ID, true, nil
		}),
	}
}

func (r *refs) country(ctx context.Context, cca2 string) (*model.Country, error) {
	c, ok, err := r.countries.Get(ctx, cca2)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, eris.Wrapf(ErrUnknownCountry, "importer: country code %q", cca2)
	}
	return c, nil
}

// nodeType falls back to the unknown type for empty or unrecognized names.
func (r *refs) nodeType(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return model.UnknownNodeTypeID, nil
	}
	id, ok, err := r.nodeTypes.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return model.UnknownNodeTypeID, nil
	}
	return id, nil
}

// timeZone returns nil for empty or unknown zone names.
func (r *refs) timeZone(ctx context.Context, name string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	id, ok, err := r.zones.Get(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	return &id, nil
}

// feedTimes resolves both timestamps. Absent values become now; malformed ones fail.
func (im *Importer) feedTimes(created, updated Timestamp) (time.Time, time.Time, error) {
	now := im.now()
	c, err := created.OrNow(now)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrap(err, "importer: created_at")
	}
	u, err := updated.OrNow(now)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrap(err, "importer: updated_at")
	}
	return c, u, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

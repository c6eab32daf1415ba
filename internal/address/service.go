// Package address builds canonical addresses from the geo hierarchy and
// verifies them against a geocoding provider under the daily quota.
package address

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/golang/geo/s2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/store"
	"github.com/sells-group/geodata/pkg/geocode"
)

// CellLevel is the s2 level of the cell token stored on verified addresses (~150 m).
const CellLevel = 16

// Quota gates provider calls. *quota.Counter implements it.
type Quota interface {
	CanCallAPI(ctx context.Context) (bool, error)
	Increment(ctx context.Context) (bool, error)
}

// Service saves addresses and verifies unverified base addresses on save.
type Service struct {
	store    store.Store
	geocoder geocode.Client
	quota    Quota

	concurrency      int
	breakerThreshold int
	breaker          *breaker
	log              *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency bounds in-flight saves during Reverify. Default 4.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithBreakerThreshold sets how many consecutive provider errors stop a
// Reverify run from calling the provider. Default 5.
func WithBreakerThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.breakerThreshold = n
		}
	}
}

// NewService creates a Service.
func NewService(st store.Store, gc geocode.Client, q Quota, opts ...Option) *Service {
	s := &Service{
		store:            st,
		geocoder:         gc,
		quota:            q,
		concurrency:      4,
		breakerThreshold: 5,
		log:              zap.L().With(zap.String("component", "address")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveBaseAddress recomposes the full address, geocodes it when the address
// is not yet verified, and creates or updates the record. Geocoding problems
// never fail the save; they leave IsVerified false.
func (s *Service) SaveBaseAddress(ctx context.Context, b *model.BaseAddress) error {
	b.House = strings.TrimSpace(b.House)
	b.Building = strings.TrimSpace(b.Building)
	if err := b.Validate(); err != nil {
		return err
	}

	sc, err := s.streetContext(ctx, b)
	if err != nil {
		return err
	}
	full := Compose(sc, b.House, b.Building)
	b.FullAddress = &full

	if b.ID == 0 {
		existing, err := s.store.FindBaseAddress(ctx, b.StreetID, b.House, b.Building)
		switch {
		case err == nil:
			return eris.Wrapf(store.ErrDuplicate, "address: %q already stored as %d", full, existing.ID)
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
	}

	if !b.IsVerified {
		s.verify(ctx, b)
	}

	if b.ID == 0 {
		return s.store.CreateBaseAddress(ctx, b)
	}
	return s.store.UpdateBaseAddress(ctx, b)
}

// streetContext loads the hierarchy for b. The denormalized city, node and
// country are filled from the street on first save and kept afterwards.
func (s *Service) streetContext(ctx context.Context, b *model.BaseAddress) (*store.StreetContext, error) {
	sc, err := s.store.LoadStreetContext(ctx, b.StreetID)
	if err != nil {
		return nil, eris.Wrapf(err, "address: street %d", b.StreetID)
	}
	if b.CityID == 0 {
		b.CityID = sc.City.ID
	}
	if b.NodeID == 0 {
		b.NodeID = sc.Node.ID
	}
	if b.CountryID == 0 {
		b.CountryID = sc.Country.ID
	}

	if b.CityID != sc.City.ID {
		c, err := s.store.GetCity(ctx, b.CityID)
		if err != nil {
			return nil, err
		}
		sc.City = *c
	}
	if b.NodeID != sc.Node.ID {
		n, err := s.store.GetNode(ctx, b.NodeID)
		if err != nil {
			return nil, err
		}
		nt, err := s.store.GetNodeType(ctx, n.NodeTypeID)
		if err != nil {
			return nil, err
		}
		sc.Node, sc.NodeType = *n, *nt
	}
	if b.CountryID != sc.Country.ID {
		c, err := s.store.GetCountry(ctx, b.CountryID)
		if err != nil {
			return nil, err
		}
		sc.Country = *c
	}
	return sc, nil
}

// verify makes at most one provider call for b and applies what it returns.
func (s *Service) verify(ctx context.Context, b *model.BaseAddress) {
	log := s.log.With(zap.String("full_address", *b.FullAddress))

	if !s.breaker.allow() {
		log.Debug("address: provider breaker open, skipping geocode")
		return
	}
	ok, err := s.quota.CanCallAPI(ctx)
	if err != nil {
		log.Warn("address: quota check failed, skipping geocode", zap.Error(err))
		return
	}
	if !ok {
		log.Info("address: daily geocode quota exhausted, leaving unverified")
		return
	}

	res, geoErr := s.geocoder.Geocode(ctx, *b.FullAddress)
	if _, err := s.quota.Increment(ctx); err != nil {
		log.Warn("address: quota increment failed", zap.Error(err))
	}
	s.breaker.record(geoErr)

	switch {
	case geoErr != nil:
		log.Warn("address: geocode failed", zap.Error(geoErr))
		return
	case res == nil || !res.Matched:
		log.Info("address: geocoder returned no candidate")
		return
	}
	s.apply(b, res)
}

func (s *Service) apply(b *model.BaseAddress, res *geocode.Result) {
	if res.Formatted != "" {
		normal := res.Formatted
		b.NormalAddress = &normal
	}
	if res.HasPoint {
		lat, lon := res.Latitude, res.Longitude
		if err := model.ValidateCoordinates(&lat, &lon); err != nil {
			s.log.Warn("address: provider point out of range", zap.Float64("lat", lat), zap.Float64("lon", lon))
		} else {
			token := CellToken(lat, lon)
			b.Latitude, b.Longitude, b.S2Cell = &lat, &lon, &token
		}
	}
	if res.PostalCode != "" {
		if utf8.RuneCountInString(res.PostalCode) > model.MaxPostalCodeLen {
			s.log.Warn("address: provider postal code too long", zap.String("postal_code", res.PostalCode))
		} else {
			pc := res.PostalCode
			b.PostalCode = &pc
		}
	}
	b.IsVerified = true
}

// CellToken returns the s2 cell token of the point at CellLevel.
func CellToken(lat, lon float64) string {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)).Parent(CellLevel).ToToken()
}

// SaveAddress stores a new unit of an existing base address.
func (s *Service) SaveAddress(ctx context.Context, a *model.Address) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetBaseAddress(ctx, a.BaseID); err != nil {
		return eris.Wrapf(err, "address: base address %d", a.BaseID)
	}
	return s.store.CreateAddress(ctx, a)
}

// View is a unit with its base address and derived strings.
type View struct {
	Address       model.Address     `json:"address" yaml:"address"`
	Base          model.BaseAddress `json:"base" yaml:"base"`
	FullAddress   string            `json:"full_address" yaml:"full_address"`
	NormalAddress string            `json:"normal_address,omitempty" yaml:"normal_address,omitempty"`
}

// Describe loads a unit and renders its addresses.
func (s *Service) Describe(ctx context.Context, id int64) (*View, error) {
	a, err := s.store.GetAddress(ctx, id)
	if err != nil {
		return nil, err
	}
	base, err := s.store.GetBaseAddress(ctx, a.BaseID)
	if err != nil {
		return nil, err
	}
	return &View{
		Address:       *a,
		Base:          *base,
		FullAddress:   a.FullAddress(*base),
		NormalAddress: a.NormalAddress(*base),
	}, nil
}

// ReverifyStats summarizes one Reverify run.
type ReverifyStats struct {
	Total          int  `json:"total" yaml:"total"`
	Verified       int  `json:"verified" yaml:"verified"`
	Unverified     int  `json:"unverified" yaml:"unverified"`
	Failed         int  `json:"failed" yaml:"failed"`
	BreakerTripped bool `json:"breaker_tripped" yaml:"breaker_tripped"`
}

// Reverify re-saves up to limit unverified base addresses, oldest first, with
// bounded concurrency. A failing save is counted and does not stop the run.
func (s *Service) Reverify(ctx context.Context, limit int) (*ReverifyStats, error) {
	bases, err := s.store.ListUnverifiedBaseAddresses(ctx, limit)
	if err != nil {
		return nil, eris.Wrap(err, "address: list unverified")
	}

	run := *s
	run.breaker = newBreaker(s.breakerThreshold)
	stats := &ReverifyStats{Total: len(bases)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range bases {
		b := bases[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			err := run.SaveBaseAddress(gctx, &b)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				stats.Failed++
				s.log.Error("address: reverify save failed", zap.Int64("base_address_id", b.ID), zap.Error(err))
			case b.IsVerified:
				stats.Verified++
			default:
				stats.Unverified++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, eris.Wrap(err, "address: reverify")
	}

	stats.BreakerTripped = run.breaker.tripped()
	s.log.Info("address: reverify complete",
		zap.Int("total", stats.Total),
		zap.Int("verified", stats.Verified),
		zap.Int("unverified", stats.Unverified),
		zap.Int("failed", stats.Failed),
		zap.Bool("breaker_tripped", stats.BreakerTripped),
	)
	return stats, nil
}

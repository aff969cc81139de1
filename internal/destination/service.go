// Package destination resolves the mission's coordinates for the reveal map.
// Lookups sit behind the same gate as the reveal itself and are cached for a
// day under a fixed key.
package destination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/mission-reveal/internal/access"
	"github.com/iliyamo/mission-reveal/internal/kv"
	"github.com/iliyamo/mission-reveal/internal/metrics"
	"github.com/iliyamo/mission-reveal/internal/model"
	"github.com/iliyamo/mission-reveal/internal/reveal"
)

const (
	CacheKey = "destination:geocode"
	CacheTTL = 24 * time.Hour
)

// Entry is the cached lookup result.
type Entry struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	MissionName string  `json:"missionName"`
}

// Coordinates is what a Geocoder returns.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves a mission name. gazetteer is free text used to
// disambiguate and may be empty.
type Geocoder interface {
	Geocode(ctx context.Context, missionName, gazetteer string) (Coordinates, error)
}

// Source gives read access to the secret record. *reveal.Service implements it.
type Source interface {
	Find(ctx context.Context) (*model.Revelation, error)
	Decrypt(blob string) (string, error)
}

type Service struct {
	source    Source
	store     kv.Store
	geocoder  Geocoder
	gazetteer string
	now       func() time.Time
	log       zerolog.Logger
}

func NewService(source Source, store kv.Store, geocoder Geocoder, gazetteer string, log zerolog.Logger) *Service {
	return &Service{
		source:    source,
		store:     store,
		geocoder:  geocoder,
		gazetteer: gazetteer,
		now:       time.Now,
		log:       log.With().Str("component", "destination").Logger(),
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetDestination returns nil when there is no record or the caller may not
// see it yet. Nothing is cached when the lookup fails.
func (s *Service) GetDestination(ctx context.Context, isAdmin bool) (*Entry, error) {
	rec, err := s.source.Find(ctx)
	if errors.Is(err, reveal.ErrRecordAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if access.Decide(rec.IsRevealed, rec.OpeningDate, isAdmin, s.now()) != access.Open {
		return nil, nil
	}

	var cached Entry
	found, err := s.store.Get(ctx, CacheKey, &cached)
	if err != nil {
		s.log.Warn().Err(err).Msg("destination cache read failed")
	}
	if found {
		metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return &cached, nil
	}
	metrics.GeocodeCache.WithLabelValues("miss").Inc()

	name, err := s.source.Decrypt(rec.MissionName)
	if err != nil {
		return nil, fmt.Errorf("decrypt missionName: %w", err)
	}
	coords, err := s.geocoder.Geocode(ctx, name, s.gazetteer)
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("geocode").Inc()
		return nil, err
	}

	e := &Entry{Lat: coords.Lat, Lng: coords.Lng, MissionName: name}
	if err := s.store.Put(ctx, CacheKey, e, CacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("destination cache write failed")
	}
	return e, nil
}

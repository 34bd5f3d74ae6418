package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/f1rq/LifeMap/internal/cache"
	"github.com/f1rq/LifeMap/internal/geocode"
	"github.com/f1rq/LifeMap/internal/metrics"
	"github.com/f1rq/LifeMap/internal/tracing"
)

// GeocodeService wraps the place-search client with caching and
// graceful degradation. The upstream API is best-effort: failures are
// reported, never retried.
type GeocodeService struct {
	client   *geocode.Client
	cache    *cache.RedisCache
	metrics  *metrics.Metrics
	tracer   tracing.Tracer
	cacheTTL time.Duration
}

// NewGeocodeService creates a new geocoding service
func NewGeocodeService(client *geocode.Client, redisCache *cache.RedisCache, m *metrics.Metrics, tracer tracing.Tracer, cacheTTL time.Duration) *GeocodeService {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &GeocodeService{
		client:   client,
		cache:    redisCache,
		metrics:  m,
		tracer:   tracer,
		cacheTTL: cacheTTL,
	}
}

// SearchPlaces returns ranked place candidates for a free-text query,
// serving repeated queries from cache.
func (s *GeocodeService) SearchPlaces(ctx context.Context, query string) ([]geocode.Place, error) {
	txn := s.tracer.StartTransaction("geocode-search")
	defer s.tracer.EndTransaction(txn)
	s.tracer.AddAttribute(txn, "query", query)

	key := cache.GetSearchCacheKey(query)
	if s.cache.Enabled() {
		var cached []geocode.Place
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.IncrementCounter("geocode.search.cache_hit")
			return cached, nil
		}
	}

	started := time.Now()
	places, err := s.client.Search(ctx, query)
	s.metrics.RecordTimer("geocode.search", time.Since(started).Milliseconds())
	if err != nil {
		s.tracer.RecordError(txn, err)
		s.metrics.RecordError("geocode.search")
		return nil, err
	}
	s.metrics.RecordSuccess("geocode.search")

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, places, s.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache place search results")
		}
	}

	return places, nil
}

// ReversePlace returns the best-match place for a coordinate.
func (s *GeocodeService) ReversePlace(ctx context.Context, lat, lon float64) (*geocode.Place, error) {
	txn := s.tracer.StartTransaction("geocode-reverse")
	defer s.tracer.EndTransaction(txn)

	key := cache.GetReverseCacheKey(lat, lon)
	if s.cache.Enabled() {
		var cached geocode.Place
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.IncrementCounter("geocode.reverse.cache_hit")
			return &cached, nil
		}
	}

	started := time.Now()
	place, err := s.client.Reverse(ctx, lat, lon)
	s.metrics.RecordTimer("geocode.reverse", time.Since(started).Milliseconds())
	if err != nil {
		s.tracer.RecordError(txn, err)
		s.metrics.RecordError("geocode.reverse")
		return nil, err
	}
	s.metrics.RecordSuccess("geocode.reverse")

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, place, s.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache reverse geocode result")
		}
	}

	return place, nil
}

// ResolveLocationName returns a human-readable label for a coordinate,
// degrading to "" when the lookup fails so the surrounding operation is
// never blocked.
func (s *GeocodeService) ResolveLocationName(ctx context.Context, lat, lon float64) string {
	place, err := s.ReversePlace(ctx, lat, lon)
	if err != nil {
		log.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("Reverse geocode failed, continuing without location name")
		return ""
	}
	return place.DisplayName
}

package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/f1rq/LifeMap/config"
	"github.com/f1rq/LifeMap/internal/cache"
	"github.com/f1rq/LifeMap/internal/geocode"
	"github.com/f1rq/LifeMap/internal/metrics"
	"github.com/f1rq/LifeMap/internal/tracing"
)

func newGeocodeService(t *testing.T, handler http.HandlerFunc) *GeocodeService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := geocode.NewClient(config.NominatimConfig{
		BaseURL:   server.URL,
		UserAgent: "lifemap-test/0.1",
		Limit:     3,
		Timeout:   2 * time.Second,
	})

	disabledCache, err := cache.NewRedisCache(config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	return NewGeocodeService(client, disabledCache, metrics.NewMetrics(), tracing.Disabled(), 0)
}

func TestSearchPlacesPassesThrough(t *testing.T) {
	var calls atomic.Int64
	service := newGeocodeService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"display_name": "Warsaw, Poland", "lat": "52.2297", "lon": "21.0122"}]`))
	})

	places, err := service.SearchPlaces(context.Background(), "Warsaw")
	require.NoError(t, err)
	require.Len(t, places, 1)
	require.Equal(t, "Warsaw, Poland", places[0].DisplayName)

	// With caching disabled every call reaches the upstream
	_, err = service.SearchPlaces(context.Background(), "Warsaw")
	require.NoError(t, err)
	require.Equal(t, int64(2), calls.Load())
}

func TestSearchPlacesSurfacesUpstreamError(t *testing.T) {
	service := newGeocodeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := service.SearchPlaces(context.Background(), "Warsaw")
	require.Error(t, err)
}

func TestReversePlace(t *testing.T) {
	service := newGeocodeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"display_name": "Warsaw, Poland", "lat": "52.2297", "lon": "21.0122"}`))
	})

	place, err := service.ReversePlace(context.Background(), 52.2297, 21.0122)
	require.NoError(t, err)
	require.Equal(t, "Warsaw, Poland", place.DisplayName)
}

func TestResolveLocationNameDegradesToEmpty(t *testing.T) {
	service := newGeocodeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "Unable to geocode"}`))
	})

	name := service.ResolveLocationName(context.Background(), 0, 0)
	require.Empty(t, name)
}

func TestResolveLocationNameReturnsDisplayName(t *testing.T) {
	service := newGeocodeService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"display_name": "Lisbon, Portugal", "lat": "38.72", "lon": "-9.14"}`))
	})

	name := service.ResolveLocationName(context.Background(), 38.72, -9.14)
	require.Equal(t, "Lisbon, Portugal", name)
}

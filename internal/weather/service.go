package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a complete upstream refresh (current + forecast).
const DefaultFetchTimeout = 15 * time.Second

// Service resolves locations, consults the cache and refreshes bundles from
// the provider on a miss.
type Service struct {
	provider     Provider
	cache        Cache
	logger       *zap.Logger
	fetchTimeout time.Duration

	// inflight collapses concurrent misses for the same location key into a
	// single upstream refresh.
	inflight singleflight.Group
}

// NewService creates a new Service.
func NewService(provider Provider, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider:     provider,
		cache:        cache,
		logger:       logger,
		fetchTimeout: DefaultFetchTimeout,
	}
}

// GetCompleteWeatherData returns the bundle for a coordinate pair. A fresh
// cache entry is returned with Cached set and no upstream call. Otherwise
// current conditions and the forecast are fetched concurrently; if either
// fails nothing is cached and the error is returned.
//
// cityHint is only used for logging; the cache is keyed by coordinates.
func (s *Service) GetCompleteWeatherData(ctx context.Context, lat, lon float64, cityHint string) (Bundle, error) {
	key := LocationKey(lat, lon)

	if bundle, ok := s.lookup(ctx, lat, lon); ok {
		s.logger.Debug("weather cache hit", zap.String("key", key))
		bundle.Cached = true
		return bundle, nil
	}

	// The refresh runs detached from the caller so that a disconnecting
	// client does not fail the other callers joined on the same key; its
	// result still lands in the cache.
	ch := s.inflight.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		// A flight for this key may have completed between our miss and now.
		if bundle, ok := s.lookup(fetchCtx, lat, lon); ok {
			bundle.Cached = true
			return bundle, nil
		}
		return s.refresh(fetchCtx, lat, lon, key, cityHint)
	})

	select {
	case <-ctx.Done():
		return Bundle{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Bundle{}, res.Err
		}
		return res.Val.(Bundle), nil
	}
}

// GetCompleteWeatherByCity resolves a city to coordinates via the provider
// and then delegates to GetCompleteWeatherData.
func (s *Service) GetCompleteWeatherByCity(ctx context.Context, name string) (Bundle, error) {
	current, err := s.GetCurrentWeatherByCity(ctx, name)
	if err != nil {
		return Bundle{}, err
	}
	return s.GetCompleteWeatherData(ctx, current.Coordinates.Lat, current.Coordinates.Lon, name)
}

// GetCurrentWeatherByCity fetches current conditions for a city name.
// ErrCityNotFound is returned when the provider does not know the city.
func (s *Service) GetCurrentWeatherByCity(ctx context.Context, name string) (CurrentWeather, error) {
	raw, err := s.provider.FetchCurrentByCity(ctx, name)
	if err != nil {
		err = classify(err)
		if !errors.Is(err, ErrCityNotFound) {
			s.logger.Warn("current weather by city failed", zap.String("city", name), zap.Error(err))
		}
		return CurrentWeather{}, fmt.Errorf("current weather for %q: %w", name, err)
	}

	current, err := NormalizeCurrent(raw)
	if err != nil {
		s.logger.Error("malformed current weather payload", zap.String("city", name), zap.Error(err))
		return CurrentWeather{}, err
	}
	return current, nil
}

// GetCurrentWeatherByCoords fetches current conditions for a coordinate pair.
// It does not consult the cache.
func (s *Service) GetCurrentWeatherByCoords(ctx context.Context, lat, lon float64) (CurrentWeather, error) {
	current, err := s.fetchCurrent(ctx, lat, lon)
	if err != nil {
		s.logger.Warn("current weather by coordinates failed",
			zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return CurrentWeather{}, err
	}
	return current, nil
}

func (s *Service) lookup(ctx context.Context, lat, lon float64) (Bundle, bool) {
	if s.cache == nil {
		return Bundle{}, false
	}
	bundle, ok, err := s.cache.Get(ctx, lat, lon)
	if err != nil {
		// A broken cache degrades to a miss.
		s.logger.Warn("weather cache read failed", zap.String("key", LocationKey(lat, lon)), zap.Error(err))
		return Bundle{}, false
	}
	return bundle, ok
}

// refresh fetches current conditions and the forecast concurrently, the
// first failure aborting the other call, and caches the assembled bundle.
func (s *Service) refresh(ctx context.Context, lat, lon float64, key, cityHint string) (Bundle, error) {
	s.logger.Info("fetching fresh weather data",
		zap.String("key", key), zap.String("city_hint", cityHint))

	var (
		current  CurrentWeather
		forecast Forecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.fetchCurrent(gctx, lat, lon)
		if err != nil {
			return err
		}
		current = c
		return nil
	})
	g.Go(func() error {
		f, err := s.fetchForecast(gctx, lat, lon)
		if err != nil {
			return err
		}
		forecast = f
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("weather refresh failed", zap.String("key", key), zap.Error(err))
		return Bundle{}, err
	}

	bundle := Bundle{
		Current: current,
		Hourly:  forecast.Hourly,
		Weekly:  forecast.Weekly,
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, lat, lon, bundle); err != nil {
			s.logger.Warn("weather cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return bundle, nil
}

func (s *Service) fetchCurrent(ctx context.Context, lat, lon float64) (CurrentWeather, error) {
	raw, err := s.provider.FetchCurrentByCoords(ctx, lat, lon)
	if err != nil {
		return CurrentWeather{}, fmt.Errorf("current weather: %w", classify(err))
	}
	return NormalizeCurrent(raw)
}

func (s *Service) fetchForecast(ctx context.Context, lat, lon float64) (Forecast, error) {
	raw, err := s.provider.FetchForecastByCoords(ctx, lat, lon)
	if err != nil {
		return Forecast{}, fmt.Errorf("forecast: %w", classify(err))
	}
	return NormalizeForecast(raw)
}

// classify maps provider errors onto the package taxonomy. Anything not
// already classified (timeouts, transport errors) is an upstream failure.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrCityNotFound),
		errors.Is(err, ErrMalformedUpstreamData),
		errors.Is(err, ErrUpstreamUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
}

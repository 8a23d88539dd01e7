package weather

import (
	"context"
	"errors"
)

var (
	// ErrUpstreamUnavailable covers network failures, timeouts and 5xx/429
	// answers from the provider. Callers may retry.
	ErrUpstreamUnavailable = errors.New("weather provider unavailable")

	// ErrCityNotFound is returned when the provider does not know the requested city.
	ErrCityNotFound = errors.New("city not found")

	// ErrMalformedUpstreamData is returned when a provider payload lacks required fields.
	ErrMalformedUpstreamData = errors.New("malformed upstream data")
)

// Provider abstracts the upstream weather API. Implementations return the
// raw JSON body; normalization happens in this package.
type Provider interface {
	FetchCurrentByCoords(ctx context.Context, lat, lon float64) ([]byte, error)
	FetchCurrentByCity(ctx context.Context, name string) ([]byte, error)
	FetchForecastByCoords(ctx context.Context, lat, lon float64) ([]byte, error)
}

// Cache is the contract of the location cache. Get reports false for a
// missing or expired entry; Put overwrites and resets the entry's age.
type Cache interface {
	Get(ctx context.Context, lat, lon float64) (Bundle, bool, error)
	Put(ctx context.Context, lat, lon float64, bundle Bundle) error
}

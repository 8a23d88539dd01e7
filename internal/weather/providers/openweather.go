package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mausam360/backend/internal/weather"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements weather.Provider against OpenWeatherMap.
// All requests ask for metric units; unit conversion is a client concern.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider creates a provider. An empty baseURL selects
// DefaultOpenWeatherBaseURL.
func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      2,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

// FetchCurrentByCoords returns the raw /weather payload for a coordinate pair.
func (p *OpenWeatherProvider) FetchCurrentByCoords(ctx context.Context, lat, lon float64) ([]byte, error) {
	return p.get(ctx, "/weather", coordValues(lat, lon), nil)
}

// FetchCurrentByCity returns the raw /weather payload for a city name.
// An unknown city yields weather.ErrCityNotFound.
func (p *OpenWeatherProvider) FetchCurrentByCity(ctx context.Context, name string) ([]byte, error) {
	values := url.Values{}
	values.Set("q", name)
	return p.get(ctx, "/weather", values, weather.ErrCityNotFound)
}

// FetchForecastByCoords returns the raw 5 day / 3 hour /forecast payload.
func (p *OpenWeatherProvider) FetchForecastByCoords(ctx context.Context, lat, lon float64) ([]byte, error) {
	return p.get(ctx, "/forecast", coordValues(lat, lon), nil)
}

// get performs one API call. A 404 is reported as notFound when it is set
// and as an upstream failure otherwise.
func (p *OpenWeatherProvider) get(ctx context.Context, path string, values url.Values, notFound error) ([]byte, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("appid", p.apiKey)
		q.Set("units", "metric")

		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, q.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	body, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if errors.Is(err, errNotFound) {
		if notFound != nil {
			err = notFound
		} else {
			err = fmt.Errorf("%w: %w", weather.ErrUpstreamUnavailable, err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", p.name, path, err)
	}
	return body, nil
}

func coordValues(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return values
}

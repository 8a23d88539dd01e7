package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mausam360/backend/internal/weather"
	"github.com/mausam360/backend/internal/weather/providers"
)

type AppConfig struct {
	Port string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration

	// DatabaseURL selects the postgres cache and preference store.
	// Empty means in-memory stores.
	DatabaseURL string

	// CacheSweepInterval controls how often expired cache entries are removed.
	CacheSweepInterval time.Duration

	// WarmLocations are refreshed every WarmInterval so that their cache
	// entries are usually fresh.
	WarmLocations []weather.Coordinates
	WarmInterval  time.Duration

	LogLevel  string
	LogFormat string // json, console

	// FrontendURL is the allowed CORS origin.
	FrontendURL string
}

// Load reads configuration from the environment (and an optional .env file)
// with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("OPENWEATHER_BASE_URL", providers.DefaultOpenWeatherBaseURL)
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("CACHE_SWEEP_INTERVAL", "5m")
	v.SetDefault("WARM_INTERVAL", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")

	cfg := &AppConfig{
		Port:               v.GetString("PORT"),
		OpenWeatherAPIKey:  v.GetString("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: v.GetString("OPENWEATHER_BASE_URL"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		FrontendURL:        v.GetString("FRONTEND_URL"),
	}

	var err error
	if cfg.HTTPTimeout, err = parseDuration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.CacheSweepInterval, err = parseDuration(v, "CACHE_SWEEP_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.WarmInterval, err = parseDuration(v, "WARM_INTERVAL"); err != nil {
		return nil, err
	}

	locs, err := parseLocations(v.GetString("WARM_LOCATIONS"))
	if err != nil {
		return nil, err
	}
	cfg.WarmLocations = locs

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

// parseLocations reads "lat,lon;lat,lon".
func parseLocations(s string) ([]weather.Coordinates, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var locs []weather.Coordinates
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		latStr, lonStr, ok := strings.Cut(part, ",")
		if !ok {
			return nil, fmt.Errorf("invalid WARM_LOCATIONS entry %q: want lat,lon", part)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("invalid WARM_LOCATIONS latitude %q", latStr)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("invalid WARM_LOCATIONS longitude %q", lonStr)
		}
		locs = append(locs, weather.Coordinates{Lat: lat, Lon: lon})
	}
	return locs, nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mausam360/backend/internal/weather"
)

// Postgres is a location cache backed by the weather_cache table. Freshness
// is evaluated in SQL against cached_at, so expired rows are never served
// even before Sweep deletes them.
type Postgres struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewPostgres creates a cache on an existing pool. The schema is created by
// store.DB.Migrate.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool: pool,
		ttl:  weather.CacheTTL,
		now:  time.Now,
	}
}

// Get returns the fresh bundle stored for the quantized key of lat/lon.
func (p *Postgres) Get(ctx context.Context, lat, lon float64) (weather.Bundle, bool, error) {
	key := weather.LocationKey(lat, lon)
	cutoff := p.now().Add(-p.ttl)

	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT bundle FROM weather_cache WHERE location_key = $1 AND cached_at > $2`,
		key, cutoff,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return weather.Bundle{}, false, nil
	}
	if err != nil {
		return weather.Bundle{}, false, fmt.Errorf("postgres: read weather cache %s: %w", key, err)
	}

	var bundle weather.Bundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return weather.Bundle{}, false, fmt.Errorf("postgres: decode weather cache %s: %w", key, err)
	}
	return bundle, true, nil
}

// Put upserts the bundle and resets cached_at.
func (p *Postgres) Put(ctx context.Context, lat, lon float64, bundle weather.Bundle) error {
	bundle.Cached = false
	key := weather.LocationKey(lat, lon)

	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("postgres: encode weather cache %s: %w", key, err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO weather_cache (location_key, city_name, lat, lon, bundle, cached_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (location_key) DO UPDATE SET
			city_name = EXCLUDED.city_name,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			bundle = EXCLUDED.bundle,
			cached_at = EXCLUDED.cached_at`,
		key, bundle.Current.City, lat, lon, raw, p.now(),
	)
	if err != nil {
		return fmt.Errorf("postgres: write weather cache %s: %w", key, err)
	}
	return nil
}

// Sweep deletes expired rows.
func (p *Postgres) Sweep(ctx context.Context) (int, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM weather_cache WHERE cached_at <= $1`,
		p.now().Add(-p.ttl),
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: sweep weather cache: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Health checks database connectivity.
func (p *Postgres) Health(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

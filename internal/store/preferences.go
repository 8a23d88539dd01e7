package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mausam360/backend/internal/preferences"
)

// PreferenceRepository stores preference records in the user_preferences table.
type PreferenceRepository struct {
	db *DB
}

// NewPreferenceRepository creates a repository on db.
func NewPreferenceRepository(db *DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

const selectPreferences = `
	SELECT user_id, default_city_name, default_lat, default_lon, temperature_unit,
	       recent_searches, last_active, created_at, updated_at
	FROM user_preferences
	WHERE user_id = $1`

// Get returns the record for userID.
func (r *PreferenceRepository) Get(ctx context.Context, userID string) (preferences.Record, error) {
	rec, err := scanRecord(r.db.pool.QueryRow(ctx, selectPreferences, userID))
	if err != nil {
		return preferences.Record{}, err
	}
	return rec, nil
}

// Mutate runs the read-modify-write inside a transaction holding a row lock.
// Two first-time writers for the same user race on the insert; the upsert
// makes the later one win.
func (r *PreferenceRepository) Mutate(
	ctx context.Context,
	userID string,
	init func() preferences.Record,
	fn func(*preferences.Record),
) (preferences.Record, error) {
	tx, err := r.db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return preferences.Record{}, fmt.Errorf("postgres: begin preferences tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	rec, err := scanRecord(tx.QueryRow(ctx, selectPreferences+" FOR UPDATE", userID))
	switch {
	case errors.Is(err, preferences.ErrNotFound):
		if init == nil {
			return preferences.Record{}, err
		}
		rec = init()
	case err != nil:
		return preferences.Record{}, err
	}

	fn(&rec)

	searches, err := json.Marshal(rec.RecentSearches)
	if err != nil {
		return preferences.Record{}, fmt.Errorf("postgres: encode recent searches: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_preferences (
			user_id, default_city_name, default_lat, default_lon, temperature_unit,
			recent_searches, last_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			default_city_name = EXCLUDED.default_city_name,
			default_lat = EXCLUDED.default_lat,
			default_lon = EXCLUDED.default_lon,
			temperature_unit = EXCLUDED.temperature_unit,
			recent_searches = EXCLUDED.recent_searches,
			last_active = EXCLUDED.last_active,
			updated_at = EXCLUDED.updated_at`,
		rec.UserID, rec.DefaultCity.Name, rec.DefaultCity.Coordinates.Lat, rec.DefaultCity.Coordinates.Lon,
		string(rec.TemperatureUnit), searches, rec.LastActive, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return preferences.Record{}, fmt.Errorf("postgres: save preferences: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return preferences.Record{}, fmt.Errorf("postgres: commit preferences: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (preferences.Record, error) {
	var (
		rec      preferences.Record
		unit     string
		searches []byte
	)
	err := row.Scan(
		&rec.UserID, &rec.DefaultCity.Name, &rec.DefaultCity.Coordinates.Lat, &rec.DefaultCity.Coordinates.Lon,
		&unit, &searches, &rec.LastActive, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return preferences.Record{}, preferences.ErrNotFound
	}
	if err != nil {
		return preferences.Record{}, fmt.Errorf("postgres: scan preferences: %w", err)
	}

	rec.TemperatureUnit = preferences.Unit(unit)
	rec.RecentSearches = []preferences.RecentSearch{}
	if len(searches) > 0 {
		if err := json.Unmarshal(searches, &rec.RecentSearches); err != nil {
			return preferences.Record{}, fmt.Errorf("postgres: decode recent searches: %w", err)
		}
	}
	return rec, nil
}

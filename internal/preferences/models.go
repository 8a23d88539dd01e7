package preferences

import (
	"errors"
	"time"

	"github.com/mausam360/backend/internal/weather"
)

// MaxRecentSearches caps the recent-searches history of a record.
const MaxRecentSearches = 10

var (
	// ErrNotFound is returned by non-upserting operations on an unknown user.
	ErrNotFound = errors.New("user preferences not found")

	// ErrInvalidUnit is returned for a temperature unit other than celsius or fahrenheit.
	ErrInvalidUnit = errors.New("invalid temperature unit")
)

// Unit is a temperature display unit.
type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == Celsius || u == Fahrenheit
}

// City is a named location.
type City struct {
	Name        string              `json:"name"`
	Coordinates weather.Coordinates `json:"coordinates"`
}

// DefaultCity is assigned to every new record.
var DefaultCity = City{
	Name:        "New Delhi",
	Coordinates: weather.Coordinates{Lat: 28.6139, Lon: 77.2090},
}

// RecentSearch is one entry of a user's search history.
type RecentSearch struct {
	CityName    string              `json:"cityName"`
	Coordinates weather.Coordinates `json:"coordinates"`
	SearchedAt  time.Time           `json:"searchedAt"`
}

// Record holds the preferences of one user. RecentSearches is ordered most
// recent first, holds at most MaxRecentSearches entries and no two entries
// share a city name (compared case-insensitively).
type Record struct {
	UserID          string         `json:"userId"`
	DefaultCity     City           `json:"defaultCity"`
	TemperatureUnit Unit           `json:"temperatureUnit"`
	RecentSearches  []RecentSearch `json:"recentSearches"`
	LastActive      time.Time      `json:"lastActive"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// NewRecord returns a record with default settings.
func NewRecord(userID string, now time.Time) Record {
	return Record{
		UserID:          userID,
		DefaultCity:     DefaultCity,
		TemperatureUnit: Celsius,
		RecentSearches:  []RecentSearch{},
		LastActive:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.RecentSearches = make([]RecentSearch, len(r.RecentSearches))
	copy(out.RecentSearches, r.RecentSearches)
	return out
}

// Update is a partial preference change. Nil fields are left untouched.
type Update struct {
	DefaultCity     *City
	TemperatureUnit *Unit
}

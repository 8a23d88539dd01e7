package weather

import (
	"fmt"
	"time"
)

// CacheTTL is the freshness window of a cached bundle.
const CacheTTL = 600 * time.Second

const (
	// MaxHourlyPoints is the number of raw forecast samples exposed as hourly data.
	MaxHourlyPoints = 16
	// MaxDailySummaries caps the weekly forecast.
	MaxDailySummaries = 7
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LocationKey returns the quantized cache key for a coordinate pair.
// Both values are formatted to two decimals, so points roughly 1km apart
// share a key.
func LocationKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f_%.2f", lat, lon)
}

// CurrentWeather is the normalized view of a provider's current conditions.
type CurrentWeather struct {
	City        string      `json:"city"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
	Temperature int         `json:"temperature"` // °C
	FeelsLike   int         `json:"feelsLike"`   // °C
	Condition   string      `json:"condition"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Humidity    int         `json:"humidity"`   // percent
	Pressure    int         `json:"pressure"`   // hPa
	WindSpeed   float64     `json:"windSpeed"`  // m/s
	Visibility  float64     `json:"visibility"` // km
	Clouds      int         `json:"clouds"`     // percent
	Sunrise     int64       `json:"sunrise"`
	Sunset      int64       `json:"sunset"`
	Timezone    int         `json:"timezone"` // offset from UTC in seconds
	Timestamp   int64       `json:"timestamp"`
}

// HourlyPoint is a single forecast sample.
type HourlyPoint struct {
	Timestamp   int64   `json:"timestamp"`
	Temperature int     `json:"temperature"`
	FeelsLike   int     `json:"feelsLike"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Pop         int     `json:"pop"` // precipitation probability, 0-100
}

// DailySummary aggregates all forecast samples of one provider-local date.
type DailySummary struct {
	Date        string `json:"date"` // YYYY-MM-DD in the location's local time
	Timestamp   int64  `json:"timestamp"`
	TempMin     int    `json:"tempMin"`
	TempMax     int    `json:"tempMax"`
	Condition   string `json:"condition"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Humidity    int    `json:"humidity"`
	WindSpeed   int    `json:"windSpeed"`
	Pop         int    `json:"pop"`
}

// Forecast is the normalized form of a provider forecast list.
type Forecast struct {
	Hourly []HourlyPoint  `json:"hourly"`
	Weekly []DailySummary `json:"weekly"`
}

// Bundle is the complete weather payload for one location.
// Cached is set by the Service on the way out and is never stored.
type Bundle struct {
	Current CurrentWeather `json:"current"`
	Hourly  []HourlyPoint  `json:"hourly"`
	Weekly  []DailySummary `json:"weekly"`
	Cached  bool           `json:"cached"`
}

// Clone returns a copy of b that shares no slices with it.
func (b Bundle) Clone() Bundle {
	out := b
	if b.Hourly != nil {
		out.Hourly = make([]HourlyPoint, len(b.Hourly))
		copy(out.Hourly, b.Hourly)
	}
	if b.Weekly != nil {
		out.Weekly = make([]DailySummary, len(b.Weekly))
		copy(out.Weekly, b.Weekly)
	}
	return out
}

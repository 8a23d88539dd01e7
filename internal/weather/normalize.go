package weather

import (
	"encoding/json"
	"fmt"

	"github.com/mausam360/backend/internal/common"
)

// Raw OpenWeather payloads. Required fields are pointers so that an absent
// value can be told apart from a zero reading.

type rawCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type rawMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	Humidity  *float64 `json:"humidity"`
	Pressure  *float64 `json:"pressure"`
}

type rawWind struct {
	Speed *float64 `json:"speed"`
}

type rawClouds struct {
	All *int `json:"all"`
}

type rawSys struct {
	Country string `json:"country"`
	Sunrise *int64 `json:"sunrise"`
	Sunset  *int64 `json:"sunset"`
}

type rawCurrent struct {
	Name  string `json:"name"`
	Coord *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Main       *rawMain       `json:"main"`
	Weather    []rawCondition `json:"weather"`
	Wind       *rawWind       `json:"wind"`
	Visibility *float64       `json:"visibility"` // meters
	Clouds     *rawClouds     `json:"clouds"`
	Sys        *rawSys        `json:"sys"`
	Timezone   int            `json:"timezone"`
	Dt         *int64         `json:"dt"`
}

type rawForecastEntry struct {
	Dt      *int64         `json:"dt"`
	Main    *rawMain       `json:"main"`
	Weather []rawCondition `json:"weather"`
	Wind    *rawWind       `json:"wind"`
	Pop     *float64       `json:"pop"`
}

type rawForecast struct {
	List *[]rawForecastEntry `json:"list"`
	City struct {
		Timezone int `json:"timezone"`
	} `json:"city"`
}

// missingCurrentField names the first required field absent from p, or
// returns "" when the payload is complete.
func missingCurrentField(p rawCurrent) string {
	switch {
	case p.Main == nil || p.Main.Temp == nil:
		return "main.temp"
	case p.Main.FeelsLike == nil:
		return "main.feels_like"
	case p.Main.Humidity == nil:
		return "main.humidity"
	case p.Main.Pressure == nil:
		return "main.pressure"
	case len(p.Weather) == 0:
		return "weather conditions"
	case p.Coord == nil:
		return "coord"
	case p.Dt == nil:
		return "dt"
	case p.Wind == nil || p.Wind.Speed == nil:
		return "wind.speed"
	case p.Visibility == nil:
		return "visibility"
	case p.Clouds == nil || p.Clouds.All == nil:
		return "clouds.all"
	case p.Sys == nil:
		return "sys"
	case p.Sys.Sunrise == nil:
		return "sys.sunrise"
	case p.Sys.Sunset == nil:
		return "sys.sunset"
	}
	return ""
}

func missingEntryField(e rawForecastEntry) string {
	switch {
	case e.Dt == nil:
		return "dt"
	case e.Main == nil || e.Main.Temp == nil:
		return "main.temp"
	case e.Main.FeelsLike == nil:
		return "main.feels_like"
	case e.Main.Humidity == nil:
		return "main.humidity"
	case len(e.Weather) == 0:
		return "weather conditions"
	case e.Wind == nil || e.Wind.Speed == nil:
		return "wind.speed"
	case e.Pop == nil:
		return "pop"
	}
	return ""
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedUpstreamData, fmt.Sprintf(format, args...))
}

// NormalizeCurrent converts a provider "current weather" payload.
func NormalizeCurrent(raw []byte) (CurrentWeather, error) {
	var p rawCurrent
	if err := json.Unmarshal(raw, &p); err != nil {
		return CurrentWeather{}, malformed("decode current weather: %v", err)
	}

	if field := missingCurrentField(p); field != "" {
		return CurrentWeather{}, malformed("current weather: missing %s", field)
	}

	cond := p.Weather[0]
	return CurrentWeather{
		City:        p.Name,
		Country:     p.Sys.Country,
		Coordinates: Coordinates{Lat: p.Coord.Lat, Lon: p.Coord.Lon},
		Temperature: common.RoundInt(*p.Main.Temp),
		FeelsLike:   common.RoundInt(*p.Main.FeelsLike),
		Condition:   cond.Main,
		Description: cond.Description,
		Icon:        cond.Icon,
		Humidity:    common.RoundInt(*p.Main.Humidity),
		Pressure:    common.RoundInt(*p.Main.Pressure),
		WindSpeed:   *p.Wind.Speed,
		Visibility:  *p.Visibility / 1000,
		Clouds:      *p.Clouds.All,
		Sunrise:     *p.Sys.Sunrise,
		Sunset:      *p.Sys.Sunset,
		Timezone:    p.Timezone,
		Timestamp:   *p.Dt,
	}, nil
}

// NormalizeForecast converts a provider forecast list into hourly points
// (the first MaxHourlyPoints samples) and daily summaries (all samples
// grouped by local date, first MaxDailySummaries dates).
func NormalizeForecast(raw []byte) (Forecast, error) {
	var p rawForecast
	if err := json.Unmarshal(raw, &p); err != nil {
		return Forecast{}, malformed("decode forecast: %v", err)
	}
	if p.List == nil {
		return Forecast{}, malformed("forecast: missing list")
	}

	entries := *p.List
	for i, e := range entries {
		if field := missingEntryField(e); field != "" {
			return Forecast{}, malformed("forecast entry %d: missing %s", i, field)
		}
	}

	return Forecast{
		Hourly: hourlyPoints(entries),
		Weekly: aggregateDaily(entries, p.City.Timezone),
	}, nil
}

func hourlyPoints(entries []rawForecastEntry) []HourlyPoint {
	n := min(len(entries), MaxHourlyPoints)
	points := make([]HourlyPoint, 0, n)
	for _, e := range entries[:n] {
		cond := e.Weather[0]
		points = append(points, HourlyPoint{
			Timestamp:   *e.Dt,
			Temperature: common.RoundInt(*e.Main.Temp),
			FeelsLike:   common.RoundInt(*e.Main.FeelsLike),
			Condition:   cond.Main,
			Description: cond.Description,
			Icon:        cond.Icon,
			Humidity:    common.RoundInt(*e.Main.Humidity),
			WindSpeed:   *e.Wind.Speed,
			Pop:         common.Percent(*e.Pop),
		})
	}
	return points
}

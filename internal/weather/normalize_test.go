package weather

import (
	"errors"
	"testing"
)

func TestNormalizeCurrent(t *testing.T) {
	raw := currentPayload(t, "New Delhi", 28.6139, 77.209, 31.5)

	got, err := NormalizeCurrent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.City != "New Delhi" || got.Country != "IN" {
		t.Fatalf("unexpected location %q/%q", got.City, got.Country)
	}
	if got.Coordinates != (Coordinates{Lat: 28.6139, Lon: 77.209}) {
		t.Fatalf("unexpected coordinates %+v", got.Coordinates)
	}
	if got.Temperature != 32 {
		t.Fatalf("expected temperature 32, got %d", got.Temperature)
	}
	if got.FeelsLike != 31 {
		t.Fatalf("expected feels like 31, got %d", got.FeelsLike)
	}
	if got.Visibility != 8 {
		t.Fatalf("expected visibility 8km, got %v", got.Visibility)
	}
	if got.WindSpeed != 4.12 {
		t.Fatalf("expected wind speed 4.12, got %v", got.WindSpeed)
	}
	if got.Condition != "Clouds" || got.Description != "scattered clouds" || got.Icon != "cld" {
		t.Fatalf("unexpected condition %q/%q/%q", got.Condition, got.Description, got.Icon)
	}
	if got.Humidity != 62 || got.Pressure != 1009 || got.Clouds != 40 {
		t.Fatalf("unexpected readings %+v", got)
	}
	if got.Timezone != 19800 || got.Timestamp != day0+3600 {
		t.Fatalf("unexpected time fields %d/%d", got.Timezone, got.Timestamp)
	}
}

func TestNormalizeCurrentNegativeHalfRoundsUp(t *testing.T) {
	got, err := NormalizeCurrent(currentPayload(t, "Oslo", 59.91, 10.75, -2.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Temperature != -2 {
		t.Fatalf("expected -2, got %d", got.Temperature)
	}
}

func TestNormalizeCurrentMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{"main":`},
		{"missing main", `{"coord":{"lat":1,"lon":2},"weather":[{"main":"Clear"}],"dt":1}`},
		{"missing temp", `{"coord":{"lat":1,"lon":2},"main":{"feels_like":3},"weather":[{"main":"Clear"}],"dt":1}`},
		{"missing feels_like", `{"coord":{"lat":1,"lon":2},"main":{"temp":3},"weather":[{"main":"Clear"}],"dt":1}`},
		{"empty weather", `{"coord":{"lat":1,"lon":2},"main":{"temp":3,"feels_like":3},"weather":[],"dt":1}`},
		{"missing coord", `{"main":{"temp":3,"feels_like":3},"weather":[{"main":"Clear"}],"dt":1}`},
		{"missing dt", `{"coord":{"lat":1,"lon":2},"main":{"temp":3,"feels_like":3},"weather":[{"main":"Clear"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeCurrent([]byte(tt.raw))
			if !errors.Is(err, ErrMalformedUpstreamData) {
				t.Fatalf("expected ErrMalformedUpstreamData, got %v", err)
			}
		})
	}
}

func TestNormalizeForecastEmptyList(t *testing.T) {
	got, err := NormalizeForecast(forecastPayload(t, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hourly == nil || len(got.Hourly) != 0 {
		t.Fatalf("expected empty non-nil hourly, got %#v", got.Hourly)
	}
	if got.Weekly == nil || len(got.Weekly) != 0 {
		t.Fatalf("expected empty non-nil weekly, got %#v", got.Weekly)
	}
}

func TestNormalizeForecastMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `[`},
		{"missing list", `{"cod":"200","city":{"timezone":0}}`},
		{"null list", `{"list":null}`},
		{"entry missing dt", `{"list":[{"main":{"temp":1,"feels_like":1},"weather":[{"main":"Rain"}]}]}`},
		{"entry missing main", `{"list":[{"dt":1,"weather":[{"main":"Rain"}]}]}`},
		{"entry missing feels_like", `{"list":[{"dt":1,"main":{"temp":1},"weather":[{"main":"Rain"}]}]}`},
		{"entry missing weather", `{"list":[{"dt":1,"main":{"temp":1,"feels_like":1}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeForecast([]byte(tt.raw))
			if !errors.Is(err, ErrMalformedUpstreamData) {
				t.Fatalf("expected ErrMalformedUpstreamData, got %v", err)
			}
		})
	}
}

// TestNormalizeCurrentMissingField removes one required field at a time
// from a complete payload.
func TestNormalizeCurrentMissingField(t *testing.T) {
	complete := currentPayload(t, "New Delhi", 28.6139, 77.209, 31.5)
	if _, err := NormalizeCurrent(complete); err != nil {
		t.Fatalf("complete payload rejected: %v", err)
	}

	for _, path := range []string{
		"main.humidity",
		"main.pressure",
		"wind",
		"wind.speed",
		"visibility",
		"clouds",
		"clouds.all",
		"sys",
		"sys.sunrise",
		"sys.sunset",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := NormalizeCurrent(withoutField(t, complete, path))
			if !errors.Is(err, ErrMalformedUpstreamData) {
				t.Fatalf("expected ErrMalformedUpstreamData, got %v", err)
			}
		})
	}
}

func TestNormalizeForecastMissingField(t *testing.T) {
	complete := steadyForecast(t, 3)
	if _, err := NormalizeForecast(complete); err != nil {
		t.Fatalf("complete payload rejected: %v", err)
	}

	for _, path := range []string{
		"list.0.main.humidity",
		"list.0.wind",
		"list.0.wind.speed",
		"list.0.pop",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := NormalizeForecast(withoutField(t, complete, path))
			if !errors.Is(err, ErrMalformedUpstreamData) {
				t.Fatalf("expected ErrMalformedUpstreamData, got %v", err)
			}
		})
	}
}

// TestNormalizeForecastLaterEntryMalformed ensures a single bad entry fails
// the whole forecast even when it is past the hourly window.
func TestNormalizeForecastLaterEntryMalformed(t *testing.T) {
	raw := []byte(`{"list":[
		{"dt":1,"main":{"temp":1,"feels_like":1,"humidity":50},"weather":[{"main":"Rain"}],"wind":{"speed":2},"pop":0},
		{"dt":2,"main":{"temp":1,"feels_like":1,"humidity":50},"weather":[],"wind":{"speed":2},"pop":0}
	]}`)
	if _, err := NormalizeForecast(raw); !errors.Is(err, ErrMalformedUpstreamData) {
		t.Fatalf("expected ErrMalformedUpstreamData, got %v", err)
	}
}

func TestNormalizeForecastHourly(t *testing.T) {
	got, err := NormalizeForecast(forecastPayload(t, 0,
		sample{dt: day0, temp: 10.4, cond: "Rain", humidity: 80.5, wind: 5.5, pop: 0.42},
		sample{dt: day0 + threeHours, temp: 11.5, cond: "Clouds", humidity: 70, wind: 4, pop: 0.0},
		sample{dt: day0 + 2*threeHours, temp: 12, cond: "Clear", humidity: 60, wind: 3, pop: 1.0},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Hourly) != 3 {
		t.Fatalf("expected 3 hourly points, got %d", len(got.Hourly))
	}

	wantPop := []int{42, 0, 100}
	for i, p := range got.Hourly {
		if p.Pop != wantPop[i] {
			t.Fatalf("point %d: expected pop %d, got %d", i, wantPop[i], p.Pop)
		}
	}

	first := got.Hourly[0]
	if first.Timestamp != day0 || first.Temperature != 10 || first.FeelsLike != 9 {
		t.Fatalf("unexpected first point %+v", first)
	}
	if first.Humidity != 81 || first.WindSpeed != 5.5 || first.Condition != "Rain" {
		t.Fatalf("unexpected first point %+v", first)
	}
	if got.Hourly[1].Temperature != 12 {
		t.Fatalf("expected 11.5 to round to 12, got %d", got.Hourly[1].Temperature)
	}
}

func TestNormalizeForecastCaps(t *testing.T) {
	// 80 samples three hours apart span 10 days.
	got, err := NormalizeForecast(steadyForecast(t, 80))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Hourly) != MaxHourlyPoints {
		t.Fatalf("expected %d hourly points, got %d", MaxHourlyPoints, len(got.Hourly))
	}
	if len(got.Weekly) != MaxDailySummaries {
		t.Fatalf("expected %d daily summaries, got %d", MaxDailySummaries, len(got.Weekly))
	}
	if got.Hourly[MaxHourlyPoints-1].Timestamp != day0+int64(MaxHourlyPoints-1)*threeHours {
		t.Fatalf("hourly points are not the first samples in order")
	}
}

func TestNormalizeForecastWeekly(t *testing.T) {
	day := int64(24 * 3600)
	got, err := NormalizeForecast(forecastPayload(t, 0,
		sample{dt: day0, temp: 8.6, cond: "Rain", humidity: 90, wind: 2, pop: 0.2},
		sample{dt: day0 + threeHours, temp: 14.4, cond: "Rain", humidity: 71, wind: 4, pop: 0.85},
		sample{dt: day0 + 2*threeHours, temp: 11, cond: "Clouds", humidity: 80, wind: 3, pop: 0.1},
		sample{dt: day0 + day, temp: 5, cond: "Snow", humidity: 95, wind: 7, pop: 0.6},
		sample{dt: day0 + 2*day, temp: -1.5, cond: "Clear", humidity: 40, wind: 1, pop: 0},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Weekly) != 3 {
		t.Fatalf("expected 3 daily summaries, got %d", len(got.Weekly))
	}

	wantDates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	for i, d := range got.Weekly {
		if d.Date != wantDates[i] {
			t.Fatalf("summary %d: expected date %s, got %s", i, wantDates[i], d.Date)
		}
		if d.TempMin > d.TempMax {
			t.Fatalf("summary %d: min %d above max %d", i, d.TempMin, d.TempMax)
		}
	}

	first := got.Weekly[0]
	if first.TempMin != 9 || first.TempMax != 14 {
		t.Fatalf("expected 9..14, got %d..%d", first.TempMin, first.TempMax)
	}
	if first.Condition != "Rain" {
		t.Fatalf("expected modal condition Rain, got %s", first.Condition)
	}
	if first.Humidity != 80 {
		t.Fatalf("expected mean humidity 80, got %d", first.Humidity)
	}
	if first.WindSpeed != 3 {
		t.Fatalf("expected mean wind 3, got %d", first.WindSpeed)
	}
	if first.Pop != 85 {
		t.Fatalf("expected max pop 85, got %d", first.Pop)
	}
	if first.Timestamp != day0 {
		t.Fatalf("expected timestamp of first sample, got %d", first.Timestamp)
	}

	if got.Weekly[2].TempMin != -1 || got.Weekly[2].TempMax != -1 {
		t.Fatalf("expected -1.5 to round to -1, got %d..%d", got.Weekly[2].TempMin, got.Weekly[2].TempMax)
	}
}

// TestNormalizeForecastModalTieBreak checks that the first condition to
// reach the highest count wins and supplies the description.
func TestNormalizeForecastModalTieBreak(t *testing.T) {
	tests := []struct {
		name     string
		samples  []sample
		wantCond string
		wantDesc string
	}{
		{
			name: "single tie keeps first",
			samples: []sample{
				{cond: "Rain", desc: "light rain"},
				{cond: "Clouds", desc: "few clouds"},
			},
			wantCond: "Rain",
			wantDesc: "light rain",
		},
		{
			name: "first to reach max",
			samples: []sample{
				{cond: "Rain", desc: "light rain"},
				{cond: "Clouds", desc: "few clouds"},
				{cond: "Clouds", desc: "broken clouds"},
				{cond: "Rain", desc: "heavy rain"},
			},
			wantCond: "Clouds",
			wantDesc: "broken clouds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := range tt.samples {
				tt.samples[i].dt = day0 + int64(i)*threeHours
				tt.samples[i].temp = 10
			}
			got, err := NormalizeForecast(forecastPayload(t, 0, tt.samples...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.Weekly) != 1 {
				t.Fatalf("expected 1 daily summary, got %d", len(got.Weekly))
			}
			if got.Weekly[0].Condition != tt.wantCond || got.Weekly[0].Description != tt.wantDesc {
				t.Fatalf("expected %s/%s, got %s/%s", tt.wantCond, tt.wantDesc,
					got.Weekly[0].Condition, got.Weekly[0].Description)
			}
		})
	}
}

// TestNormalizeForecastLocalDates groups by the city's local date rather
// than UTC and keeps first-appearance order.
func TestNormalizeForecastLocalDates(t *testing.T) {
	const ist = 19800 // UTC+5:30

	got, err := NormalizeForecast(forecastPayload(t, ist,
		// 20:00 UTC on Jan 1 is 01:30 on Jan 2 in IST.
		sample{dt: day0 + 20*3600, temp: 15, cond: "Clear"},
		// 10:00 UTC on Jan 1 is 15:30 on Jan 1 in IST.
		sample{dt: day0 + 10*3600, temp: 25, cond: "Clear"},
		sample{dt: day0 + 22*3600, temp: 14, cond: "Clear"},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Weekly) != 2 {
		t.Fatalf("expected 2 daily summaries, got %d", len(got.Weekly))
	}
	if got.Weekly[0].Date != "2024-01-02" || got.Weekly[1].Date != "2024-01-01" {
		t.Fatalf("unexpected date order %s, %s", got.Weekly[0].Date, got.Weekly[1].Date)
	}
	if got.Weekly[0].TempMin != 14 || got.Weekly[0].TempMax != 15 {
		t.Fatalf("unexpected range %d..%d", got.Weekly[0].TempMin, got.Weekly[0].TempMax)
	}
}

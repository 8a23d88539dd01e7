package weather

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// day0 is midnight UTC of the first forecast day used in tests.
var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

const threeHours = int64(3 * time.Hour / time.Second)

type sample struct {
	dt       int64
	temp     float64
	cond     string
	desc     string
	humidity float64
	wind     float64
	pop      float64
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return b
}

func conditionJSON(cond, desc string) []map[string]any {
	if desc == "" {
		desc = strings.ToLower(cond)
	}
	return []map[string]any{{
		"id":          800,
		"main":        cond,
		"description": desc,
		"icon":        strings.ToLower(cond[:2]) + "d",
	}}
}

func forecastPayload(t *testing.T, tz int, samples ...sample) []byte {
	t.Helper()
	list := make([]map[string]any, 0, len(samples))
	for _, s := range samples {
		list = append(list, map[string]any{
			"dt": s.dt,
			"main": map[string]any{
				"temp":       s.temp,
				"feels_like": s.temp - 1,
				"humidity":   s.humidity,
				"pressure":   1012,
			},
			"weather": conditionJSON(s.cond, s.desc),
			"wind":    map[string]any{"speed": s.wind},
			"pop":     s.pop,
		})
	}
	return mustJSON(t, map[string]any{
		"cod":  "200",
		"cnt":  len(list),
		"list": list,
		"city": map[string]any{"name": "Test City", "timezone": tz},
	})
}

// steadyForecast returns n samples three hours apart starting at day0.
func steadyForecast(t *testing.T, n int) []byte {
	t.Helper()
	samples := make([]sample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, sample{
			dt:       day0 + int64(i)*threeHours,
			temp:     20 + float64(i%8),
			cond:     "Clear",
			humidity: 50,
			wind:     3,
			pop:      0.1,
		})
	}
	return forecastPayload(t, 0, samples...)
}

func currentPayload(t *testing.T, name string, lat, lon, temp float64) []byte {
	t.Helper()
	return mustJSON(t, map[string]any{
		"coord":   map[string]any{"lat": lat, "lon": lon},
		"weather": conditionJSON("Clouds", "scattered clouds"),
		"main": map[string]any{
			"temp":       temp,
			"feels_like": temp - 0.6,
			"humidity":   62,
			"pressure":   1009,
		},
		"visibility": 8000,
		"wind":       map[string]any{"speed": 4.12},
		"clouds":     map[string]any{"all": 40},
		"dt":         day0 + 3600,
		"sys": map[string]any{
			"country": "IN",
			"sunrise": day0 + 5*3600,
			"sunset":  day0 + 16*3600,
		},
		"timezone": 19800,
		"name":     name,
		"cod":      200,
	})
}

// withoutField decodes raw, deletes the dotted path (a leading "list.0"
// addresses the first forecast entry) and re-encodes it.
func withoutField(t *testing.T, raw []byte, path string) []byte {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	parts := strings.Split(path, ".")
	node := doc
	for i := 0; i < len(parts)-1; i++ {
		next := node[parts[i]]
		if list, ok := next.([]any); ok {
			i++
			next = list[0]
			if i == len(parts)-1 {
				t.Fatalf("path %q ends in a list index", path)
			}
		}
		m, ok := next.(map[string]any)
		if !ok {
			t.Fatalf("path %q: %q is not an object", path, parts[i])
		}
		node = m
	}
	delete(node, parts[len(parts)-1])
	return mustJSON(t, doc)
}

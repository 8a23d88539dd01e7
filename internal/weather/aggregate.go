package weather

import (
	"time"

	"github.com/mausam360/backend/internal/common"
)

// daySamples collects the forecast samples that fall on one local date.
type daySamples struct {
	date       string
	timestamp  int64 // first sample of the date
	temps      []float64
	conditions []rawCondition
	humidity   []float64
	wind       []float64
	pop        []float64
}

// localDate returns the calendar date of a unix timestamp shifted by the
// provider's UTC offset.
func localDate(ts int64, tzOffset int) string {
	return time.Unix(ts+int64(tzOffset), 0).UTC().Format(time.DateOnly)
}

// aggregateDaily groups every entry by local date. Groups keep the order in
// which their date first appears in the list and are not re-sorted.
func aggregateDaily(entries []rawForecastEntry, tzOffset int) []DailySummary {
	var (
		days  []*daySamples
		index = make(map[string]*daySamples)
	)

	for _, e := range entries {
		date := localDate(*e.Dt, tzOffset)
		day, ok := index[date]
		if !ok {
			day = &daySamples{date: date, timestamp: *e.Dt}
			index[date] = day
			days = append(days, day)
		}
		day.temps = append(day.temps, *e.Main.Temp)
		day.conditions = append(day.conditions, e.Weather[0])
		day.humidity = append(day.humidity, *e.Main.Humidity)
		day.wind = append(day.wind, *e.Wind.Speed)
		day.pop = append(day.pop, *e.Pop)
	}

	if len(days) > MaxDailySummaries {
		days = days[:MaxDailySummaries]
	}

	summaries := make([]DailySummary, 0, len(days))
	for _, day := range days {
		summaries = append(summaries, summarizeDay(day))
	}
	return summaries
}

func summarizeDay(day *daySamples) DailySummary {
	lo, hi := common.MinMax(day.temps)
	_, maxPop := common.MinMax(day.pop)
	cond := modalCondition(day.conditions)

	return DailySummary{
		Date:        day.date,
		Timestamp:   day.timestamp,
		TempMin:     common.RoundInt(lo),
		TempMax:     common.RoundInt(hi),
		Condition:   cond.Main,
		Description: cond.Description,
		Icon:        cond.Icon,
		Humidity:    common.RoundInt(common.Mean(day.humidity)),
		WindSpeed:   common.RoundInt(common.Mean(day.wind)),
		Pop:         common.Percent(maxPop),
	}
}

// modalCondition picks the most frequent condition. Scanning in sample
// order, the first value to reach a new maximum count wins, and the
// description/icon come from that sample.
func modalCondition(conditions []rawCondition) rawCondition {
	if len(conditions) == 0 {
		return rawCondition{}
	}

	counts := make(map[string]int, len(conditions))
	best := conditions[0]
	bestCount := 0
	for _, c := range conditions {
		counts[c.Main]++
		if counts[c.Main] > bestCount {
			bestCount = counts[c.Main]
			best = c
		}
	}
	return best
}

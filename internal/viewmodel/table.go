package viewmodel

import "TickerWatch/internal/model"

// DefaultTableRows is how many recent closes the table keeps.
const DefaultTableRows = 7

// BuildRecentRows computes day-over-day percent change across the whole series,
// then keeps the last limit rows, newest first. The oldest kept row therefore
// still has a change whenever the series is longer than limit.
func BuildRecentRows(series model.PriceSeries, limit int) []model.RecentChangeRow {
	if limit <= 0 {
		limit = DefaultTableRows
	}
	rows := make([]model.RecentChangeRow, len(series))
	for i, p := range series {
		rows[i] = model.RecentChangeRow{Date: p.Date.Format(dateLayout), Close: p.Close}
		if i == 0 {
			continue
		}
		prev := series[i-1].Close
		if prev == 0 {
			continue
		}
		pct := (p.Close - prev) / prev * 100
		rows[i].PercentChange = &pct
	}

	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	out := make([]model.RecentChangeRow, len(rows))
	for i := range rows {
		out[i] = rows[len(rows)-1-i]
	}
	return out
}

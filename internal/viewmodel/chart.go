// Package viewmodel reshapes fetched price history into what the display sinks draw.
package viewmodel

import (
	"fmt"

	"github.com/shopspring/decimal"

	"TickerWatch/internal/model"
)

const dateLayout = "2006-01-02"

// BuildChartSeries maps every point to {date, close rounded to 3 places}.
// The provider's rows are passed through as-is: no resampling, no gap filling.
func BuildChartSeries(series model.PriceSeries) model.ChartSeries {
	out := make(model.ChartSeries, len(series))
	for i, p := range series {
		out[i] = model.ChartPoint{
			Time:  p.Date.Format(dateLayout),
			Value: round(p.Close, 3),
		}
	}
	return out
}

// ChartTitle is the heading shown above the chart.
func ChartTitle(displayName string, period model.Period) string {
	return fmt.Sprintf("%s %s price chart", displayName, period.Label())
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

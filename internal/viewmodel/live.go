package viewmodel

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"TickerWatch/internal/model"
)

// ComputeLiveReading derives the live indicator from the latest point and the
// session's fixed previous close. The change is 1 - previous/current, rounded to
// five places of the ratio and then expressed in percent.
func ComputeLiveReading(ticker string, latest *model.PricePoint, previousClose *float64, at time.Time) model.LiveReading {
	r := model.LiveReading{Ticker: strings.ToUpper(ticker), At: at}
	if latest == nil {
		r.NoData = true
		return r
	}
	current := latest.Close
	r.CurrentPrice = &current
	if previousClose == nil {
		return r
	}
	prev := *previousClose
	r.PreviousClose = &prev
	if current == 0 {
		return r
	}

	ratio := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(prev).Div(decimal.NewFromFloat(current)))
	pct, _ := ratio.Round(5).Mul(decimal.NewFromInt(100)).Float64()
	r.PercentChange = &pct
	return r
}

// MetricLabel is the caption of the live price indicator.
func MetricLabel(ticker string) string {
	return strings.ToUpper(ticker) + " current price"
}

// FormatMetric renders a reading as "$110.00 (9.091%)".
func FormatMetric(r model.LiveReading) string {
	if r.CurrentPrice == nil {
		return "-"
	}
	s := fmt.Sprintf("$%.2f", *r.CurrentPrice)
	if r.PercentChange != nil {
		s += fmt.Sprintf(" (%s%%)", percentText(*r.PercentChange))
	}
	return s
}

// percentText keeps at least one decimal place, so 20 reads 20.0.
func percentText(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.Exponent() >= 0 {
		return d.StringFixed(1)
	}
	return d.String()
}

// FormatClose renders a close price cell.
func FormatClose(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatPercent renders a percent-change cell; undefined changes render empty.
func FormatPercent(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f%%", *v)
}

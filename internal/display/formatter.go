package display

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"

	"TickerWatch/internal/model"
	"TickerWatch/internal/viewmodel"
)

// Sparkline draws the series as one row of block characters. Values are shifted
// so the lowest close still shows a sliver and the highest a full block.
func Sparkline(series model.ChartSeries) string {
	if len(series) == 0 {
		return ""
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range series {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	floor := span / 7

	sl := sparkline.New(len(series), 1, sparkline.WithNoAutoMaxValue(), sparkline.WithMaxValue(span+floor))
	for _, p := range series {
		sl.Push(p.Value - lo + floor)
	}
	sl.Draw()
	return sl.View()
}

// FormatChartSummary describes a chart for sinks that cannot draw one.
func FormatChartSummary(title string, series model.ChartSeries) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b>\n\n", title))
	if len(series) == 0 {
		b.WriteString("no data")
		return b.String()
	}
	first, last := series[0], series[len(series)-1]
	b.WriteString(Sparkline(series))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %.2f → %s %.2f (%d points)", first.Time, first.Value, last.Time, last.Value, len(series)))
	return b.String()
}

// FormatTable renders the recent closes as a monospace block with a tint marker per row.
func FormatTable(rows []model.RecentChangeRow) string {
	var b strings.Builder
	b.WriteString("<pre>")
	b.WriteString(fmt.Sprintf("%-10s %10s %9s\n", "Date", "Close", "Change"))
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-10s %10s %9s %s\n",
			r.Date, viewmodel.FormatClose(r.Close), viewmodel.FormatPercent(r.PercentChange), tintMarker(model.TintFor(r.PercentChange))))
	}
	b.WriteString("</pre>")
	return b.String()
}

func tintMarker(t model.ChangeTint) string {
	switch t {
	case model.TintBlue:
		return "🔵"
	case model.TintRed:
		return "🔴"
	default:
		return ""
	}
}

// rgbaToHex converts "rgba(38,198,218, 0.56)" or "rgb(1,2,3)" to "#26C6DA".
// Anything else is returned unchanged.
func rgbaToHex(css string) string {
	s := strings.TrimSpace(css)
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open || !strings.HasPrefix(strings.ToLower(s), "rgb") {
		return css
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) < 3 {
		return css
	}
	var rgb [3]int
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return css
		}
		rgb[i] = v
	}
	return fmt.Sprintf("#%02X%02X%02X", rgb[0], rgb[1], rgb[2])
}

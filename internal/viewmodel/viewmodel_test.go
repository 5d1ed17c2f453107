package viewmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerWatch/internal/collector"
	"TickerWatch/internal/model"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))
}

func TestBuildChartSeries(t *testing.T) {
	series := model.PriceSeries{
		{Date: day(2), Close: 185.6399993896484},
		{Date: day(3), Close: 184.2500152587891},
		{Date: day(4), Close: 181.9100036621094},
	}

	got := BuildChartSeries(series)
	require.Len(t, got, len(series))
	assert.Equal(t, model.ChartPoint{Time: "2024-01-02", Value: 185.64}, got[0])
	assert.Equal(t, model.ChartPoint{Time: "2024-01-03", Value: 184.25}, got[1])
	assert.Equal(t, model.ChartPoint{Time: "2024-01-04", Value: 181.91}, got[2])

	assert.Equal(t, got, BuildChartSeries(series), "same input must give same output")
	assert.Empty(t, BuildChartSeries(nil))
}

func TestBuildChartSeries_Rounding(t *testing.T) {
	got := BuildChartSeries(model.PriceSeries{{Date: day(2), Close: 1.23456}, {Date: day(3), Close: 99.9995}, {Date: day(4), Close: 0.0625}})
	assert.Equal(t, 1.235, got[0].Value)
	assert.Equal(t, 100.0, got[1].Value)
	// ties round half away from zero
	assert.Equal(t, 0.063, got[2].Value)
}

func TestBuildRecentRows(t *testing.T) {
	var series model.PriceSeries
	for i := 1; i <= 10; i++ {
		series = append(series, model.PricePoint{Date: day(i), Close: float64(100 + i)})
	}

	rows := BuildRecentRows(series, DefaultTableRows)
	require.Len(t, rows, 7)
	assert.Equal(t, "2024-01-10", rows[0].Date)
	assert.Equal(t, "2024-01-04", rows[6].Date)
	for i := 1; i < len(rows); i++ {
		assert.Greater(t, rows[i-1].Date, rows[i].Date, "rows must be newest first")
	}
	for _, r := range rows {
		require.NotNil(t, r.PercentChange, r.Date)
	}
	// oldest kept row compares against the day just outside the window
	assert.InDelta(t, (104.0-103.0)/103.0*100, *rows[6].PercentChange, 1e-9)
	assert.InDelta(t, (110.0-109.0)/109.0*100, *rows[0].PercentChange, 1e-9)
}

func TestBuildRecentRows_ShortSeries(t *testing.T) {
	rows := BuildRecentRows(model.PriceSeries{{Date: day(2), Close: 10}}, 7)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PercentChange)

	rows = BuildRecentRows(model.PriceSeries{{Date: day(2), Close: 10}, {Date: day(3), Close: 9}}, 7)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[1].PercentChange, "first row of the series has nothing to compare with")
	require.NotNil(t, rows[0].PercentChange)
	assert.InDelta(t, -10.0, *rows[0].PercentChange, 1e-9)

	assert.Empty(t, BuildRecentRows(nil, 7))
}

func TestComputeLiveReading_Formula(t *testing.T) {
	prev := 100.0
	latest := &model.PricePoint{Date: day(5), Close: 110}

	r := ComputeLiveReading("aapl", latest, &prev, day(5))
	require.NotNil(t, r.PercentChange)
	assert.Equal(t, 9.091, *r.PercentChange)
	assert.NotEqual(t, 10.0, *r.PercentChange)
	assert.Equal(t, "AAPL", r.Ticker)
	assert.False(t, r.NoData)
	assert.Equal(t, 110.0, *r.CurrentPrice)
	assert.Equal(t, 100.0, *r.PreviousClose)
	assert.Equal(t, "$110.00 (9.091%)", FormatMetric(r))
}

func TestComputeLiveReading_Falling(t *testing.T) {
	prev := 110.0
	r := ComputeLiveReading("AAPL", &model.PricePoint{Close: 100}, &prev, time.Time{})
	require.NotNil(t, r.PercentChange)
	assert.Equal(t, -10.0, *r.PercentChange)
	assert.Equal(t, "$100.00 (-10.0%)", FormatMetric(r))
}

func TestFormatMetric_KeepsOneDecimal(t *testing.T) {
	price := 50.0
	for _, tc := range []struct {
		pct  float64
		want string
	}{
		{20, "$50.00 (20.0%)"},
		{0, "$50.00 (0.0%)"},
		{0.5, "$50.00 (0.5%)"},
		{-0.062, "$50.00 (-0.062%)"},
	} {
		pct := tc.pct
		assert.Equal(t, tc.want, FormatMetric(model.LiveReading{CurrentPrice: &price, PercentChange: &pct}))
	}
}

func TestComputeLiveReading_NoData(t *testing.T) {
	prev := 100.0
	r := ComputeLiveReading("AAPL", nil, &prev, time.Time{})
	assert.True(t, r.NoData)
	assert.Nil(t, r.CurrentPrice)
	assert.Nil(t, r.PercentChange)
	assert.Equal(t, "-", FormatMetric(r))
}

func TestComputeLiveReading_NoPreviousClose(t *testing.T) {
	r := ComputeLiveReading("AAPL", &model.PricePoint{Close: 12.5}, nil, time.Time{})
	assert.False(t, r.NoData)
	assert.Nil(t, r.PercentChange)
	assert.Equal(t, "$12.50", FormatMetric(r))
}

func TestFormatting(t *testing.T) {
	pct := -1.23456
	assert.Equal(t, "AAPL current price", MetricLabel("aapl"))
	assert.Equal(t, "184.25", FormatClose(184.2500152587891))
	assert.Equal(t, "-1.23%", FormatPercent(&pct))
	assert.Equal(t, "", FormatPercent(nil))
	assert.Equal(t, "Apple Inc. 3 months price chart", ChartTitle("Apple Inc.", model.Period3M))
}

// 63 trading days over three months: the chart keeps every day, the table keeps a week.
func TestScenario_ThreeMonths(t *testing.T) {
	series := collector.GenerateSeries(time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC), 170, 63)

	chart := BuildChartSeries(series)
	rows := BuildRecentRows(series, DefaultTableRows)

	assert.Len(t, chart, 63)
	assert.Len(t, rows, 7)
	assert.Equal(t, chart[62].Time, rows[0].Date)
}

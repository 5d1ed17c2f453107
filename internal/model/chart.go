package model

// ChartPoint is one entry of an area series, shaped for lightweight-charts.
type ChartPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// ChartSeries is the display-only projection of a PriceSeries.
type ChartSeries []ChartPoint

// ChartStyle describes the area series look.
type ChartStyle struct {
	TopColor    string `json:"topColor"`
	BottomColor string `json:"bottomColor"`
	LineColor   string `json:"lineColor"`
	LineWidth   int    `json:"lineWidth"`
}

// DefaultChartStyle is the cyan area fill used by the dashboard.
func DefaultChartStyle() ChartStyle {
	return ChartStyle{
		TopColor:    "rgba(38,198,218, 0.56)",
		BottomColor: "rgba(38,198,218, 0.04)",
		LineColor:   "rgba(38,198,218, 1)",
		LineWidth:   2,
	}
}

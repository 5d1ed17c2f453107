package display

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	"github.com/charmbracelet/lipgloss"

	"TickerWatch/internal/model"
	"TickerWatch/internal/viewmodel"
)

// Terminal renders the dashboard as styled text on a writer.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	width  int
	height int

	titleStyle  lipgloss.Style
	labelStyle  lipgloss.Style
	valueStyle  lipgloss.Style
	warnStyle   lipgloss.Style
	errorStyle  lipgloss.Style
	headerStyle lipgloss.Style
}

// NewTerminal creates a terminal sink. Non-positive sizes fall back to 80x16.
func NewTerminal(out io.Writer, width, height int) *Terminal {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 16
	}
	return &Terminal{
		out:         out,
		width:       width,
		height:      height,
		titleStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		labelStyle:  lipgloss.NewStyle().Faint(true),
		valueStyle:  lipgloss.NewStyle().Bold(true),
		warnStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		errorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		headerStyle: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

func (t *Terminal) println(s string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.out, s)
	return err
}

func (t *Terminal) RenderMetric(_ context.Context, label, value string) error {
	return t.println(t.labelStyle.Render(label) + "  " + t.valueStyle.Render(value))
}

func (t *Terminal) RenderWarning(_ context.Context, message string) error {
	return t.println(t.warnStyle.Render("⚠ " + message))
}

func (t *Terminal) RenderError(_ context.Context, message string) error {
	return t.println(t.errorStyle.Render("✖ " + message))
}

func (t *Terminal) RenderChart(_ context.Context, title string, series model.ChartSeries, style model.ChartStyle) error {
	var b strings.Builder
	b.WriteString(t.titleStyle.Render(title))
	b.WriteString("\n")
	if len(series) < 2 {
		b.WriteString(t.labelStyle.Render(fmt.Sprintf("(%d point(s), nothing to draw)", len(series))))
		return t.println(b.String())
	}
	b.WriteString(t.drawChart(series, style))
	return t.println(b.String())
}

func (t *Terminal) drawChart(series model.ChartSeries, style model.ChartStyle) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range series {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	margin := (hi - lo) * 0.05
	if margin == 0 {
		margin = 1
	}

	lineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbaToHex(style.LineColor)))

	xLabel := func(_ int, v float64) string {
		i := int(math.Round(v))
		if i < 0 || i >= len(series) {
			return ""
		}
		if d := series[i].Time; len(d) == len("2006-01-02") {
			return d[5:] // MM-DD
		}
		return series[i].Time
	}
	yLabel := func(_ int, v float64) string {
		return fmt.Sprintf("%.2f", v)
	}

	lc := linechart.New(t.width, t.height,
		0, float64(len(series)-1),
		lo-margin, hi+margin,
		linechart.WithXYSteps(6, 4),
		linechart.WithXLabelFormatter(xLabel),
		linechart.WithYLabelFormatter(yLabel),
		linechart.WithStyles(lipgloss.Style{}, lipgloss.Style{}, lineStyle),
	)
	for i := 0; i < len(series)-1; i++ {
		p1 := canvas.Float64Point{X: float64(i), Y: series[i].Value}
		p2 := canvas.Float64Point{X: float64(i + 1), Y: series[i+1].Value}
		lc.DrawBrailleLineWithStyle(p1, p2, lineStyle)
	}
	lc.DrawXYAxisAndLabel()
	return lc.View()
}

func (t *Terminal) RenderTable(_ context.Context, rows []model.RecentChangeRow) error {
	dateCol := lipgloss.NewStyle().Width(12)
	closeCol := lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
	changeCol := lipgloss.NewStyle().Width(10).Align(lipgloss.Right)

	var b strings.Builder
	b.WriteString(t.headerStyle.Render(
		dateCol.Render("Date") + closeCol.Render("Close") + changeCol.Render("Change")))
	for _, r := range rows {
		cell := changeCol
		if tint := model.TintFor(r.PercentChange); tint != model.TintNone {
			cell = cell.Background(lipgloss.Color(rgbaToHex(string(tint))))
		}
		b.WriteString("\n")
		b.WriteString(dateCol.Render(r.Date))
		b.WriteString(closeCol.Render(viewmodel.FormatClose(r.Close)))
		b.WriteString(cell.Render(viewmodel.FormatPercent(r.PercentChange)))
	}
	return t.println(b.String())
}

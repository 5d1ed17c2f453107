// Package display holds the sinks the dashboard renders into.
package display

import (
	"context"
	"errors"

	"TickerWatch/internal/model"
)

// Sink receives everything the dashboard draws. Implementations must tolerate
// calls from the refresh loop and from load requests without outside locking,
// and must give up on blocking work once ctx is done.
type Sink interface {
	RenderMetric(ctx context.Context, label, value string) error
	RenderWarning(ctx context.Context, message string) error
	RenderError(ctx context.Context, message string) error
	RenderChart(ctx context.Context, title string, series model.ChartSeries, style model.ChartStyle) error
	RenderTable(ctx context.Context, rows []model.RecentChangeRow) error
}

// Multi fans every call out to all sinks and joins their errors.
type Multi []Sink

func (m Multi) RenderMetric(ctx context.Context, label, value string) error {
	return m.each(func(s Sink) error { return s.RenderMetric(ctx, label, value) })
}

func (m Multi) RenderWarning(ctx context.Context, message string) error {
	return m.each(func(s Sink) error { return s.RenderWarning(ctx, message) })
}

func (m Multi) RenderError(ctx context.Context, message string) error {
	return m.each(func(s Sink) error { return s.RenderError(ctx, message) })
}

func (m Multi) RenderChart(ctx context.Context, title string, series model.ChartSeries, style model.ChartStyle) error {
	return m.each(func(s Sink) error { return s.RenderChart(ctx, title, series, style) })
}

func (m Multi) RenderTable(ctx context.Context, rows []model.RecentChangeRow) error {
	return m.each(func(s Sink) error { return s.RenderTable(ctx, rows) })
}

func (m Multi) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range m {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop discards everything. Used when no sink is configured.
type Noop struct{}

func (Noop) RenderMetric(context.Context, string, string) error                             { return nil }
func (Noop) RenderWarning(context.Context, string) error                                    { return nil }
func (Noop) RenderError(context.Context, string) error                                      { return nil }
func (Noop) RenderChart(context.Context, string, model.ChartSeries, model.ChartStyle) error { return nil }
func (Noop) RenderTable(context.Context, []model.RecentChangeRow) error                     { return nil }

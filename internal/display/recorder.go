package display

import (
	"context"
	"sync"

	"TickerWatch/internal/model"
)

// Call kinds recorded by Recorder.
const (
	KindMetric  = "metric"
	KindWarning = "warning"
	KindError   = "error"
	KindChart   = "chart"
	KindTable   = "table"
)

// Call is one recorded render.
type Call struct {
	Kind   string
	Label  string
	Value  string
	Title  string
	Series model.ChartSeries
	Style  model.ChartStyle
	Rows   []model.RecentChangeRow
}

// Recorder keeps every render in memory, in call order.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) add(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return nil
}

func (r *Recorder) RenderMetric(_ context.Context, label, value string) error {
	return r.add(Call{Kind: KindMetric, Label: label, Value: value})
}

func (r *Recorder) RenderWarning(_ context.Context, message string) error {
	return r.add(Call{Kind: KindWarning, Value: message})
}

func (r *Recorder) RenderError(_ context.Context, message string) error {
	return r.add(Call{Kind: KindError, Value: message})
}

func (r *Recorder) RenderChart(_ context.Context, title string, series model.ChartSeries, style model.ChartStyle) error {
	return r.add(Call{Kind: KindChart, Title: title, Series: series, Style: style})
}

func (r *Recorder) RenderTable(_ context.Context, rows []model.RecentChangeRow) error {
	return r.add(Call{Kind: KindTable, Rows: rows})
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Of returns the recorded calls of one kind.
func (r *Recorder) Of(kind string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

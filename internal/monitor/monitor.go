// Package monitor runs the live price refresh loop of a dashboard session.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"TickerWatch/internal/collector"
	"TickerWatch/internal/display"
	"TickerWatch/internal/model"
	"TickerWatch/internal/viewmodel"
)

// DefaultInterval is the time between two live price refreshes.
const DefaultInterval = 5 * time.Second

// DataUnavailableMessage is shown when the provider has no price for the ticker.
const DataUnavailableMessage = "Price data is unavailable. Please try again in a moment."

// State of the refresh loop.
type State int

const (
	StateInitializing State = iota
	StateDisplaying
	StateWarning
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateDisplaying:
		return "displaying"
	case StateWarning:
		return "warning"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText lets State appear by name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Session is what the refresh loop knows about the ticker being watched.
// PreviousClose is captured once and reused by every tick.
type Session struct {
	Ticker        string       `json:"ticker"`
	DisplayName   string       `json:"display_name"`
	Period        model.Period `json:"period"`
	PreviousClose *float64     `json:"previous_close,omitempty"`
	StartedAt     time.Time    `json:"started_at"`
}

// Status is a point-in-time copy of a monitor.
type Status struct {
	Session Session            `json:"session"`
	State   State              `json:"state"`
	Last    *model.LiveReading `json:"last,omitempty"`
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the refresh interval. The scheduler works in whole seconds.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLiveWindow sets the lookback fetched on every tick.
func WithLiveWindow(p model.Period) Option {
	return func(m *Monitor) {
		if p.Valid() {
			m.window = p
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Monitor) { m.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor polls the latest price of one session and pushes it to a sink.
type Monitor struct {
	fetcher  collector.Fetcher
	sink     display.Sink
	interval time.Duration
	window   model.Period
	log      logrus.FieldLogger
	now      func() time.Time

	mu      sync.Mutex
	session Session
	state   State
	last    *model.LiveReading
}

// New creates a Monitor in the initializing state.
func New(fetcher collector.Fetcher, sink display.Sink, session Session, opts ...Option) *Monitor {
	m := &Monitor{
		fetcher:  fetcher,
		sink:     sink,
		interval: DefaultInterval,
		window:   collector.DefaultLiveWindow,
		log:      logrus.StandardLogger(),
		now:      time.Now,
		session:  session,
		state:    StateInitializing,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.session.StartedAt.IsZero() {
		m.session.StartedAt = m.now()
	}
	m.log = m.log.WithField("ticker", session.Ticker)
	monitorState.WithLabelValues(session.Ticker).Set(float64(StateInitializing))
	return m
}

// Init fetches the first price and captures the previous close.
// A provider error is returned as-is and leaves the monitor initializing.
// No data moves it to the warning state and renders the warning once.
func (m *Monitor) Init(ctx context.Context) error {
	latest, prior, err := collector.Latest(ctx, m.fetcher, m.session.Ticker, m.window)
	if err != nil {
		ticksTotal.WithLabelValues(outcomeError).Inc()
		return fmt.Errorf("initial price: %w", err)
	}
	if latest == nil {
		ticksTotal.WithLabelValues(outcomeEmpty).Inc()
		m.setState(StateWarning)
		m.log.Warn("no price data at session start")
		if err := m.sink.RenderWarning(ctx, DataUnavailableMessage); err != nil {
			m.log.WithError(err).Error("render warning")
		}
		return nil
	}
	m.capturePreviousClose(prior)
	m.display(ctx, latest)
	return nil
}

// Tick refreshes the live price once. Empty responses and provider errors
// leave the last display in place.
func (m *Monitor) Tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	latest, prior, err := collector.Latest(ctx, m.fetcher, m.session.Ticker, m.window)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		ticksTotal.WithLabelValues(outcomeError).Inc()
		m.log.WithError(err).Warn("refresh failed, keeping last value")
		return
	}
	if latest == nil {
		ticksTotal.WithLabelValues(outcomeEmpty).Inc()
		m.log.Debug("no price data, keeping last value")
		return
	}
	m.capturePreviousClose(prior)
	m.display(ctx, latest)
}

// Run ticks on the configured interval until ctx is cancelled, then waits for
// a running tick to finish. Ticks never overlap.
func (m *Monitor) Run(ctx context.Context) error {
	logger := cron.PrintfLogger(m.log)
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(cron.Every(m.interval), cron.FuncJob(func() { m.Tick(ctx) }))
	c.Start()
	m.log.WithField("interval", m.interval).Info("refresh loop started")

	<-ctx.Done()
	<-c.Stop().Done()
	m.log.Info("refresh loop stopped")
	return nil
}

// Status returns a copy of the session, state and last reading.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{Session: m.session, State: m.state}
	if m.session.PreviousClose != nil {
		prev := *m.session.PreviousClose
		st.Session.PreviousClose = &prev
	}
	if m.last != nil {
		last := *m.last
		st.Last = &last
	}
	return st
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// capturePreviousClose pins the reference close the first time data is seen.
func (m *Monitor) capturePreviousClose(prior *model.PricePoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.PreviousClose != nil || prior == nil {
		return
	}
	prev := prior.Close
	m.session.PreviousClose = &prev
	m.log.WithField("previous_close", prev).Info("previous close captured")
}

func (m *Monitor) display(ctx context.Context, latest *model.PricePoint) {
	m.mu.Lock()
	reading := viewmodel.ComputeLiveReading(m.session.Ticker, latest, m.session.PreviousClose, m.now())
	m.last = &reading
	m.mu.Unlock()
	m.setState(StateDisplaying)

	ticksTotal.WithLabelValues(outcomeDisplayed).Inc()
	if reading.CurrentPrice != nil {
		livePrice.WithLabelValues(m.session.Ticker).Set(*reading.CurrentPrice)
	}
	if reading.PercentChange != nil {
		livePercentChange.WithLabelValues(m.session.Ticker).Set(*reading.PercentChange)
	}

	if err := m.sink.RenderMetric(ctx, viewmodel.MetricLabel(m.session.Ticker), viewmodel.FormatMetric(reading)); err != nil && ctx.Err() == nil {
		m.log.WithError(err).Error("render metric")
	}
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()
	if prev != s {
		m.log.WithFields(logrus.Fields{"from": prev.String(), "to": s.String()}).Info("state changed")
		monitorState.WithLabelValues(m.session.Ticker).Set(float64(s))
	}
}

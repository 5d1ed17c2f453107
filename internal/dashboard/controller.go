// Package dashboard wires a load request to the data fetcher, the view models,
// the display and the refresh loop. Only one session is active at a time.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"TickerWatch/internal/collector"
	"TickerWatch/internal/display"
	"TickerWatch/internal/model"
	"TickerWatch/internal/monitor"
	"TickerWatch/internal/viewmodel"
)

// ErrInvalidInput is returned by Load for an empty ticker or an unknown period.
var ErrInvalidInput = errors.New("invalid input")

// ErrNoSession is returned when an operation needs an active session.
var ErrNoSession = errors.New("no active session")

// ErrLoadCancelled is returned by Load when a newer load or Stop supersedes it.
var ErrLoadCancelled = errors.New("load cancelled")

// Options tunes every session the controller starts.
type Options struct {
	Interval    time.Duration
	LiveWindow  model.Period
	TablePeriod model.Period
	TableRows   int
}

func (o *Options) applyDefaults() {
	if o.Interval <= 0 {
		o.Interval = monitor.DefaultInterval
	}
	if !o.LiveWindow.Valid() {
		o.LiveWindow = collector.DefaultLiveWindow
	}
	if !o.TablePeriod.Valid() {
		o.TablePeriod = model.Period1M
	}
	if o.TableRows <= 0 {
		o.TableRows = viewmodel.DefaultTableRows
	}
}

// Controller runs the load action and owns the active session.
type Controller struct {
	fetcher collector.Fetcher
	sink    display.Sink
	opts    Options
	log     logrus.FieldLogger
	base    context.Context

	// loadMu serialises loads; mu guards the fields below and is never held
	// across fetches or sink calls.
	loadMu    sync.Mutex
	mu        sync.Mutex
	mon       *monitor.Monitor
	cancel    context.CancelFunc
	done      chan struct{}
	abortLoad context.CancelFunc
	loadSeq   uint64
}

// New creates a controller. Sessions run under ctx and stop when it is cancelled.
func New(ctx context.Context, fetcher collector.Fetcher, sink display.Sink, opts Options, log logrus.FieldLogger) *Controller {
	opts.applyDefaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		fetcher: fetcher,
		sink:    sink,
		opts:    opts,
		log:     log,
		base:    ctx,
	}
}

// Options returns the effective session options.
func (c *Controller) Options() Options { return c.opts }

// Load replaces the active session with one watching ticker over period.
// An empty period means model.DefaultPeriod.
func (c *Controller) Load(ctx context.Context, ticker string, period model.Period) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalidInput)
	}
	if period == "" {
		period = model.DefaultPeriod
	}
	if !period.Valid() {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInput, period, model.ErrUnknownPeriod)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.abortLoad != nil {
		c.abortLoad()
	}
	c.loadSeq++
	seq := c.loadSeq
	c.abortLoad = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.loadSeq == seq {
			c.abortLoad = nil
		}
		c.mu.Unlock()
	}()

	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	c.stopSession()
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrLoadCancelled, ctx.Err())
	}

	log := c.log.WithFields(logrus.Fields{"ticker": ticker, "period": string(period)})
	log.Info("loading dashboard")

	history, err := c.fetcher.FetchHistory(ctx, ticker, period)
	if err != nil {
		return c.fail(ctx, log, ticker, fmt.Errorf("chart history: %w", err))
	}
	recent, err := c.fetcher.FetchHistory(ctx, ticker, c.opts.TablePeriod)
	if err != nil {
		return c.fail(ctx, log, ticker, fmt.Errorf("table history: %w", err))
	}
	name := collector.DisplayName(ctx, c.fetcher, ticker, log)

	mon := monitor.New(c.fetcher, c.sink,
		monitor.Session{Ticker: ticker, DisplayName: name, Period: period},
		monitor.WithInterval(c.opts.Interval),
		monitor.WithLiveWindow(c.opts.LiveWindow),
		monitor.WithLogger(c.log),
	)
	if err := mon.Init(ctx); err != nil {
		return c.fail(ctx, log, ticker, err)
	}

	title := viewmodel.ChartTitle(name, period)
	if err := c.sink.RenderChart(ctx, title, viewmodel.BuildChartSeries(history), model.DefaultChartStyle()); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("render chart")
	}
	if err := c.sink.RenderTable(ctx, viewmodel.BuildRecentRows(recent, c.opts.TableRows)); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("render table")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		log.Info("load superseded")
		return fmt.Errorf("%w: %v", ErrLoadCancelled, ctx.Err())
	}
	sessCtx, stop := context.WithCancel(c.base)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := mon.Run(sessCtx); err != nil {
			log.WithError(err).Error("refresh loop exited")
		}
	}()
	c.mon, c.cancel, c.done = mon, stop, done

	log.WithFields(logrus.Fields{"points": len(history), "name": name}).Info("dashboard loaded")
	return nil
}

// fail renders a load error unless the load was cancelled.
func (c *Controller) fail(ctx context.Context, log logrus.FieldLogger, ticker string, err error) error {
	if ctx.Err() != nil {
		log.WithError(err).Info("load cancelled")
		return fmt.Errorf("%w: %v", ErrLoadCancelled, err)
	}
	log.WithError(err).Error("load failed")
	if rerr := c.sink.RenderError(ctx, fmt.Sprintf("Could not load %s: %v", ticker, err)); rerr != nil {
		log.WithError(rerr).Error("render error")
	}
	return err
}

// Current returns the status of the active session.
func (c *Controller) Current() (monitor.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mon == nil {
		return monitor.Status{}, false
	}
	return c.mon.Status(), true
}

// Stop aborts a load in progress, cancels the active session and waits for
// its refresh loop to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.abortLoad != nil {
		c.abortLoad()
		c.abortLoad = nil
	}
	c.mu.Unlock()
	c.stopSession()
}

func (c *Controller) stopSession() {
	c.mu.Lock()
	mon, cancel, done := c.mon, c.cancel, c.done
	c.mon, c.cancel, c.done = nil, nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	c.log.WithField("ticker", mon.Status().Session.Ticker).Info("session stopped")
}

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tick outcomes.
const (
	outcomeDisplayed = "displayed"
	outcomeEmpty     = "empty"
	outcomeError     = "error"
)

var (
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickerwatch_monitor_ticks_total",
		Help: "Live price refreshes by outcome.",
	}, []string{"outcome"})

	livePrice = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tickerwatch_live_price",
		Help: "Latest polled price per ticker.",
	}, []string{"ticker"})

	livePercentChange = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tickerwatch_live_percent_change",
		Help: "Latest percent change against the session's previous close.",
	}, []string{"ticker"})

	monitorState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tickerwatch_monitor_state",
		Help: "Refresh loop state (0 initializing, 1 displaying, 2 warning).",
	}, []string{"ticker"})
)

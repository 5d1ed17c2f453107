package model

import (
	"errors"
	"fmt"
	"strings"
)

// Period is a lookback window understood by the market-data provider.
type Period string

const (
	Period1D Period = "1d"
	Period5D Period = "5d"
	Period1M Period = "1mo"
	Period3M Period = "3mo"
	Period6M Period = "6mo"
	Period1Y Period = "1y"

	DefaultPeriod = Period3M
)

// ErrUnknownPeriod is returned by ParsePeriod for values outside the selector.
var ErrUnknownPeriod = errors.New("unknown period")

var periodLabels = map[Period]string{
	Period1D: "1 day",
	Period5D: "5 days",
	Period1M: "1 month",
	Period3M: "3 months",
	Period6M: "6 months",
	Period1Y: "1 year",
}

// Periods returns the selectable periods in display order.
func Periods() []Period {
	return []Period{Period1D, Period5D, Period1M, Period3M, Period6M, Period1Y}
}

// ParsePeriod accepts either the provider code ("3mo") or the display label ("3 months").
func ParsePeriod(s string) (Period, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Periods() {
		if v == string(p) || v == periodLabels[p] {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Valid reports whether p is one of the selectable periods.
func (p Period) Valid() bool {
	_, ok := periodLabels[p]
	return ok
}

// Label is the human-readable name of the period.
func (p Period) Label() string {
	if l, ok := periodLabels[p]; ok {
		return l
	}
	return string(p)
}

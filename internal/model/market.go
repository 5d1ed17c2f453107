package model

import "time"

// PricePoint is a single daily close as returned by the provider.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries holds price points in chronological order (oldest first).
type PriceSeries []PricePoint

// Last returns the most recent point, or nil when the series is empty.
func (s PriceSeries) Last() *PricePoint {
	if len(s) == 0 {
		return nil
	}
	p := s[len(s)-1]
	return &p
}

// LiveReading is the result of one refresh tick.
type LiveReading struct {
	Ticker        string    `json:"ticker"`
	CurrentPrice  *float64  `json:"current_price,omitempty"`
	PreviousClose *float64  `json:"previous_close,omitempty"`
	PercentChange *float64  `json:"percent_change,omitempty"`
	NoData        bool      `json:"no_data"`
	At            time.Time `json:"at"`
}

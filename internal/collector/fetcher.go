package collector

import (
	"context"
	"sync"
	"time"

	"TickerWatch/internal/model"
)

// Profile is the descriptive part of a ticker lookup.
type Profile struct {
	Symbol    string
	ShortName string
	LongName  string
}

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchHistory returns daily closes for the period, oldest first.
	// It returns an empty series and a nil error when the provider has no rows.
	FetchHistory(ctx context.Context, ticker string, period model.Period) (model.PriceSeries, error)
	FetchProfile(ctx context.Context, ticker string) (Profile, error)
	Name() string
}

// MockResponse is one scripted answer of a MockFetcher.
type MockResponse struct {
	Series model.PriceSeries
	Err    error
}

// MockFetcher returns controllable fixed data for development and testing.
// Responses are consumed per period in order; the last one repeats.
type MockFetcher struct {
	Responses  map[model.Period][]MockResponse
	Profile    Profile
	ProfileErr error

	mu    sync.Mutex
	calls map[model.Period]int
}

// NewMockFetcher creates a MockFetcher that answers every period with the given series.
func NewMockFetcher(series model.PriceSeries) *MockFetcher {
	m := &MockFetcher{Responses: map[model.Period][]MockResponse{}}
	for _, p := range model.Periods() {
		m.Responses[p] = []MockResponse{{Series: series}}
	}
	return m
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(ctx context.Context, ticker string, period model.Period) (model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ProviderError{Provider: m.Name(), Op: "history", Ticker: ticker, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[model.Period]int{}
	}
	n := m.calls[period]
	m.calls[period]++

	script := m.Responses[period]
	if len(script) == 0 {
		return model.PriceSeries{}, nil
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	r := script[n]
	if r.Err != nil {
		return nil, &ProviderError{Provider: m.Name(), Op: "history", Ticker: ticker, Err: r.Err}
	}
	out := make(model.PriceSeries, len(r.Series))
	copy(out, r.Series)
	return out, nil
}

func (m *MockFetcher) FetchProfile(_ context.Context, ticker string) (Profile, error) {
	if m.ProfileErr != nil {
		return Profile{}, &ProviderError{Provider: m.Name(), Op: "profile", Ticker: ticker, Err: m.ProfileErr}
	}
	return m.Profile, nil
}

// Calls returns how many history requests were made for the period.
func (m *MockFetcher) Calls(period model.Period) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[period]
}

// GenerateSeries builds count business-day closes drifting around basePrice,
// ending on the weekday at or before end.
func GenerateSeries(end time.Time, basePrice float64, count int) model.PriceSeries {
	days := make([]time.Time, 0, count)
	d := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	for len(days) < count {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	series := make(model.PriceSeries, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		if i%3 == 1 {
			p *= 0.997
		}
		series[i] = model.PricePoint{Date: days[count-1-i], Close: p}
	}
	return series
}

// tradingDays approximates how many daily bars each period holds.
var tradingDays = map[model.Period]int{
	model.Period1D: 1,
	model.Period5D: 5,
	model.Period1M: 22,
	model.Period3M: 63,
	model.Period6M: 126,
	model.Period1Y: 252,
}

// NewSampleFetcher creates a MockFetcher for offline runs: a year of generated
// closes sliced per period, and a live window whose last close drifts on each
// of the first few refreshes.
func NewSampleFetcher(end time.Time, basePrice float64) *MockFetcher {
	year := GenerateSeries(end, basePrice, tradingDays[model.Period1Y])
	m := &MockFetcher{
		Responses: map[model.Period][]MockResponse{},
		Profile:   Profile{Symbol: "SAMPLE", ShortName: "Sample Corp."},
	}
	for p, n := range tradingDays {
		m.Responses[p] = []MockResponse{{Series: year[len(year)-n:]}}
	}

	last := year[len(year)-1]
	live := m.Responses[model.Period5D]
	for i := 1; i <= 12; i++ {
		window := make(model.PriceSeries, 5)
		copy(window, year[len(year)-5:])
		drift := 1 + float64(i%4-1)*0.004
		window[4] = model.PricePoint{Date: last.Date, Close: last.Close * drift}
		live = append(live, MockResponse{Series: window})
	}
	m.Responses[model.Period5D] = live
	return m
}

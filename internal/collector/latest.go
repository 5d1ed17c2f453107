package collector

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"TickerWatch/internal/model"
)

// DefaultLiveWindow is the lookback used to find the latest and prior closes.
const DefaultLiveWindow = model.Period5D

// Latest fetches the live window and returns its last point and the point before it.
// When the window holds a single row, prior is that same row. Both are nil when the
// provider has no data.
func Latest(ctx context.Context, f Fetcher, ticker string, window model.Period) (latest, prior *model.PricePoint, err error) {
	series, err := f.FetchHistory(ctx, ticker, window)
	if err != nil {
		return nil, nil, err
	}
	latest = series.Last()
	if latest == nil {
		return nil, nil, nil
	}
	p := *latest
	if n := len(series); n >= 2 {
		p = series[n-2]
	}
	return latest, &p, nil
}

// DisplayName returns the provider's name for the ticker, falling back to the
// upper-cased ticker when the provider has none or the lookup fails.
func DisplayName(ctx context.Context, f Fetcher, ticker string, log logrus.FieldLogger) string {
	fallback := strings.ToUpper(strings.TrimSpace(ticker))
	profile, err := f.FetchProfile(ctx, ticker)
	if err != nil {
		log.WithError(err).WithField("ticker", ticker).Warn("profile lookup failed, using ticker as name")
		return fallback
	}
	if name := profile.DisplayName(); name != "" {
		return name
	}
	return fallback
}

// DisplayName prefers the short name over the long one.
func (p Profile) DisplayName() string {
	if p.ShortName != "" {
		return p.ShortName
	}
	return p.LongName
}

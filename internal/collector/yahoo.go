package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"TickerWatch/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooFetcher{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: "Mozilla/5.0",
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := f.SymbolMap[s]; ok {
		return mapped
	}
	return s
}

type yahooMeta struct {
	Symbol               string `json:"symbol"`
	ShortName            string `json:"shortName"`
	LongName             string `json:"longName"`
	GMTOffset            int    `json:"gmtoffset"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
}

type yahooResult struct {
	Meta       yahooMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []yahooResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// fetchChart returns nil without error when Yahoo does not know the symbol.
func (f *YahooFetcher) fetchChart(ctx context.Context, op, symbol, interval, rng string) (*yahooResult, error) {
	fail := func(err error) error {
		return &ProviderError{Provider: f.Name(), Op: op, Ticker: symbol, Err: err}
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fail(err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fail(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(fmt.Errorf("read body: %w", err))
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fail(fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body)))
	}
	if decodeErr != nil {
		return nil, fail(fmt.Errorf("decode: %w", decodeErr))
	}
	if e := chart.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, nil
		}
		return nil, fail(fmt.Errorf("api error %s: %s", e.Code, e.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}
	return &chart.Chart.Result[0], nil
}

func (f *YahooFetcher) FetchHistory(ctx context.Context, ticker string, period model.Period) (model.PriceSeries, error) {
	if !period.Valid() {
		return nil, &ProviderError{Provider: f.Name(), Op: "history", Ticker: ticker, Err: model.ErrUnknownPeriod}
	}
	result, err := f.fetchChart(ctx, "history", ticker, "1d", string(period))
	if err != nil {
		return nil, err
	}
	series := model.PriceSeries{}
	if result == nil || len(result.Indicators.Quote) == 0 {
		return series, nil
	}

	loc := time.FixedZone(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	closes := result.Indicators.Quote[0].Close
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // skip null bars (holidays etc.)
		}
		series = append(series, model.PricePoint{
			Date:  time.Unix(ts, 0).In(loc),
			Close: *closes[i],
		})
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}

func (f *YahooFetcher) FetchProfile(ctx context.Context, ticker string) (Profile, error) {
	result, err := f.fetchChart(ctx, "profile", ticker, "1d", string(model.Period1D))
	if err != nil {
		return Profile{}, err
	}
	if result == nil {
		return Profile{Symbol: f.yahooSymbol(ticker)}, nil
	}
	return Profile{
		Symbol:    result.Meta.Symbol,
		ShortName: result.Meta.ShortName,
		LongName:  result.Meta.LongName,
	}, nil
}

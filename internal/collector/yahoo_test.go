package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerWatch/internal/model"
)

const chartAAPL = `{"chart":{"result":[{
	"meta":{"symbol":"AAPL","shortName":"Apple Inc.","longName":"Apple Inc.","gmtoffset":-18000,"exchangeTimezoneName":"America/New_York"},
	"timestamp":[1704292200,1704205800,1704378600,1704465000],
	"indicators":{"quote":[{"close":[184.25,185.64,null,181.18]}]}
}],"error":null}}`

type seenRequest struct {
	mu        sync.Mutex
	path      string
	query     url.Values
	userAgent string
}

func (s *seenRequest) get() (string, url.Values, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, s.query, s.userAgent
}

func newYahooServer(t *testing.T, status int, body string) (*httptest.Server, *seenRequest) {
	t.Helper()
	seen := &seenRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.mu.Lock()
		seen.path, seen.query, seen.userAgent = r.URL.Path, r.URL.Query(), r.UserAgent()
		seen.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestYahooFetchHistory(t *testing.T) {
	srv, req := newYahooServer(t, http.StatusOK, chartAAPL)
	f := NewYahooFetcher(srv.URL, "", 5*time.Second)

	series, err := f.FetchHistory(context.Background(), "aapl", model.Period3M)
	require.NoError(t, err)

	path, query, ua := req.get()
	assert.Equal(t, "/v8/finance/chart/AAPL", path)
	assert.Equal(t, "1d", query.Get("interval"))
	assert.Equal(t, "3mo", query.Get("range"))
	assert.Equal(t, "Mozilla/5.0", ua)

	require.Len(t, series, 3, "null close must be skipped")
	assert.Equal(t, "2024-01-02", series[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-01-03", series[1].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-01-05", series[2].Date.Format("2006-01-02"))
	assert.Equal(t, 185.64, series[0].Close)
	assert.Equal(t, 181.18, series[2].Close)
}

func TestYahooFetchHistory_SymbolMap(t *testing.T) {
	srv, req := newYahooServer(t, http.StatusOK, chartAAPL)
	f := NewYahooFetcher(srv.URL, "", 0)

	_, err := f.FetchHistory(context.Background(), "spx", model.Period1D)
	require.NoError(t, err)
	path, _, _ := req.get()
	assert.Equal(t, "/v8/finance/chart/^GSPC", path)
}

func TestYahooFetchHistory_Empty(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"no rows", http.StatusOK, `{"chart":{"result":[{"meta":{"symbol":"AAPL"},"indicators":{"quote":[{}]}}],"error":null}}`},
		{"no result", http.StatusOK, `{"chart":{"result":[],"error":null}}`},
		{"unknown ticker", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newYahooServer(t, tt.status, tt.body)
			f := NewYahooFetcher(srv.URL, "", time.Second)

			series, err := f.FetchHistory(context.Background(), "ZZZZ", model.Period5D)
			require.NoError(t, err)
			assert.NotNil(t, series)
			assert.Empty(t, series)
		})
	}
}

func TestYahooFetchHistory_ProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"malformed", http.StatusOK, `{"chart":`},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newYahooServer(t, tt.status, tt.body)
			f := NewYahooFetcher(srv.URL, "", time.Second)

			_, err := f.FetchHistory(context.Background(), "AAPL", model.Period1M)
			var pe *ProviderError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, "yahoo", pe.Provider)
			assert.Equal(t, "history", pe.Op)
		})
	}
}

func TestYahooFetchHistory_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := NewYahooFetcher(addr, "", time.Second)
	_, err := f.FetchHistory(context.Background(), "AAPL", model.Period5D)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe), "got %v", err)
}

func TestYahooFetchHistory_InvalidPeriod(t *testing.T) {
	f := NewYahooFetcher("http://127.0.0.1:1", "", time.Second)
	_, err := f.FetchHistory(context.Background(), "AAPL", model.Period("2w"))
	assert.True(t, errors.Is(err, model.ErrUnknownPeriod))
}

func TestYahooFetchProfile(t *testing.T) {
	srv, _ := newYahooServer(t, http.StatusOK, chartAAPL)
	f := NewYahooFetcher(srv.URL, "", time.Second)

	p, err := f.FetchProfile(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", p.DisplayName())
	assert.Equal(t, "AAPL", p.Symbol)
}

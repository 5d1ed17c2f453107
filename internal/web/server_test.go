package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerWatch/internal/collector"
	"TickerWatch/internal/dashboard"
	"TickerWatch/internal/model"
	"TickerWatch/internal/monitor"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type loadCall struct {
	ticker string
	period model.Period
}

type fakeLoader struct {
	mu     sync.Mutex
	err    error
	calls  []loadCall
	status *monitor.Status
}

func (f *fakeLoader) Load(_ context.Context, ticker string, period model.Period) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, loadCall{ticker, period})
	if f.err != nil {
		return f.err
	}
	f.status = &monitor.Status{
		Session: monitor.Session{Ticker: strings.ToUpper(ticker), Period: period},
		State:   monitor.StateDisplaying,
	}
	return nil
}

func (f *fakeLoader) Current() (monitor.Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == nil {
		return monitor.Status{}, false
	}
	return *f.status, true
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(loader Loader) (*Server, *Hub) {
	hub := NewHub(nil, quietLogger())
	return NewServer(Config{Addr: ":0"}, loader, hub, quietLogger()), hub
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPeriods(t *testing.T) {
	s, _ := newTestServer(&fakeLoader{})

	w := do(t, s.Handler(), http.MethodGet, "/api/periods", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []periodOption
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 6)
	assert.Equal(t, model.Period1D, got[0].Code)
	assert.True(t, got[3].Default)
	assert.Equal(t, model.Period3M, got[3].Code)
	assert.Equal(t, "3 months", got[3].Label)
}

func TestLoad_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"ok", `{"ticker":"aapl","period":"3mo"}`, nil, http.StatusOK},
		{"period label", `{"ticker":"aapl","period":"6 months"}`, nil, http.StatusOK},
		{"invalid input", `{"ticker":"","period":"3mo"}`, fmt.Errorf("%w: ticker is required", dashboard.ErrInvalidInput), http.StatusBadRequest},
		{"provider error", `{"ticker":"aapl"}`, &collector.ProviderError{Provider: "yahoo", Op: "history", Ticker: "AAPL", Err: errors.New("timeout")}, http.StatusBadGateway},
		{"superseded", `{"ticker":"aapl"}`, fmt.Errorf("%w: context canceled", dashboard.ErrLoadCancelled), http.StatusConflict},
		{"other error", `{"ticker":"aapl"}`, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(&fakeLoader{err: tt.err})
			w := do(t, s.Handler(), http.MethodPost, "/api/load", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestLoad_RejectedBeforeLoading(t *testing.T) {
	loader := &fakeLoader{}
	s, _ := newTestServer(loader)

	assert.Equal(t, http.StatusBadRequest, do(t, s.Handler(), http.MethodPost, "/api/load", `{"ticker":"aapl","period":"2y"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s.Handler(), http.MethodPost, "/api/load", `not json`).Code)
	assert.Empty(t, loader.calls)
}

func TestLoad_PassesParsedPeriod(t *testing.T) {
	loader := &fakeLoader{}
	s, _ := newTestServer(loader)

	w := do(t, s.Handler(), http.MethodPost, "/api/load", `{"ticker":"msft","period":"1 year"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, loader.calls, 1)
	assert.Equal(t, loadCall{"msft", model.Period1Y}, loader.calls[0])
	assert.Contains(t, w.Body.String(), `"state":"displaying"`)

	do(t, s.Handler(), http.MethodPost, "/api/load", `{"ticker":"msft"}`)
	assert.Equal(t, model.Period(""), loader.calls[1].period)
}

func TestState(t *testing.T) {
	loader := &fakeLoader{}
	s, hub := newTestServer(loader)

	w := do(t, s.Handler(), http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session":null`)

	require.NoError(t, loader.Load(context.Background(), "aapl", model.Period3M))
	require.NoError(t, hub.RenderMetric(context.Background(), "AAPL current price", "$110.00 (9.091%)"))

	w = do(t, s.Handler(), http.MethodGet, "/api/state", "")
	var got struct {
		Events []Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Events, 1)
	assert.Equal(t, EventMetric, got.Events[0].Type)
	assert.Contains(t, w.Body.String(), `"ticker":"AAPL"`)
}

func TestIndexHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(&fakeLoader{})
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>TickerWatch</title>")

	w = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `tickerwatch_http_requests_total{method="GET",route="/healthz",status="200"}`)
}

func TestCORS(t *testing.T) {
	hub := NewHub(nil, quietLogger())
	s := NewServer(Config{AllowedOrigins: []string{"http://localhost:3000"}}, &fakeLoader{}, hub, quietLogger())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOriginChecker(t *testing.T) {
	assert.Nil(t, OriginChecker(nil))

	check := OriginChecker([]string{"http://localhost:8080"})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(r))
	r.Header.Set("Origin", "http://localhost:8080")
	assert.True(t, check(r))
	r.Header.Set("Origin", "http://other:8080")
	assert.False(t, check(r))
}

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev wireEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWebsocket_ReplayThenLive(t *testing.T) {
	s, hub := newTestServer(&fakeLoader{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	series := model.ChartSeries{{Time: "2024-04-04", Value: 100}, {Time: "2024-04-05", Value: 110}}
	require.NoError(t, hub.RenderMetric(context.Background(), "AAPL current price", "$110.00"))
	require.NoError(t, hub.RenderChart(context.Background(), "Apple Inc. 3 months price chart", series, model.DefaultChartStyle()))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, EventConnected, readEvent(t, conn).Type)

	chart := readEvent(t, conn)
	require.Equal(t, EventChart, chart.Type)
	var cd chartData
	require.NoError(t, json.Unmarshal(chart.Data, &cd))
	assert.Equal(t, "Apple Inc. 3 months price chart", cd.Title)
	assert.Equal(t, series, cd.Series)

	metric := readEvent(t, conn)
	require.Equal(t, EventMetric, metric.Type)
	assert.JSONEq(t, `{"label":"AAPL current price","value":"$110.00"}`, string(metric.Data))
	assert.Equal(t, 1, hub.Clients())

	neg := -1.5
	require.NoError(t, hub.RenderTable(context.Background(), []model.RecentChangeRow{{Date: "2024-04-05", Close: 110, PercentChange: &neg}}))
	table := readEvent(t, conn)
	require.Equal(t, EventTable, table.Type)
	var rows []tableRow
	require.NoError(t, json.Unmarshal(table.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "-1.50%", rows[0].Change)
	assert.Equal(t, "110.00", rows[0].Close)
	assert.Equal(t, string(model.TintBlue), rows[0].Tint)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 5*time.Second, 20*time.Millisecond)
}

func TestHub_SnapshotReplacement(t *testing.T) {
	hub := NewHub(nil, quietLogger())
	types := func() []string {
		var out []string
		for _, ev := range hub.Snapshot() {
			out = append(out, ev.Type)
		}
		return out
	}

	require.NoError(t, hub.RenderChart(context.Background(), "t", nil, model.DefaultChartStyle()))
	require.NoError(t, hub.RenderTable(context.Background(), nil))
	require.NoError(t, hub.RenderMetric(context.Background(), "l", "v"))
	assert.Equal(t, []string{EventChart, EventTable, EventMetric}, types())

	require.NoError(t, hub.RenderWarning(context.Background(), "no data"))
	assert.Equal(t, []string{EventChart, EventTable, EventWarning}, types())

	require.NoError(t, hub.RenderMetric(context.Background(), "l", "v2"))
	assert.Equal(t, []string{EventChart, EventTable, EventMetric}, types())

	require.NoError(t, hub.RenderError(context.Background(), "Could not load AAPL"))
	assert.Equal(t, []string{EventError}, types())

	require.NoError(t, hub.RenderChart(context.Background(), "t", nil, model.DefaultChartStyle()))
	assert.Equal(t, []string{EventChart}, types())
}

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"TickerWatch/internal/model"
	"TickerWatch/internal/viewmodel"
)

// Event types pushed to browsers.
const (
	EventConnected = "connected"
	EventChart     = "chart"
	EventTable     = "table"
	EventMetric    = "metric"
	EventWarning   = "warning"
	EventError     = "error"
)

// replayOrder is the order in which a new client receives the current state.
var replayOrder = []string{EventChart, EventTable, EventMetric, EventWarning, EventError}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

// Event is one websocket message.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	Time time.Time `json:"time"`
}

type metricData struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type chartData struct {
	Title  string            `json:"title"`
	Series model.ChartSeries `json:"series"`
	Style  model.ChartStyle  `json:"style"`
}

type tableRow struct {
	Date          string   `json:"date"`
	Close         string   `json:"close"`
	PercentChange *float64 `json:"percent_change"`
	Change        string   `json:"change"`
	Tint          string   `json:"tint,omitempty"`
}

// Hub is a display sink that pushes every render to connected browsers and
// keeps the latest render of each kind for clients that connect later.
type Hub struct {
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
	now      func() time.Time

	mu      sync.RWMutex
	clients map[string]*client
	latest  map[string]Event
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) closeSend() { c.once.Do(func() { close(c.send) }) }

// NewHub creates a hub. checkOrigin may be nil to accept any origin.
func NewHub(checkOrigin func(r *http.Request) bool, log logrus.FieldLogger) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log:     log,
		now:     time.Now,
		clients: make(map[string]*client),
		latest:  make(map[string]Event),
	}
}

func (h *Hub) RenderMetric(_ context.Context, label, value string) error {
	return h.publish(EventMetric, metricData{Label: label, Value: value}, EventWarning, EventError)
}

// RenderWarning replaces the live metric: a warning is only raised before a
// session has shown any price.
func (h *Hub) RenderWarning(_ context.Context, message string) error {
	return h.publish(EventWarning, message, EventMetric, EventError)
}

// RenderError replaces everything; a failed load leaves no session behind.
func (h *Hub) RenderError(_ context.Context, message string) error {
	return h.publish(EventError, message, EventChart, EventTable, EventMetric, EventWarning)
}

func (h *Hub) RenderChart(_ context.Context, title string, series model.ChartSeries, style model.ChartStyle) error {
	return h.publish(EventChart, chartData{Title: title, Series: series, Style: style}, EventError)
}

func (h *Hub) RenderTable(_ context.Context, rows []model.RecentChangeRow) error {
	out := make([]tableRow, len(rows))
	for i, r := range rows {
		out[i] = tableRow{
			Date:          r.Date,
			Close:         viewmodel.FormatClose(r.Close),
			PercentChange: r.PercentChange,
			Change:        viewmodel.FormatPercent(r.PercentChange),
			Tint:          string(model.TintFor(r.PercentChange)),
		}
	}
	return h.publish(EventTable, out, EventError)
}

// Snapshot returns the latest event of each kind in replay order.
func (h *Hub) Snapshot() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshotLocked()
}

func (h *Hub) snapshotLocked() []Event {
	out := make([]Event, 0, len(replayOrder))
	for _, t := range replayOrder {
		if ev, ok := h.latest[t]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) publish(typ string, data any, clears ...string) error {
	ev := Event{Type: typ, Data: data, Time: h.now()}
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range clears {
		delete(h.latest, t)
	}
	h.latest[typ] = ev
	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.WithField("client", id).Warn("client send buffer full, closing connection")
			h.evictLocked(c)
		}
	}
	eventsTotal.WithLabelValues(typ).Inc()
	return nil
}

// ServeWS upgrades the request and replays the current state to the new client.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if err := h.register(cl); err != nil {
		h.log.WithError(err).Error("register client")
		conn.Close()
		return
	}
	h.log.WithField("client", cl.id).Info("websocket client connected")

	go h.writePump(cl)
	go h.readPump(cl)
}

// register adds the client and queues the greeting and replay under one lock so
// no event is missed or sent twice.
func (h *Hub) register(cl *client) error {
	hello, err := json.Marshal(Event{
		Type: EventConnected,
		Data: map[string]string{"client_id": cl.id},
		Time: h.now(),
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	cl.send <- hello
	for _, ev := range h.snapshotLocked() {
		msg, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		cl.send <- msg
	}
	h.clients[cl.id] = cl
	wsClients.Set(float64(len(h.clients)))
	return nil
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evictLocked(cl)
}

func (h *Hub) evictLocked(cl *client) {
	if _, ok := h.clients[cl.id]; !ok {
		return
	}
	delete(h.clients, cl.id)
	cl.closeSend()
	wsClients.Set(float64(len(h.clients)))
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only handles control frames; browsers never send data.
func (h *Hub) readPump(cl *client) {
	defer func() {
		h.unregister(cl)
		cl.conn.Close()
		h.log.WithField("client", cl.id).Info("websocket client disconnected")
	}()

	cl.conn.SetReadLimit(512)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).WithField("client", cl.id).Warn("websocket read error")
			}
			return
		}
	}
}

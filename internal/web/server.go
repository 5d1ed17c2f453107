// Package web serves the browser dashboard: the page, the load endpoint and a
// websocket stream of everything the display renders.
package web

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"TickerWatch/internal/collector"
	"TickerWatch/internal/dashboard"
	"TickerWatch/internal/model"
	"TickerWatch/internal/monitor"
)

//go:embed static/index.html
var staticFS embed.FS

// Loader starts dashboard sessions. *dashboard.Controller implements it.
type Loader interface {
	Load(ctx context.Context, ticker string, period model.Period) error
	Current() (monitor.Status, bool)
}

// Config configures the HTTP server.
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg    Config
	loader Loader
	hub    *Hub
	log    logrus.FieldLogger
	router *gin.Engine
}

// NewServer builds the router.
func NewServer(cfg Config, loader Loader, hub *Hub, log logrus.FieldLogger) *Server {
	s := &Server{
		cfg:    cfg,
		loader: loader,
		hub:    hub,
		log:    log,
		router: gin.New(),
	}
	s.setupRoutes()
	return s
}

// OriginChecker returns a websocket origin check matching the CORS policy.
// An empty list allows every origin.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func (s *Server) setupRoutes() {
	corsCfg := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = s.cfg.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}

	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
	s.router.Use(cors.New(corsCfg))
	s.router.Use(metricsMiddleware())

	s.router.GET("/", s.index)
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/ws", s.hub.ServeWS)

	api := s.router.Group("/api")
	{
		api.GET("/periods", s.periods)
		api.POST("/load", s.load)
		api.GET("/state", s.state)
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("web dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/metrics" {
			return
		}
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("http request")
	}
}

func (s *Server) index(c *gin.Context) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		c.String(http.StatusInternalServerError, "page missing")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

type periodOption struct {
	Code    model.Period `json:"code"`
	Label   string       `json:"label"`
	Default bool         `json:"default"`
}

func (s *Server) periods(c *gin.Context) {
	out := make([]periodOption, 0, len(model.Periods()))
	for _, p := range model.Periods() {
		out = append(out, periodOption{Code: p, Label: p.Label(), Default: p == model.DefaultPeriod})
	}
	c.JSON(http.StatusOK, out)
}

type loadRequest struct {
	Ticker string `json:"ticker"`
	Period string `json:"period"`
}

func (s *Server) load(c *gin.Context) {
	var req loadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var period model.Period
	if strings.TrimSpace(req.Period) != "" {
		p, err := model.ParsePeriod(req.Period)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		period = p
	}

	err := s.loader.Load(c.Request.Context(), req.Ticker, period)
	var pe *collector.ProviderError
	switch {
	case err == nil:
		st, _ := s.loader.Current()
		c.JSON(http.StatusOK, st)
	case errors.Is(err, dashboard.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, dashboard.ErrLoadCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &pe):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.log.WithError(err).Error("load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) state(c *gin.Context) {
	resp := gin.H{"events": s.hub.Snapshot(), "clients": s.hub.Clients()}
	if st, ok := s.loader.Current(); ok {
		resp["session"] = st
	} else {
		resp["session"] = nil
	}
	c.JSON(http.StatusOK, resp)
}

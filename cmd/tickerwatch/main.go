package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"TickerWatch/internal/collector"
	"TickerWatch/internal/config"
	"TickerWatch/internal/dashboard"
	"TickerWatch/internal/display"
	"TickerWatch/internal/logger"
	"TickerWatch/internal/web"
)

func main() {
	cfgPath := flag.String("config", "", "config file path (default $CONFIG_PATH or "+config.DefaultPath+")")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("load .env")
	}

	// Load config
	path := *cfgPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config validation: %v", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("init logger: %v", err)
	}
	log.WithField("config", path).Info("TickerWatch starting")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.Provider.Name {
	case config.ProviderMock:
		fetcher = collector.NewSampleFetcher(time.Now(), 150)
	default:
		yf := collector.NewYahooFetcher(cfg.Provider.BaseURL, cfg.Proxy, cfg.Provider.Timeout)
		yf.UserAgent = cfg.Provider.UserAgent
		fetcher = yf
	}
	log.WithField("provider", fetcher.Name()).Info("data source ready")

	// Init display sinks
	var sinks display.Multi
	if cfg.Terminal.Enabled {
		sinks = append(sinks, display.NewTerminal(os.Stdout, cfg.Terminal.Width, cfg.Terminal.Height))
	}
	var tg *display.Telegram
	if cfg.TelegramEnabled() {
		tg = display.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sinks = append(sinks, tg)
	}
	var hub *web.Hub
	if cfg.Web.Enabled {
		hub = web.NewHub(web.OriginChecker(cfg.Web.AllowedOrigins), log)
		sinks = append(sinks, hub)
	}

	ctrl := dashboard.New(ctx, fetcher, sinks, dashboard.Options{
		Interval:    cfg.Monitor.Interval,
		LiveWindow:  cfg.Monitor.LiveWindow,
		TablePeriod: cfg.Monitor.TablePeriod,
		TableRows:   cfg.Monitor.TableRows,
	}, log)
	defer ctrl.Stop()

	var wg sync.WaitGroup
	if hub != nil {
		gin.SetMode(gin.ReleaseMode)
		srv := web.NewServer(web.Config{Addr: cfg.Web.Addr, AllowedOrigins: cfg.Web.AllowedOrigins}, ctrl, hub, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				log.WithError(err).Error("web server stopped")
				cancel()
			}
		}()
	}

	if tg != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tg.StartPolling(ctx, ctrl.HandleCommand)
		}()
		log.Info("telegram polling started")
	}

	if cfg.Dashboard.Ticker != "" {
		go func() {
			if err := ctrl.Load(ctx, cfg.Dashboard.Ticker, cfg.Dashboard.Period); err != nil {
				log.WithError(err).WithField("ticker", cfg.Dashboard.Ticker).Error("autoload failed")
			}
		}()
	}

	log.Info("TickerWatch is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()
	ctrl.Stop()
	wg.Wait()
	log.Info("TickerWatch stopped")
}

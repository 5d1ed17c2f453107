package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"TickerWatch/internal/logger"
	"TickerWatch/internal/model"
)

// DefaultPath is used when neither -config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Provider names.
const (
	ProviderYahoo = "yahoo"
	ProviderMock  = "mock"
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		Name      string        `yaml:"name" env:"PROVIDER"`
		BaseURL   string        `yaml:"base_url" env:"PROVIDER_BASE_URL"`
		Timeout   time.Duration `yaml:"timeout" env:"PROVIDER_TIMEOUT"`
		UserAgent string        `yaml:"user_agent" env:"PROVIDER_USER_AGENT"`
	} `yaml:"provider"`
	Proxy   string `yaml:"proxy" env:"HTTPS_PROXY"`
	Monitor struct {
		Interval    time.Duration `yaml:"interval" env:"REFRESH_INTERVAL"`
		LiveWindow  model.Period  `yaml:"live_window" env:"LIVE_WINDOW"`
		TablePeriod model.Period  `yaml:"table_period" env:"TABLE_PERIOD"`
		TableRows   int           `yaml:"table_rows" env:"TABLE_ROWS"`
	} `yaml:"monitor"`
	Dashboard struct {
		Ticker string       `yaml:"ticker" env:"TICKER"`
		Period model.Period `yaml:"period" env:"PERIOD"`
	} `yaml:"dashboard"`
	Web struct {
		Enabled        bool     `yaml:"enabled" env:"WEB_ENABLED"`
		Addr           string   `yaml:"addr" env:"WEB_ADDR"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"WEB_ALLOWED_ORIGINS"`
	} `yaml:"web"`
	Terminal struct {
		Enabled bool `yaml:"enabled" env:"TERMINAL_ENABLED"`
		Width   int  `yaml:"width" env:"TERMINAL_WIDTH"`
		Height  int  `yaml:"height" env:"TERMINAL_HEIGHT"`
	} `yaml:"terminal"`
	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Log logger.Config `yaml:"log"`
}

// Default returns the configuration used for keys absent from file and environment.
func Default() *Config {
	cfg := &Config{}
	cfg.Provider.Name = ProviderYahoo
	cfg.Provider.Timeout = 30 * time.Second
	cfg.Provider.UserAgent = "Mozilla/5.0"
	cfg.Monitor.Interval = 5 * time.Second
	cfg.Monitor.LiveWindow = model.Period5D
	cfg.Monitor.TablePeriod = model.Period1M
	cfg.Monitor.TableRows = 7
	cfg.Dashboard.Period = model.DefaultPeriod
	cfg.Web.Enabled = true
	cfg.Web.Addr = ":8080"
	cfg.Terminal.Enabled = true
	cfg.Terminal.Width = 80
	cfg.Terminal.Height = 16
	cfg.Log = logger.DefaultConfig
	return cfg
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize accepts period labels ("3 months") and trims the ticker.
// Unknown periods are left for Validate to report.
func (c *Config) normalize() {
	for _, p := range []*model.Period{&c.Monitor.LiveWindow, &c.Monitor.TablePeriod, &c.Dashboard.Period} {
		if parsed, err := model.ParsePeriod(string(*p)); err == nil {
			*p = parsed
		}
	}
	c.Dashboard.Ticker = strings.ToUpper(strings.TrimSpace(c.Dashboard.Ticker))
	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case ProviderYahoo, ProviderMock:
	default:
		return fmt.Errorf("provider.name must be %q or %q, got %q", ProviderYahoo, ProviderMock, c.Provider.Name)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be positive")
	}
	if c.Monitor.Interval < time.Second {
		return fmt.Errorf("monitor.interval must be at least 1s, got %s", c.Monitor.Interval)
	}
	if !c.Monitor.LiveWindow.Valid() {
		return fmt.Errorf("monitor.live_window: %w: %q", model.ErrUnknownPeriod, c.Monitor.LiveWindow)
	}
	if !c.Monitor.TablePeriod.Valid() {
		return fmt.Errorf("monitor.table_period: %w: %q", model.ErrUnknownPeriod, c.Monitor.TablePeriod)
	}
	if c.Monitor.TableRows <= 0 {
		return fmt.Errorf("monitor.table_rows must be positive")
	}
	if !c.Dashboard.Period.Valid() {
		return fmt.Errorf("dashboard.period: %w: %q", model.ErrUnknownPeriod, c.Dashboard.Period)
	}
	if c.Web.Enabled && c.Web.Addr == "" {
		return fmt.Errorf("web.addr is required when the web dashboard is enabled")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if !c.Web.Enabled && !c.Terminal.Enabled && !c.TelegramEnabled() {
		return fmt.Errorf("no display enabled: enable web, terminal or telegram")
	}
	return c.Log.Validate()
}

// TelegramEnabled reports whether the Telegram sink is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

package display

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"TickerWatch/internal/model"
)

// DefaultTelegramAPI is the Bot API host.
const DefaultTelegramAPI = "https://api.telegram.org"

// Telegram renders the dashboard into a chat via the Telegram Bot API.
// The live metric is sent once per label and then edited in place.
type Telegram struct {
	BotToken   string
	ChatID     string
	BaseURL    string
	Client     *http.Client
	MaxRetries int

	log logrus.FieldLogger

	mu      sync.Mutex
	metrics map[string]metricMessage
}

type metricMessage struct {
	id   int
	text string
}

// NewTelegram creates a sink with optional proxy support.
func NewTelegram(botToken, chatID, proxyURL string, log logrus.FieldLogger) *Telegram {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Telegram{
		BotToken:   botToken,
		ChatID:     chatID,
		BaseURL:    DefaultTelegramAPI,
		MaxRetries: 3,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		log:     log,
		metrics: map[string]metricMessage{},
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
}

func (t *Telegram) call(ctx context.Context, method string, payload map[string]any) (*telegramResponse, error) {
	apiURL := fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.BotToken, method)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	var out telegramResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram API error: %s", out.Description)
	}
	return &out, nil
}

// Send sends a message to the configured chat and returns its message id.
func (t *Telegram) Send(ctx context.Context, text string) (int, error) {
	resp, err := t.call(ctx, "sendMessage", map[string]any{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return 0, err
	}
	return resp.Result.MessageID, nil
}

// Edit replaces the text of a message sent earlier.
func (t *Telegram) Edit(ctx context.Context, messageID int, text string) error {
	_, err := t.call(ctx, "editMessageText", map[string]any{
		"chat_id":    t.ChatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	})
	return err
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *Telegram) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if _, err := t.Send(ctx, text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			t.log.WithError(err).Warnf("telegram send failed (attempt %d/%d), retrying in %v", i+1, maxRetries+1, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// RenderMetric edits the previous message for the same label when there is one.
// Unchanged text is not re-sent; Telegram rejects no-op edits.
func (t *Telegram) RenderMetric(ctx context.Context, label, value string) error {
	text := fmt.Sprintf("💹 <b>%s</b>\n%s", label, value)

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.metrics[label]
	if ok && prev.text == text {
		return nil
	}
	if ok {
		err := t.Edit(ctx, prev.id, text)
		if err == nil {
			t.metrics[label] = metricMessage{id: prev.id, text: text}
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		t.log.WithError(err).Warn("edit metric message failed, sending a new one")
	}
	id, err := t.Send(ctx, text)
	if err != nil {
		return err
	}
	t.metrics[label] = metricMessage{id: id, text: text}
	return nil
}

func (t *Telegram) RenderWarning(ctx context.Context, message string) error {
	return t.SendWithRetry(ctx, "⚠️ "+message, t.MaxRetries)
}

func (t *Telegram) RenderError(ctx context.Context, message string) error {
	return t.SendWithRetry(ctx, "❌ "+message, t.MaxRetries)
}

func (t *Telegram) RenderChart(ctx context.Context, title string, series model.ChartSeries, _ model.ChartStyle) error {
	return t.SendWithRetry(ctx, FormatChartSummary(title, series), t.MaxRetries)
}

func (t *Telegram) RenderTable(ctx context.Context, rows []model.RecentChangeRow) error {
	if len(rows) == 0 {
		return nil
	}
	return t.SendWithRetry(ctx, "📋 <b>Recent closes</b>\n"+FormatTable(rows), t.MaxRetries)
}

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// StartPolling begins long-polling for commands. Blocks until ctx is cancelled.
func (t *Telegram) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}

	sleep := func(d time.Duration) bool {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(d):
			return true
		}
	}

	for {
		select {
		case <-ctx.Done():
			t.log.Info("telegram polling stopped")
			return
		default:
		}

		apiURL := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=30", t.BaseURL, t.BotToken, offset)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			t.log.WithError(err).Error("create polling request")
			if !sleep(5 * time.Second) {
				return
			}
			continue
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.WithError(err).Warn("polling request failed")
			if !sleep(5 * time.Second) {
				return
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.log.WithError(err).Warn("read polling response")
			continue
		}

		var result struct {
			OK     bool             `json:"ok"`
			Result []telegramUpdate `json:"result"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			t.log.WithError(err).Warn("decode polling response")
			if !sleep(time.Second) {
				return
			}
			continue
		}

		for _, update := range result.Result {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			t.log.WithField("command", text).Info("received command")
			reply := handler(ctx, text)
			if reply != "" {
				if _, err := t.Send(ctx, reply); err != nil {
					t.log.WithError(err).Error("send reply")
				}
			}
		}
	}
}

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"TickerWatch/internal/model"
	"TickerWatch/internal/monitor"
	"TickerWatch/internal/viewmodel"
)

const helpText = "Available commands:\n" +
	"• /load TICKER [PERIOD] - watch a ticker (periods: 1d 5d 1mo 3mo 6mo 1y)\n" +
	"• /status - show the active session\n" +
	"• /stop - stop watching"

// HandleCommand processes a chat command and returns a reply.
func (c *Controller) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/load":
		if len(fields) < 2 {
			return "Usage: /load TICKER [PERIOD]"
		}
		period := model.DefaultPeriod
		if len(fields) > 2 {
			p, err := model.ParsePeriod(strings.Join(fields[2:], " "))
			if err != nil {
				return fmt.Sprintf("Unknown period %q.\n\n%s", strings.Join(fields[2:], " "), helpText)
			}
			period = p
		}
		// provider failures are already rendered by the sink
		if err := c.Load(ctx, fields[1], period); errors.Is(err, ErrInvalidInput) {
			return err.Error()
		}
		return ""
	case "/status":
		st, ok := c.Current()
		if !ok {
			return ErrNoSession.Error()
		}
		return FormatStatus(st)
	case "/stop":
		c.Stop()
		return "Stopped."
	default:
		return helpText
	}
}

// FormatStatus renders a session status for chat.
func FormatStatus(st monitor.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> (%s, %s)\n", st.Session.DisplayName, st.Session.Ticker, st.Session.Period.Label())
	fmt.Fprintf(&b, "State: %s\n", st.State)
	if st.Session.PreviousClose != nil {
		fmt.Fprintf(&b, "Previous close: %s\n", viewmodel.FormatClose(*st.Session.PreviousClose))
	}
	if st.Last != nil {
		fmt.Fprintf(&b, "%s: %s\n", viewmodel.MetricLabel(st.Session.Ticker), viewmodel.FormatMetric(*st.Last))
	}
	fmt.Fprintf(&b, "Since: %s", st.Session.StartedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

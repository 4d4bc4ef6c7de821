// internal/notify/telegram.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rfarrakhov/chainarb/internal/backtest"
	"github.com/rfarrakhov/chainarb/internal/config"
	"github.com/rfarrakhov/chainarb/internal/scanner"
	"github.com/rfarrakhov/chainarb/internal/utils/logger"
)

const (
	defaultAPIBase = "https://api.telegram.org"

	// DefaultCooldown throttles repeat alerts for the same network/pair.
	DefaultCooldown = 5 * time.Minute
)

// Telegram pushes alerts through the Bot API. An unconfigured notifier is
// valid and silently drops everything, so callers never need nil checks.
type Telegram struct {
	enabled  bool
	botToken string
	chatID   string
	apiBase  string
	cooldown time.Duration
	client   *http.Client
	logger   *zap.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// NewTelegram builds a notifier from config. Missing credentials disable it.
func NewTelegram(cfg config.TelegramConfig, log *logger.Logger) *Telegram {
	t := &Telegram{
		enabled:  cfg.Enabled && cfg.BotToken != "" && cfg.ChatID != "",
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiBase:  defaultAPIBase,
		cooldown: cfg.Cooldown,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:   log.WithComponent("telegram"),
		lastSent: make(map[string]time.Time),
	}
	if t.cooldown <= 0 {
		t.cooldown = DefaultCooldown
	}

	if !t.enabled {
		t.logger.Info("Telegram notifications disabled")
	}
	return t
}

// Enabled reports whether the notifier will actually send anything.
func (t *Telegram) Enabled() bool {
	return t.enabled
}

// WithAPIBase overrides the Bot API host. Used by tests.
func (t *Telegram) WithAPIBase(base string) *Telegram {
	t.apiBase = strings.TrimSuffix(base, "/")
	return t
}

// NotifyOpportunity sends an alert for a single opportunity, at most once
// per cooldown window per network/pair.
func (t *Telegram) NotifyOpportunity(ctx context.Context, opp scanner.Opportunity) error {
	if !t.enabled {
		return nil
	}

	key := opp.Network + ":" + opp.Pair
	if !t.allow(key) {
		t.logger.Debug("Alert suppressed by cooldown",
			zap.String("network", opp.Network),
			zap.String("pair", opp.Pair))
		return nil
	}

	var msg string
	if opp.Kind == scanner.KindTriangular {
		msg = fmt.Sprintf(
			"<b>Triangular opportunity on %s</b>\n"+
				"Venue: %s\n"+
				"Path: %s\n"+
				"Gross: %.2f%%\n"+
				"Net: %.2f%%",
			opp.Network, opp.Venue, strings.Join(opp.Path, " -> "),
			opp.GrossProfitPct, opp.NetProfitPct)
	} else {
		msg = fmt.Sprintf(
			"<b>Arbitrage opportunity on %s</b>\n"+
				"Pair: %s\n"+
				"Buy: %s\n"+
				"Sell: %s\n"+
				"Gross: %.2f%%\n"+
				"Net: %.2f%%",
			opp.Network, opp.Pair, opp.BuyVenue, opp.SellVenue,
			opp.GrossProfitPct, opp.NetProfitPct)
	}

	return t.Send(ctx, msg)
}

// NotifySummary sends aggregate simulation results, typically at shutdown.
func (t *Telegram) NotifySummary(ctx context.Context, stats backtest.AggregateStats) error {
	if !t.enabled || stats.TotalTrades == 0 {
		return nil
	}

	msg := fmt.Sprintf(
		"<b>Session summary</b>\n"+
			"Trades: %d (%d wins, %d losses)\n"+
			"Win rate: %.1f%%\n"+
			"Net P/L: $%.2f",
		stats.TotalTrades, stats.SuccessfulTrades, stats.FailedTrades,
		stats.WinRate, stats.NetProfitUSD)

	return t.Send(ctx, msg)
}

// Send posts one message to the configured chat.
func (t *Telegram) Send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", text)
	data.Set("parse_mode", "HTML")
	data.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}

	t.logger.Debug("Notification sent")
	return nil
}

// allow checks and updates the cooldown window for one alert key.
func (t *Telegram) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if last, ok := t.lastSent[key]; ok && now.Sub(last) < t.cooldown {
		return false
	}
	t.lastSent[key] = now
	return true
}

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jcalloway/tipwire/internal/events"
	"github.com/jcalloway/tipwire/internal/telemetry"
	"github.com/jcalloway/tipwire/internal/tips"
)

// Notifier pushes tips to a Telegram chat via the bot sendMessage API.
type Notifier struct {
	botToken   string
	chatID     string
	httpClient *http.Client
}

func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken:   botToken,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) Name() string { return "telegram" }

func (n *Notifier) Enabled() bool { return n.botToken != "" && n.chatID != "" }

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

func (n *Notifier) sendText(ctx context.Context, text string) error {
	if !n.Enabled() {
		return nil
	}

	data, err := json.Marshal(sendMessageRequest{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		telemetry.Warnf("telegram: rate limited")
		return fmt.Errorf("telegram rate limited")
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram send: status=%d", resp.StatusCode)
	}
	return nil
}

func (n *Notifier) SendTip(ctx context.Context, tip events.TipIntent) error {
	text := fmt.Sprintf(
		"⚽ <b>%s vs %s</b> (%s)\nOver %.1f @ %.2f\nEdge +%.1f%%  Model %.1f%%\nStake %.2fu  Score %d-%d [%ds]",
		tip.HomeTeam, tip.AwayTeam, tip.League,
		tip.Line, tip.Odds,
		tip.EdgePct, tip.PCalib*100,
		tip.Stake, tip.HomeGoals, tip.AwayGoals, tip.Elapsed,
	)
	return n.sendText(ctx, text)
}

func (n *Notifier) SendSettlement(ctx context.Context, st events.TipSettledEvent) error {
	verdict := "❌ Lost"
	if st.Won {
		verdict = "✅ Won"
	}
	return n.sendText(ctx, fmt.Sprintf("%s %s  %+.2fu (day %+.2fu)", verdict, st.Market, st.PnL, st.DailyPnL))
}

func (n *Notifier) SendDailySummary(ctx context.Context, day tips.DaySummary) error {
	return n.sendText(ctx, fmt.Sprintf(
		"📊 <b>Daily Recap</b>\nTips %d  Record %dW-%dL\nStaked %.2fu  P&amp;L %+.2fu",
		day.Tips, day.Won, day.Lost, day.Staked, day.PnL,
	))
}

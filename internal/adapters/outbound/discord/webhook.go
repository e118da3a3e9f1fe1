package discord

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

type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) Name() string { return "discord" }

func (n *Notifier) Enabled() bool { return n.webhookURL != "" }

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

func (n *Notifier) SendText(ctx context.Context, msg string) error {
	return n.send(ctx, webhookPayload{Content: msg})
}

func (n *Notifier) SendEmbed(ctx context.Context, embed Embed) error {
	if embed.Timestamp == "" {
		embed.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return n.send(ctx, webhookPayload{Embeds: []Embed{embed}})
}

func (n *Notifier) send(ctx context.Context, payload webhookPayload) error {
	if !n.Enabled() {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		telemetry.Warnf("discord: rate limited")
		return fmt.Errorf("discord rate limited")
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook: status=%d", resp.StatusCode)
	}

	return nil
}

const (
	ColorGreen  = 0x2ECC71
	ColorRed    = 0xE74C3C
	ColorYellow = 0xF1C40F
	ColorBlue   = 0x3498DB
)

func (n *Notifier) SendTip(ctx context.Context, tip events.TipIntent) error {
	return n.SendEmbed(ctx, Embed{
		Title: fmt.Sprintf("Tip | %s", tip.League),
		Color: ColorBlue,
		Fields: []Field{
			{Name: "Match", Value: fmt.Sprintf("%s vs %s", tip.HomeTeam, tip.AwayTeam), Inline: false},
			{Name: "Market", Value: fmt.Sprintf("Over %.1f", tip.Line), Inline: true},
			{Name: "Odds", Value: fmt.Sprintf("%.2f", tip.Odds), Inline: true},
			{Name: "Edge", Value: fmt.Sprintf("+%.1f%%", tip.EdgePct), Inline: true},
			{Name: "Model", Value: fmt.Sprintf("%.1f%%", tip.PCalib*100), Inline: true},
			{Name: "Stake", Value: fmt.Sprintf("%.2fu", tip.Stake), Inline: true},
			{Name: "Score", Value: fmt.Sprintf("%d-%d [%ds]", tip.HomeGoals, tip.AwayGoals, tip.Elapsed), Inline: true},
		},
	})
}

func (n *Notifier) SendSettlement(ctx context.Context, st events.TipSettledEvent) error {
	color := ColorRed
	verdict := "Lost"
	if st.Won {
		color = ColorGreen
		verdict = "Won"
	}
	return n.SendEmbed(ctx, Embed{
		Title: fmt.Sprintf("Tip %s", verdict),
		Color: color,
		Fields: []Field{
			{Name: "Market", Value: st.Market, Inline: true},
			{Name: "P&L", Value: fmt.Sprintf("%+.2fu", st.PnL), Inline: true},
			{Name: "Day", Value: fmt.Sprintf("%+.2fu", st.DailyPnL), Inline: true},
		},
	})
}

func (n *Notifier) SendDailySummary(ctx context.Context, day tips.DaySummary) error {
	color := ColorGreen
	if day.PnL < 0 {
		color = ColorRed
	}
	return n.SendEmbed(ctx, Embed{
		Title: "Daily Recap",
		Color: color,
		Fields: []Field{
			{Name: "Tips", Value: fmt.Sprintf("%d", day.Tips), Inline: true},
			{Name: "Record", Value: fmt.Sprintf("%dW-%dL", day.Won, day.Lost), Inline: true},
			{Name: "Staked", Value: fmt.Sprintf("%.2fu", day.Staked), Inline: true},
			{Name: "P&L", Value: fmt.Sprintf("%+.2fu", day.PnL), Inline: true},
		},
	})
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Live odds feed (websocket)
	FeedAddr string

	// The Odds API (pregame totals baseline)
	OddsAPIBaseURL string
	OddsAPIKey     string
	OddsAPISport   string

	// Notifiers
	DiscordWebhookURL string
	TelegramBotToken  string
	TelegramChatID    string

	// Storage
	LearningDBPath string
	TipsDBPath     string

	// Strategy
	StrategyLimitsPath string

	// Match clock: e-soccer plays 2×4 min; real football would be 5400.
	MatchTotalSecs int

	// Timing
	ScoreDropConfirmSec int
	DailyRecapHourUTC   int
	NotifyTimeout       time.Duration

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		FeedAddr: envStr("FEED_ADDR", "127.0.0.1:8777"),

		OddsAPIBaseURL: envStr("ODDS_API_BASE_URL", "https://api.the-odds-api.com"),
		OddsAPIKey:     envStr("ODDS_API_KEY", ""),
		OddsAPISport:   envStr("ODDS_API_SPORT", "soccer_esoccer_battle_8min"),

		DiscordWebhookURL: envStr("DISCORD_WEBHOOK_URL", ""),
		TelegramBotToken:  envStr("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    envStr("TELEGRAM_CHAT_ID", ""),

		LearningDBPath: envStr("LEARNING_DB_PATH", "data/esoccer_learning.db"),
		TipsDBPath:     envStr("TIPS_DB_PATH", "data/tips.db"),

		StrategyLimitsPath: envStr("STRATEGY_LIMITS_PATH", "internal/config/strategy_limits.yaml"),

		MatchTotalSecs: envInt("MATCH_TOTAL_SECS", 480),

		// A feed sometimes reports a score "decrease" when a goal is
		// overturned. Wait this long before trusting the lower score.
		ScoreDropConfirmSec: envInt("SCORE_DROP_CONFIRM_SEC", 20),
		DailyRecapHourUTC:   envInt("DAILY_RECAP_HOUR_UTC", 6),
		NotifyTimeout:       time.Duration(envInt("NOTIFY_TIMEOUT_SEC", 10)) * time.Second,

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

package notify

import (
	"log"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/config"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
)

// FromConfig builds the sinks cfg enables. A sink that fails to start is
// logged and left out. The returned func releases their connections.
func FromConfig(cfg *config.Config, lg *log.Logger) ([]orchestrator.ProgressSink, func()) {
	var (
		sinks   []orchestrator.ProgressSink
		closers []func()
	)

	if cfg.TelegramBotToken != "" {
		tg, err := NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramChatID, lg)
		if err != nil {
			lg.Printf("⚠️ Telegram notifications disabled: %v", err)
		} else {
			sinks = append(sinks, tg)
			lg.Println("📣 Telegram notifications enabled")
		}
	}

	if cfg.RedisURL != "" {
		rs, client, err := NewRedisSink(cfg.RedisURL, cfg.RedisProgressChannel, lg)
		if err != nil {
			lg.Printf("⚠️ Redis progress disabled: %v", err)
		} else {
			sinks = append(sinks, rs)
			closers = append(closers, func() { _ = client.Close() })
			lg.Printf("📣 Redis progress on channel %s", rs.Channel)
		}
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

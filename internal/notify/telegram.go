package notify

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/orchestrator"
)

// Sender is the part of *tgbotapi.BotAPI the sink uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink posts finished items and the batch summary to one chat.
type TelegramSink struct {
	bot      Sender
	chatID   int64
	lg       *log.Logger
	reported finished
}

func NewTelegramSink(token string, chatID int64, lg *log.Logger) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return NewTelegramSinkWithSender(bot, chatID, lg), nil
}

func NewTelegramSinkWithSender(bot Sender, chatID int64, lg *log.Logger) *TelegramSink {
	return &TelegramSink{bot: bot, chatID: chatID, lg: lg}
}

func (s *TelegramSink) OnProgress(p orchestrator.Progress) {
	for _, it := range s.reported.newlyFinished(p) {
		var line string
		if it.State == orchestrator.StateSuccess {
			line = fmt.Sprintf("✅ %s: %d bookings", it.Name, it.Records)
		} else {
			line = fmt.Sprintf("❌ %s: %s", it.Name, it.Error)
		}
		s.send(line)
	}
}

func (s *TelegramSink) OnSummary(sum orchestrator.Summary) {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 Weekly fetch: %s", sum)
	if failed := sum.FailedPropertyIDs(); len(failed) > 0 {
		fmt.Fprintf(&b, "\nRetry: %s", strings.Join(failed, ", "))
	}
	s.send(b.String())
}

func (s *TelegramSink) send(text string) {
	if _, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, text)); err != nil && s.lg != nil {
		s.lg.Printf("⚠️ telegram: send failed: %v", err)
	}
}

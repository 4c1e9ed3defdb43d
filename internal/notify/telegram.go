package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shiftdesk/staff-scheduler/internal/domain"
)

// sender is the subset of *tgbotapi.BotAPI used here.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts alerts to a single chat.
type TelegramNotifier struct {
	bot    sender
	chatID int64
}

// NewTelegramNotifier authorizes the bot token against the Telegram API.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, formatAlert(alert))
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatAlert(alert domain.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", alert.Severity, alert.Title)
	if alert.Message != "" {
		b.WriteString("\n")
		b.WriteString(alert.Message)
	}
	fmt.Fprintf(&b, "\n(%s, recipient %s)", strings.ToLower(string(alert.Type)), alert.RecipientID)
	return b.String()
}

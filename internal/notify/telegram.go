package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink pushes notifications as Telegram messages. Receiver ids are
// Telegram chat ids in string form.
type TelegramSink struct {
	api *tgbotapi.BotAPI
}

func NewTelegramSink(token string) (*TelegramSink, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram API: %w", err)
	}
	return &TelegramSink{api: api}, nil
}

func (s *TelegramSink) Dispatch(ctx context.Context, n Notification) error {
	chatID, err := strconv.ParseInt(n.ReceiverID, 10, 64)
	if err != nil {
		return fmt.Errorf("receiver %q is not a chat id: %w", n.ReceiverID, err)
	}
	msg := tgbotapi.NewMessage(chatID, n.Text)
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

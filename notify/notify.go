// Package notify delivers client notifications over Telegram.
package notify

import (
	"context"
	"fmt"

	"dietcoach/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier sends a text message to a client. Clients without a linked chat
// are skipped without error.
type Notifier interface {
	NotifyClient(ctx context.Context, client *models.Client, text string) error
}

// Noop is used when no bot token is configured.
type Noop struct{}

func (Noop) NotifyClient(context.Context, *models.Client, string) error { return nil }

// Sender is the part of *tgbotapi.BotAPI used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	sender Sender
}

func NewTelegram(sender Sender) *Telegram {
	return &Telegram{sender: sender}
}

func (t *Telegram) NotifyClient(_ context.Context, client *models.Client, text string) error {
	if client == nil || !client.TelegramLinked() {
		return nil
	}
	if err := t.send(client.TelegramChatID, text); err != nil {
		return fmt.Errorf("notify client %s: %w", client.ID.Hex(), err)
	}
	zap.L().Debug("telegram notification sent", zap.String("client_id", client.ID.Hex()))
	return nil
}

func (t *Telegram) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := t.sender.Send(msg)
	return err
}

package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier - короткие уведомления администратору
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Sender - часть tgbotapi.BotAPI, которая нужна для отправки
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram шлёт уведомления в админский чат
type Telegram struct {
	api       Sender
	adminChat int64
	log       *slog.Logger
}

func NewTelegram(api Sender, adminChatID int64, log *slog.Logger) *Telegram {
	return &Telegram{api: api, adminChat: adminChatID, log: log}
}

// Connect - бот по токену; пустой токен или чат означает "уведомления выключены"
func Connect(token string, adminChatID int64, log *slog.Logger) (Notifier, error) {
	if token == "" || adminChatID == 0 {
		return Nop{}, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	log.Info("telegram notifier authorized", "username", api.Self.UserName)
	return NewTelegram(api, adminChatID, log), nil
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := tgbotapi.NewMessage(t.adminChat, text)
	m.DisableWebPagePreview = true
	if _, err := t.api.Send(m); err != nil {
		t.log.Error("send failed", "err", err)
		return err
	}
	return nil
}

// Nop - уведомления выключены
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

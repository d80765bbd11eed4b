package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, f.err
}

func TestTelegram_NotifySendsToAdminChat(t *testing.T) {
	s := &fakeSender{}
	n := NewTelegram(s, 42, slog.Default())

	require.NoError(t, n.Notify(context.Background(), "Nuevo material: Block"))
	require.Len(t, s.sent, 1)
	assert.Equal(t, int64(42), s.sent[0].ChatID)
	assert.Equal(t, "Nuevo material: Block", s.sent[0].Text)
}

func TestTelegram_NotifyError(t *testing.T) {
	s := &fakeSender{err: errors.New("blocked")}
	n := NewTelegram(s, 42, slog.Default())
	assert.Error(t, n.Notify(context.Background(), "x"))
}

func TestConnect_DisabledWithoutToken(t *testing.T) {
	n, err := Connect("", 42, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n)
}

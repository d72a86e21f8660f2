package notify

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"spot_bot/pkg/logger"
)

// Notifier delivers trade events to a human.
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// StatusSource answers the /status and /exposure commands.
type StatusSource interface {
	Status(ctx context.Context) string
	Exposure(ctx context.Context) string
}

// Telegram is a passive notifier that also answers two read-only commands.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	log    *zap.Logger
	status StatusSource
}

func NewTelegram(token string, chatID int64, log *logger.Logger) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram login")
	}
	return newTelegram(b, chatID, log), nil
}

func newTelegram(b *tgbot.BotAPI, chatID int64, log *logger.Logger) *Telegram {
	return &Telegram{bot: b, chatID: chatID, log: log.Zap()}
}

// SetStatusSource wires the command handlers after the runner is built.
func (t *Telegram) SetStatusSource(s StatusSource) {
	if t != nil {
		t.status = s
	}
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		t.log.Warn("telegram send failed", zap.Error(err))
	}
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// Start long-polls for commands from the configured chat.
func (t *Telegram) Start(ctx context.Context) {
	if t == nil || t.bot == nil {
		return
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				if reply := t.handle(ctx, upd.Message.Command()); reply != "" {
					t.Send(reply)
				}
			}
		}
	}()
}

func (t *Telegram) handle(ctx context.Context, command string) string {
	if t.status == nil {
		return ""
	}
	switch command {
	case "status":
		return t.status.Status(ctx)
	case "exposure":
		return t.status.Exposure(ctx)
	default:
		return ""
	}
}

func (t *Telegram) Stop() {
	if t != nil && t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
}

// Stdout writes notifications to the bot log instead of a chat.
type Stdout struct {
	log *logger.Logger
}

func NewStdout(log *logger.Logger) *Stdout { return &Stdout{log: log} }

func (s *Stdout) Send(msg string) {
	s.log.Zap().Info("notify", zap.String("message", strings.TrimSpace(msg)))
}

func (s *Stdout) Sendf(format string, args ...any) { s.Send(fmt.Sprintf(format, args...)) }

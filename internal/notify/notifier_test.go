package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"spot_bot/pkg/logger"
)

type fakeStatus struct{}

func (fakeStatus) Status(context.Context) string   { return "2 traders running" }
func (fakeStatus) Exposure(context.Context) string { return "DOGE_USDT: 50.00" }

func newFakeBot(t *testing.T) (*tgbot.BotAPI, *[]string) {
	t.Helper()
	var (
		mu   sync.Mutex
		sent []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bot","username":"bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			sent = append(sent, r.FormValue("text"))
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
		}
	}))
	t.Cleanup(srv.Close)

	bot, err := tgbot.NewBotAPIWithClient("token", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	return bot, &sent
}

func TestTelegramSendsToChat(t *testing.T) {
	bot, sent := newFakeBot(t)
	tg := newTelegram(bot, 42, logger.Nop())

	tg.Sendf("BUY %s", "XRP_USDT")
	assert.Equal(t, []string{"BUY XRP_USDT"}, *sent)
}

func TestTelegramCommands(t *testing.T) {
	bot, _ := newFakeBot(t)
	tg := newTelegram(bot, 42, logger.Nop())
	assert.Empty(t, tg.handle(context.Background(), "status"))

	tg.SetStatusSource(fakeStatus{})
	assert.Equal(t, "2 traders running", tg.handle(context.Background(), "status"))
	assert.Equal(t, "DOGE_USDT: 50.00", tg.handle(context.Background(), "exposure"))
	assert.Empty(t, tg.handle(context.Background(), "buy"))
}

func TestNilTelegramIsSilent(t *testing.T) {
	var tg *Telegram
	assert.NotPanics(t, func() { tg.Send("x") })
}

func TestStdoutLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewStdout(logger.NewWithCore(core)).Sendf("SELL %d", 5)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "SELL 5", logs.All()[0].ContextMap()["message"])
}

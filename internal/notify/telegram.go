package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/omotosho-cloud/goldai/internal/control"
	"github.com/omotosho-cloud/goldai/internal/perf"
	"github.com/omotosho-cloud/goldai/internal/retrain"
	"github.com/omotosho-cloud/goldai/internal/signal"
	"github.com/omotosho-cloud/goldai/internal/tracker"
)

// Telegram pushes events to a chat. Sends happen inline on the caller;
// failures are logged, never returned.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

// NewTelegram authenticates the bot against the API.
func NewTelegram(token string, chatID int64, log zerolog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		log:    log.With().Str("component", "telegram").Logger(),
	}, nil
}

func (t *Telegram) SignalEmitted(sig signal.Signal) {
	if !sig.Class.Tradeable() {
		return
	}
	t.send(formatSignal(sig))
}

func (t *Telegram) TradeClosed(trade tracker.Trade) {
	t.send(formatTrade(trade))
}

func (t *Telegram) StatusChanged(from, to control.Status, window perf.Window) {
	t.send(formatStatus(from, to, window))
}

func (t *Telegram) RetrainFinished(outcome retrain.Outcome) {
	t.send(formatRetrain(outcome))
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Error().Err(err).Msg("telegram send failed")
	}
}

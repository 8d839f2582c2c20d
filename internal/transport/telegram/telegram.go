// Package telegram adapts the Telegram Bot API to the notifier's Sender.
// The bot is send-only: no poller, no update handling.
package telegram

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"

	"rotabot/internal/notifier"
	logx "rotabot/pkg/logx"
)

type Config struct {
	Token string

	// Offline skips Telegram-side token verification at construction.
	// Used by tests; production leaves it false so a bad token fails fast.
	Offline bool
}

type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

var _ notifier.Sender = (*Adapter)(nil)

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Offline: cfg.Offline,
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

func (a *Adapter) SendText(ctx context.Context, to notifier.Target, text string) error {
	chat := &tele.Chat{ID: to.ChatID}
	opt := &tele.SendOptions{
		DisableWebPagePreview: true,
		ThreadID:              to.ThreadID,
	}

	msg, err := a.bot.Send(chat, text, opt)
	if err != nil {
		return err
	}
	a.log.Debug("message sent",
		logx.Int64("chat_id", to.ChatID),
		logx.Int("message_id", msg.ID))
	return nil
}

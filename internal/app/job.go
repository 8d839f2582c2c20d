package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rotabot/internal/notifier"
	"rotabot/internal/rotation"
	"rotabot/internal/week"
	logx "rotabot/pkg/logx"
)

// runReminder is one full pass: load the document, pick the week,
// resolve, format, deliver.
func (a *App) runReminder(ctx context.Context) error {
	doc, err := a.source.Load()
	if err != nil {
		return err
	}

	w, forced, err := a.targetWeek()
	if err != nil {
		return err
	}
	if forced {
		a.log.Info("using forced week", logx.String("week", w.String()))
	} else {
		a.log.Info("using current week", logx.String("week", w.String()))
	}

	assignment, err := rotation.Resolve(doc, w)
	if err != nil {
		return err
	}
	a.log.Info("resolved assignment",
		logx.String("week", w.String()),
		logx.String("member", assignment.Member),
		logx.Bool("special_message", assignment.MessageTemplate != ""))

	text := rotation.FormatMessage(a.cfg.Schedule.MessageTemplate, assignment, w)
	if strings.TrimSpace(a.testMessage) != "" {
		a.log.Info("using test message override")
		text = a.testMessage
	}

	err = a.notif.Deliver(ctx, notifier.Delivery{
		To: notifier.Target{
			ChatID:   a.cfg.Telegram.ChatID,
			ThreadID: a.cfg.Telegram.ThreadID,
		},
		Week:   w,
		Member: assignment.Member,
		Text:   text,
	})
	if errors.Is(err, notifier.ErrDuplicate) {
		// Already delivered this week; a restart or manual re-run, not a
		// failure.
		return nil
	}
	return err
}

// targetWeek picks the week to resolve: the forced one if set, otherwise
// the current ISO week in the configured timezone.
func (a *App) targetWeek() (week.ID, bool, error) {
	raw := strings.TrimSpace(a.forceWeek)
	if raw == "" {
		return week.Current(time.Now(), a.loc), false, nil
	}

	// A bare number means "that week of the current year".
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 1 || n > 53 {
			return week.ID{}, false, fmt.Errorf("forced week %d out of range [1,53]", n)
		}
		cur := week.Current(time.Now(), a.loc)
		return week.ID{Year: cur.Year, Week: n}, true, nil
	}

	w, err := week.Parse(raw)
	if err != nil {
		return week.ID{}, false, err
	}
	return w, true, nil
}

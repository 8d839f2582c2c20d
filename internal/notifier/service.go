package notifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"rotabot/internal/storage"
	"rotabot/internal/week"
	logx "rotabot/pkg/logx"
)

// ErrDuplicate means the same reminder was already delivered within the
// dedup window (e.g. the process restarted mid-week and re-fired).
var ErrDuplicate = errors.New("reminder already delivered")

// Delivery is one resolved reminder ready to go out.
type Delivery struct {
	To     Target
	Week   week.ID
	Member string
	Text   string
}

// Service pushes deliveries through rate limit + retry + dedup.
//
// It is safe for concurrent use, though the bot only ever delivers one
// reminder at a time.
type Service struct {
	cfg     Config
	sender  Sender
	log     logx.Logger
	store   storage.Store
	limiter *rate.Limiter
}

func New(cfg Config, sender Sender, log logx.Logger, store storage.Store) *Service {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		sender: sender,
		log:    log,
		store:  store,
		// Token bucket: burst = rate per sec, so short spikes don't block.
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

func (s *Service) DryRun() bool { return s.cfg.DryRun }

// Deliver sends one reminder. Returns ErrDuplicate when the dedup window
// suppresses the send; any other non-nil error means delivery failed
// after retries (the failure is also recorded in the delivery log).
func (s *Service) Deliver(ctx context.Context, d Delivery) error {
	key := dedupKey(d.Week)

	if s.cfg.DedupWindow > 0 && s.store != nil && !s.cfg.DryRun {
		until, ok, err := s.store.GetDedup(ctx, key)
		if err != nil {
			s.log.Warn("dedup lookup failed; proceeding with send", logx.Err(err))
		} else if ok && time.Now().Before(until) {
			s.log.Info("reminder suppressed by dedup window",
				logx.String("week", d.Week.String()),
				logx.Time("until", until))
			return fmt.Errorf("%s: %w", d.Week, ErrDuplicate)
		}
	}

	if s.cfg.DryRun {
		s.log.Info("[dry run] would send reminder",
			logx.Int64("chat_id", d.To.ChatID),
			logx.String("week", d.Week.String()),
			logx.String("member", d.Member),
			logx.String("text", d.Text))
		s.record(ctx, d, true, true, "", 0)
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notifier: %w", err)
	}

	started := time.Now()
	err := s.sendWithRetry(ctx, d)
	took := time.Since(started).Milliseconds()

	if err != nil {
		s.record(ctx, d, false, false, err.Error(), took)
		return err
	}

	s.record(ctx, d, true, false, "", took)
	if s.cfg.DedupWindow > 0 && s.store != nil {
		if perr := s.store.PutDedup(ctx, key, time.Now().Add(s.cfg.DedupWindow)); perr != nil {
			s.log.Warn("dedup store failed", logx.Err(perr))
		}
	}

	s.log.Info("reminder sent",
		logx.Int64("chat_id", d.To.ChatID),
		logx.String("week", d.Week.String()),
		logx.String("member", d.Member),
		logx.Duration("took", time.Since(started)))
	return nil
}

func (s *Service) sendWithRetry(ctx context.Context, d Delivery) error {
	var lastErr error
	attempts := s.cfg.RetryMax + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(s.cfg.RetryBase, s.cfg.RetryMaxDelay, attempt)
			s.log.Warn("send failed; retrying",
				logx.Int("attempt", attempt),
				logx.Duration("delay", delay),
				logx.Err(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := s.sender.SendText(ctx, d.To, d.Text); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("send failed after %d attempts: %w", attempts, lastErr)
}

func (s *Service) record(ctx context.Context, d Delivery, ok, dryRun bool, errText string, tookMS int64) {
	if s.store == nil {
		return
	}
	e := storage.DeliveryEntry{
		At:     time.Now(),
		Week:   d.Week.String(),
		Member: d.Member,
		ChatID: d.To.ChatID,
		DryRun: dryRun,
		OK:     ok,
		Error:  errText,
		TookMS: tookMS,
	}
	if err := s.store.AppendDelivery(ctx, e); err != nil {
		s.log.Warn("delivery log append failed", logx.Err(err))
	}
}

func dedupKey(w week.ID) string { return "reminder:" + w.String() }

// backoffDelay grows exponentially from base with ~20% jitter, capped at max.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max || d <= 0 {
		d = max
	}
	jitter := time.Duration(rand.Int63n(int64(d)/5 + 1))
	d += jitter
	if d > max {
		d = max
	}
	return d
}

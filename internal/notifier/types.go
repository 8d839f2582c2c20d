// Package notifier delivers resolved assignments: rate limiting, bounded
// retry, per-week send dedup, and a dry-run mode that only logs.
package notifier

import (
	"context"
	"time"
)

// Target addresses a chat (and optionally a forum thread) on the
// delivery channel.
type Target struct {
	ChatID   int64
	ThreadID int
}

// Sender is the delivery channel. Implemented by the Telegram transport.
type Sender interface {
	SendText(ctx context.Context, to Target, text string) error
}

// Config controls the delivery pipeline.
type Config struct {
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration

	// DedupWindow suppresses a second send of the same dedup key within
	// the window. Zero disables dedup.
	DedupWindow time.Duration

	// DryRun logs the message instead of dispatching it.
	DryRun bool
}

func (c Config) withDefaults() Config {
	if c.RatePerSec <= 0 {
		c.RatePerSec = 1
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 10 * time.Second
	}
	if c.DedupWindow < 0 {
		c.DedupWindow = 0
	}
	return c
}

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env carries the environment overrides the deployment can set without
// touching the config file. Token and chat id mirror the names the
// hosted scheduler jobs already export.
type Env struct {
	Token  string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID int64  `env:"TELEGRAM_CHAT_ID"`

	// ForceWeek pins the resolved week: either a full identifier
	// ("2025-W33") or a bare week number applied to the current year.
	ForceWeek string `env:"FORCE_WEEK"`

	// TestMessage replaces the formatted reminder text entirely.
	TestMessage string `env:"TEST_MESSAGE"`

	DryRun bool `env:"ROTABOT_DRY_RUN"`
}

func LoadEnv() (*Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("env: %w", err)
	}
	return &e, nil
}

// applyTo layers credential overrides onto the file config. ForceWeek,
// TestMessage, and DryRun stay on Env; they are per-invocation knobs,
// not configuration.
func (e *Env) applyTo(cfg *Config) {
	if strings.TrimSpace(e.Token) != "" {
		cfg.Telegram.Token = e.Token
	}
	if e.ChatID != 0 {
		cfg.Telegram.ChatID = e.ChatID
	}
}

// Package config loads rotabot's configuration file (JSON or YAML,
// strictly decoded) and the environment overrides the deployment sets.
package config

import (
	"errors"
	"fmt"
	"strings"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Schedule ScheduleConfig `json:"schedule"`

	Notifier *NotifierConfig `json:"notifier,omitempty"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChatID is the group the reminder goes to. Negative for supergroups.
	ChatID   int64 `json:"chat_id"`
	ThreadID int   `json:"thread_id,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// ScheduleConfig controls where the rotation document lives and when the
// reminder fires.
type ScheduleConfig struct {
	// Path to the schedule document (YAML or JSON).
	Path string `json:"path"`

	// Timezone is the IANA zone the current week is computed in.
	Timezone string `json:"timezone,omitempty"`

	// Cron is the trigger spec for scheduled mode (standard 5-field).
	Cron string `json:"cron,omitempty"`

	// MessageTemplate is the default reminder text; {name} and {week}
	// placeholders. A week's special message overrides it.
	MessageTemplate string `json:"message_template"`
}

// NotifierConfig controls the delivery pipeline.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "72h").
type NotifierConfig struct {
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`

	// DedupWindow suppresses resending the same week's reminder, e.g.
	// after a restart. "0s" disables.
	DedupWindow string `json:"dedup_window,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./rotabot_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

const (
	DefaultTimezone = "America/Mexico_City"
	// Monday 09:00 in the configured timezone.
	DefaultCron = "0 9 * * 1"
)

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Schedule.Timezone) == "" {
		c.Schedule.Timezone = DefaultTimezone
	}
	if strings.TrimSpace(c.Schedule.Cron) == "" {
		c.Schedule.Cron = DefaultCron
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the fields every mode needs. Telegram credentials are
// checked later, at transport construction, so dry runs work without them.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Schedule.Path) == "" {
		return errors.New("schedule.path is required")
	}
	if strings.TrimSpace(c.Schedule.MessageTemplate) == "" {
		return errors.New("schedule.message_template is required")
	}
	if c.Storage != nil {
		switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
		}
	}
	return nil
}

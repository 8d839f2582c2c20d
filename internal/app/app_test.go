package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"rotabot/internal/config"
	"rotabot/internal/notifier"
	"rotabot/internal/schedule"
	"rotabot/internal/week"
	logx "rotabot/pkg/logx"
)

type captureSender struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureSender) SendText(ctx context.Context, to notifier.Target, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

func (c *captureSender) last(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return c.sent[len(c.sent)-1]
}

const testSchedule = `
roster: [Ana, Bruno, Carla]
anchor_week: 2025-W31
overrides:
  2025-W40: Bruno
vacations:
  Ana: [2025-W35]
special_messages:
  2025-W52: "Holiday week {week}, {name} hosts"
`

func testApp(t *testing.T, forceWeek string) (*App, *captureSender) {
	t.Helper()
	dir := t.TempDir()
	schedPath := filepath.Join(dir, "schedule.yaml")
	if err := os.WriteFile(schedPath, []byte(testSchedule), 0o600); err != nil {
		t.Fatalf("write schedule: %v", err)
	}

	sender := &captureSender{}
	cfg := &config.Config{
		Telegram: config.TelegramConfig{ChatID: -100123},
		Schedule: config.ScheduleConfig{
			Path:            schedPath,
			Timezone:        "UTC",
			MessageTemplate: "Week {week}: {name} is up",
		},
	}
	a := &App{
		cfg:       cfg,
		env:       &config.Env{},
		log:       logx.Nop(),
		loc:       time.UTC,
		source:    schedule.NewSource(schedPath, logx.Nop()),
		notif:     notifier.New(notifier.Config{RatePerSec: 100}, sender, logx.Nop(), nil),
		forceWeek: forceWeek,
	}
	return a, sender
}

func TestRunReminderRotation(t *testing.T) {
	t.Parallel()
	a, sender := testApp(t, "2025-W32")
	if err := a.runReminder(context.Background()); err != nil {
		t.Fatalf("runReminder: %v", err)
	}
	if got := sender.last(t); got != "Week 32: Bruno is up" {
		t.Fatalf("sent %q", got)
	}
}

func TestRunReminderOverride(t *testing.T) {
	t.Parallel()
	a, sender := testApp(t, "2025-W40")
	if err := a.runReminder(context.Background()); err != nil {
		t.Fatalf("runReminder: %v", err)
	}
	if got := sender.last(t); !strings.Contains(got, "Bruno") {
		t.Fatalf("sent %q, want override Bruno", got)
	}
}

func TestRunReminderVacationCoverage(t *testing.T) {
	t.Parallel()
	// 2025-W35 would be Bruno by rotation (offset 4 % 3 = 1); Ana's
	// vacation triggers coverage instead: next after Ana is Bruno.
	a, sender := testApp(t, "2025-W35")
	if err := a.runReminder(context.Background()); err != nil {
		t.Fatalf("runReminder: %v", err)
	}
	if got := sender.last(t); !strings.Contains(got, "Bruno") {
		t.Fatalf("sent %q", got)
	}
}

func TestRunReminderSpecialMessage(t *testing.T) {
	t.Parallel()
	a, sender := testApp(t, "2025-W52")
	if err := a.runReminder(context.Background()); err != nil {
		t.Fatalf("runReminder: %v", err)
	}
	got := sender.last(t)
	if !strings.Contains(got, "Holiday week 52") {
		t.Fatalf("sent %q, want the special message", got)
	}
}

func TestRunReminderTestMessageOverride(t *testing.T) {
	t.Parallel()
	a, sender := testApp(t, "2025-W31")
	a.testMessage = "ping"
	if err := a.runReminder(context.Background()); err != nil {
		t.Fatalf("runReminder: %v", err)
	}
	if got := sender.last(t); got != "ping" {
		t.Fatalf("sent %q, want the test message verbatim", got)
	}
}

func TestTargetWeek(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		force   string
		want    week.ID
		forced  bool
		wantErr bool
	}{
		{name: "full identifier", force: "2025-W07", want: week.ID{Year: 2025, Week: 7}, forced: true},
		{name: "bare number uses current year", force: "12", forced: true},
		{name: "out of range", force: "54", wantErr: true},
		{name: "garbage", force: "someday", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			a, _ := testApp(t, tt.force)
			got, forced, err := a.targetWeek()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("targetWeek(%q) succeeded with %v", tt.force, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("targetWeek: %v", err)
			}
			if forced != tt.forced {
				t.Fatalf("forced = %v, want %v", forced, tt.forced)
			}
			if tt.want != (week.ID{}) && got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if tt.force == "12" && got.Week != 12 {
				t.Fatalf("bare number: got %v, want week 12", got)
			}
		})
	}
}

func TestTargetWeekDefaultsToCurrent(t *testing.T) {
	t.Parallel()
	a, _ := testApp(t, "")
	got, forced, err := a.targetWeek()
	if err != nil {
		t.Fatalf("targetWeek: %v", err)
	}
	if forced {
		t.Fatal("unforced week reported as forced")
	}
	if want := week.Current(time.Now(), time.UTC); got != want {
		t.Fatalf("got %v, want current week %v", got, want)
	}
}

func TestRunReminderBadWeekFails(t *testing.T) {
	t.Parallel()
	a, _ := testApp(t, "2025-W99")
	if err := a.runReminder(context.Background()); err == nil {
		t.Fatal("expected error for malformed forced week")
	}
}

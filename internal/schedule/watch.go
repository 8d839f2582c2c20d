package schedule

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "rotabot/pkg/logx"
)

// Watch re-validates the schedule file whenever it changes, so a broken
// hand edit is reported right away instead of on the next scheduled send.
// It blocks until ctx is cancelled.
//
// The directory (not the file) is watched because most editors replace
// files via rename, which drops per-file watches.
func (s *Source) Watch(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	file := filepath.Base(s.path)

	// debounce to avoid parsing partial writes
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	revalidate := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			if _, err := s.Load(); err != nil {
				s.log.Warn("schedule file changed and no longer validates",
					logx.String("path", s.path), logx.Err(err))
				return
			}
			s.log.Info("schedule file changed and validates",
				logx.String("path", s.path))
		})
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		w, err := fsnotify.NewWatcher()
		if err == nil {
			err = w.Add(dir)
			if err != nil {
				_ = w.Close()
			}
		}
		if err != nil {
			s.log.Warn("schedule watch init failed", logx.String("dir", dir), logx.Err(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
				continue
			}
		}

		s.log.Debug("schedule watcher started", logx.String("dir", dir), logx.String("file", file))

		// inner loop: runs until the watcher breaks, then the outer loop
		// recreates it.
		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = w.Close()
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					broken = true
					break
				}
				if filepath.Base(ev.Name) != file {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					revalidate()
				}
			case err, ok := <-w.Errors:
				if !ok {
					broken = true
					break
				}
				s.log.Warn("schedule watch error", logx.Err(err))
			}
		}
		_ = w.Close()
	}
}

// Package scheduler polls for due scheduled messages and triggers their
// dispatch.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zulandar/stationcall/internal/channel"
	"github.com/zulandar/stationcall/internal/dispatch"
	"github.com/zulandar/stationcall/internal/models"
	"gorm.io/gorm"
)

const defaultPeriod = 60 * time.Second

// SystemActor is the audit actor for scheduler-triggered sends.
const SystemActor = "system"

// Scheduler runs a recurring scan for messages whose status is scheduled
// and whose scheduled time has passed, sending each through the dispatch
// orchestrator. Start and Stop control it as a unit; starting twice
// replaces the prior timer instead of stacking a second one.
type Scheduler struct {
	DB        *gorm.DB
	Transport channel.Transport
	Period    time.Duration // tick period, default 60s
	Cron      string        // optional 5-field cron expression, overrides Period
	Out       io.Writer

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	ticking atomic.Bool
}

// Start launches the timer loop. Safe to call on a running scheduler:
// the previous loop is stopped first.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	fmt.Fprintf(s.out(), "Scheduler starting (every %s)\n", s.describeEvery())
	go s.run(ctx, done)
}

// Stop halts the timer loop and waits for it to exit. A tick already in
// flight finishes on its own; its per-message sends remain guarded by
// the orchestrator's status claim.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	fmt.Fprintf(s.out(), "Scheduler stopped\n")
}

// run waits out each interval, then fires the scan in its own goroutine
// so a slow transport cannot delay the next wall-clock tick. If a scan
// is still running when the next interval elapses, that tick is skipped.
func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.nextWait()):
		}

		if !s.ticking.CompareAndSwap(false, true) {
			continue
		}
		go func() {
			defer s.ticking.Store(false)
			if err := s.Tick(time.Now()); err != nil {
				log.Printf("scheduler: tick: %v", err)
			}
		}()
	}
}

// Tick performs one scan: every scheduled message whose scheduledAt has
// passed is sent with the system actor. A failure on one message is
// logged and skipped; the rest of the batch still goes out. Only a
// store-level failure to list due messages surfaces as a tick error.
func (s *Scheduler) Tick(now time.Time) error {
	var due []models.Message
	err := s.DB.Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?",
		models.StatusScheduled, now).Find(&due).Error
	if err != nil {
		return fmt.Errorf("scheduler: list due messages: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	orch := &dispatch.Orchestrator{DB: s.DB, Transport: s.Transport}
	for i := range due {
		if _, err := orch.Send(due[i].ID, SystemActor, ""); err != nil {
			log.Printf("scheduler: send %s: %v", due[i].ID, err)
			continue
		}
	}
	return nil
}

// nextWait returns the duration until the next tick: the cron schedule's
// next fire time when configured, the fixed period otherwise.
func (s *Scheduler) nextWait() time.Duration {
	if s.Cron != "" {
		if d, ok := nextCronDuration(s.Cron); ok {
			return d
		}
		log.Printf("scheduler: invalid cron expression %q, using period", s.Cron)
	}
	if s.Period > 0 {
		return s.Period
	}
	return defaultPeriod
}

func (s *Scheduler) describeEvery() string {
	if s.Cron != "" {
		return fmt.Sprintf("cron %q", s.Cron)
	}
	if s.Period > 0 {
		return s.Period.String()
	}
	return defaultPeriod.String()
}

func (s *Scheduler) out() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return io.Discard
}

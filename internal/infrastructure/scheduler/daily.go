package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NewsReconciler/internal/ports"
)

// DailyScheduler runs the job immediately, then once per day at a fixed
// wall-clock time in the configured location.
type DailyScheduler struct {
	at       string
	loc      *time.Location
	stop     chan struct{}
	stopOnce sync.Once
	started  bool
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler builds a scheduler firing at "HH:MM" in loc.
func NewDailyScheduler(at string, loc *time.Location) *DailyScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyScheduler{at: at, loc: loc, stop: make(chan struct{})}
}

// Start runs the job once right away and then daily. It returns an error
// only when the configured time is unparseable.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil || d.started {
		return nil
	}

	at, err := time.ParseInLocation("15:04", d.at, d.loc)
	if err != nil {
		return fmt.Errorf("invalid daily time %q: %w", d.at, err)
	}

	d.started = true
	stop := d.stop
	go func() {
		job(time.Now().In(d.loc))
		for {
			timer := time.NewTimer(time.Until(d.next(time.Now().In(d.loc), at)))
			select {
			case t := <-timer.C:
				job(t)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// next returns the first occurrence of the configured wall-clock time
// strictly after now.
func (d *DailyScheduler) next(now, at time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, d.loc)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// Stop halts the scheduling goroutine. Safe to call more than once and
// concurrently with a running schedule.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	d.stopOnce.Do(func() { close(d.stop) })
	return nil
}

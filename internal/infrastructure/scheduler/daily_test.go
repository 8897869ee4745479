package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestDailySchedulerRunsImmediatelyThenStops(t *testing.T) {
	t.Parallel()

	ran := make(chan time.Time, 1)
	d := NewDailyScheduler("00:00", time.UTC)

	err := d.Start(context.Background(), func(ts time.Time) {
		select {
		case ran <- ts:
		default:
		}
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}

	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestDailySchedulerStopBetweenTicks(t *testing.T) {
	t.Parallel()

	d := NewDailyScheduler("00:00", time.UTC)
	done := make(chan struct{})

	if err := d.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Stop while the goroutine waits on its daily timer; the schedule loop
	// must observe the closed channel and exit rather than fire again.
	go func() {
		_ = d.Stop(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not return")
	}
}

func TestDailySchedulerRejectsBadTime(t *testing.T) {
	t.Parallel()

	d := NewDailyScheduler("25:99", time.UTC)
	if err := d.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatal("expected an error for an unparseable daily time")
	}
}

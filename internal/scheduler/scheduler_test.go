package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"flight-state-table/internal/ingest"
	"flight-state-table/internal/metrics"
)

func countingCycle(count *atomic.Int32) CycleFunc {
	return func(ctx context.Context, trigger ingest.Trigger) ingest.Result {
		count.Add(1)
		return ingest.Result{Trigger: trigger, Status: metrics.ResultSuccess}
	}
}

func stop(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func waitResult(t *testing.T, s *Scheduler) ingest.Result {
	t.Helper()
	select {
	case res := <-s.Results():
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cycle result")
		return ingest.Result{}
	}
}

func TestScheduler_TimerFires(t *testing.T) {
	var count atomic.Int32
	cfg := Config{Interval: 20 * time.Millisecond}
	s := New(cfg, countingCycle(&count), nil, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stop(t, s)

	res := waitResult(t, s)
	if res.Trigger != ingest.TriggerTimer {
		t.Errorf("Trigger = %q, want timer", res.Trigger)
	}
}

func TestScheduler_FetchOnStart(t *testing.T) {
	var count atomic.Int32
	cfg := Config{Interval: time.Hour, FetchOnStart: true}
	s := New(cfg, countingCycle(&count), nil, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stop(t, s)

	waitResult(t, s)
	if got := count.Load(); got != 1 {
		t.Errorf("cycles = %d, want 1", got)
	}
}

func TestScheduler_ManualTrigger(t *testing.T) {
	var count atomic.Int32
	cfg := Config{Interval: time.Hour}
	s := New(cfg, countingCycle(&count), nil, metrics.NewMetrics())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stop(t, s)

	if err := s.Trigger(); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}

	res := waitResult(t, s)
	if res.Trigger != ingest.TriggerManual {
		t.Errorf("Trigger = %q, want manual", res.Trigger)
	}
}

func TestScheduler_ManualTriggerLimited(t *testing.T) {
	var count atomic.Int32
	cfg := Config{Interval: time.Hour, ManualEvery: time.Hour, ManualBurst: 1}
	s := New(cfg, countingCycle(&count), nil, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stop(t, s)

	if err := s.Trigger(); err != nil {
		t.Fatalf("first Trigger failed: %v", err)
	}
	if err := s.Trigger(); !errors.Is(err, ErrTriggerLimited) {
		t.Errorf("second Trigger err = %v, want ErrTriggerLimited", err)
	}

	accepted, limited := s.Limiter().GetStats()
	if accepted != 1 || limited != 1 {
		t.Errorf("stats = (%d, %d), want (1, 1)", accepted, limited)
	}
}

func TestScheduler_TriggerNotRunning(t *testing.T) {
	s := New(DefaultConfig(), countingCycle(new(atomic.Int32)), nil, nil)

	if err := s.Trigger(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Trigger before Start err = %v, want ErrNotRunning", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	stop(t, s)

	if err := s.Trigger(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Trigger after Stop err = %v, want ErrNotRunning", err)
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	var count atomic.Int32
	s := New(Config{Interval: time.Hour, FetchOnStart: true}, countingCycle(&count), nil, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start err = %v, want ErrAlreadyRunning", err)
	}

	waitResult(t, s)
	stop(t, s)
	if got := count.Load(); got != 1 {
		t.Errorf("cycles = %d, want 1", got)
	}

	// A stopped scheduler can be started again.
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	stop(t, s)
}

func TestScheduler_StopWaitsForCycle(t *testing.T) {
	release := make(chan struct{})
	var finished atomic.Bool
	run := func(ctx context.Context, trigger ingest.Trigger) ingest.Result {
		<-release
		finished.Store(true)
		return ingest.Result{}
	}

	s := New(Config{Interval: time.Hour, FetchOnStart: true}, run, nil, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Stop(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop with blocked cycle err = %v, want DeadlineExceeded", err)
	}

	close(release)
	stop(t, s)
	if !finished.Load() {
		t.Error("cycle did not finish before Stop returned")
	}
}

func TestTriggerLimiter_Unlimited(t *testing.T) {
	tl := NewTriggerLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !tl.Allow() {
			t.Fatalf("Allow #%d = false with limiting disabled", i)
		}
	}
}

func TestTriggerLimiter_Refill(t *testing.T) {
	tl := NewTriggerLimiter(time.Second, 2)
	now := time.Now()

	if !tl.AllowAt(now) || !tl.AllowAt(now) {
		t.Fatal("burst of 2 not allowed")
	}
	if tl.AllowAt(now) {
		t.Error("third trigger allowed within burst window")
	}
	if !tl.AllowAt(now.Add(1100 * time.Millisecond)) {
		t.Error("trigger not allowed after refill")
	}

	if accepted, limited := tl.GetStats(); accepted != 3 || limited != 1 {
		t.Errorf("GetStats = (%d, %d), want (3, 1)", accepted, limited)
	}
}

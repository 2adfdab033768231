// Package scheduler drives ingestion cycles from a recurring timer and from
// manual refresh requests.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"flight-state-table/internal/ingest"
	"flight-state-table/internal/metrics"
	"flight-state-table/pkg/logger"
)

var (
	// ErrTriggerLimited is returned when a manual trigger exceeds the
	// configured rate.
	ErrTriggerLimited = errors.New("manual trigger rate limited")

	// ErrNotRunning is returned by Trigger before Start or after Stop.
	ErrNotRunning = errors.New("scheduler not running")

	// ErrAlreadyRunning is returned by Start on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler already running")
)

// CycleFunc runs one ingestion cycle.
type CycleFunc func(ctx context.Context, trigger ingest.Trigger) ingest.Result

// Config holds scheduler configuration.
type Config struct {
	Interval     time.Duration // Timer interval (default: 1h)
	FetchOnStart bool          // Run a cycle as soon as Start is called
	ManualEvery  time.Duration // Minimum spacing of manual triggers; 0 disables limiting
	ManualBurst  int           // Manual triggers allowed back to back
	ResultBuffer int           // Capacity of the Results channel
}

// DefaultConfig returns the defaults: hourly polling, at most one manual
// refresh every ten seconds.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Hour,
		ManualEvery:  10 * time.Second,
		ManualBurst:  1,
		ResultBuffer: 16,
	}
}

// Scheduler runs cycles one at a time on its own goroutine. Manual triggers
// received while a cycle is pending coalesce into one.
type Scheduler struct {
	cfg     Config
	run     CycleFunc
	limiter *TriggerLimiter
	logger  *logger.Logger
	metrics *metrics.Metrics

	manual  chan struct{}
	results chan ingest.Result
	running atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler that calls run for each cycle.
func New(cfg Config, run CycleFunc, log *logger.Logger, m *metrics.Metrics) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = DefaultConfig().ResultBuffer
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Scheduler{
		cfg:     cfg,
		run:     run,
		limiter: NewTriggerLimiter(cfg.ManualEvery, cfg.ManualBurst),
		logger:  log,
		metrics: m,
		manual:  make(chan struct{}, 1),
		results: make(chan ingest.Result, cfg.ResultBuffer),
	}
}

// Results delivers the outcome of every cycle. Results are dropped when the
// channel is full.
func (s *Scheduler) Results() <-chan ingest.Result {
	return s.results
}

// Limiter returns the manual trigger limiter.
func (s *Scheduler) Limiter() *TriggerLimiter {
	return s.limiter
}

// Start begins the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop()

	s.logger.Info("Scheduler started, polling every %v", s.cfg.Interval)
	return nil
}

// Stop cancels the loop and waits for an in-progress cycle to return, or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.running.Store(false)
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger requests a manual cycle. It does not wait for the cycle to run.
func (s *Scheduler) Trigger() error {
	if !s.running.Load() {
		return ErrNotRunning
	}
	if !s.limiter.Allow() {
		s.recordTrigger(metrics.ResultLimited)
		return ErrTriggerLimited
	}

	select {
	case s.manual <- struct{}{}:
	default:
		s.logger.Debug("Manual trigger coalesced with a pending one")
	}
	s.recordTrigger(metrics.ResultAccepted)
	return nil
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	if s.cfg.FetchOnStart {
		s.cycle(ingest.TriggerTimer)
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ingest.TriggerTimer)
		case <-s.manual:
			s.cycle(ingest.TriggerManual)
		}
	}
}

func (s *Scheduler) cycle(trigger ingest.Trigger) {
	res := s.run(s.ctx, trigger)

	select {
	case s.results <- res:
	default:
		s.logger.Debug("Dropping result of cycle %s, no reader", res.ID)
	}
}

func (s *Scheduler) recordTrigger(result string) {
	if s.metrics != nil {
		s.metrics.RecordTrigger(result)
	}
}

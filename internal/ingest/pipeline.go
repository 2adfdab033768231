// Package ingest runs the fetch, parse, project, display and persist cycle
// over an explicit, owned table and snapshot store.
package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"flight-state-table/internal/history"
	"flight-state-table/internal/metrics"
	"flight-state-table/internal/parser"
	"flight-state-table/internal/snapshot"
	"flight-state-table/internal/table"
	"flight-state-table/pkg/logger"
)

// ErrCycleInFlight is returned when a cycle is requested while another is
// still running.
var ErrCycleInFlight = errors.New("ingestion cycle already in flight")

// Fetcher returns a raw /states/all payload.
type Fetcher interface {
	FetchRaw(ctx context.Context) ([]byte, error)
}

// Trigger identifies what started a cycle.
type Trigger string

const (
	TriggerStartup Trigger = "startup"
	TriggerTimer   Trigger = "timer"
	TriggerManual  Trigger = "manual"
)

// Result is the outcome of one cycle.
type Result struct {
	ID           uuid.UUID     `json:"id"`
	Trigger      Trigger       `json:"trigger"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
	Status       string        `json:"status"`
	Rows         int           `json:"rows"`
	ResponseTime int64         `json:"response_time,omitempty"`
	Error        string        `json:"error,omitempty"`

	// Err aborted the cycle; the table and snapshot were not touched.
	Err error `json:"-"`
	// PersistErr means the table was replaced but the snapshot was not saved.
	PersistErr error `json:"-"`
}

// Displayed reports whether the cycle replaced the table.
func (r Result) Displayed() bool {
	return r.Err == nil
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

func WithHistory(h *history.Ring[Result]) Option {
	return func(p *Pipeline) { p.history = h }
}

// Pipeline owns the table and snapshot store for one ingestion loop. At most
// one cycle runs at a time.
type Pipeline struct {
	fetcher  Fetcher
	store    snapshot.Store
	table    *table.Table
	notifier Notifier
	logger   *logger.Logger
	metrics  *metrics.Metrics
	history  *history.Ring[Result]

	inFlight atomic.Bool
	now      func() time.Time
}

// New creates a pipeline.
func New(f Fetcher, store snapshot.Store, tbl *table.Table, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: f,
		store:   store,
		table:   tbl,
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.notifier == nil {
		p.notifier = NewLogNotifier(p.logger)
	}
	return p
}

// RunCycle fetches, parses and projects the current states, replaces the
// table, and saves the raw payload. Network and decode failures leave the
// table and snapshot untouched. A save failure is reported in PersistErr
// after the table has been replaced.
func (p *Pipeline) RunCycle(ctx context.Context, trigger Trigger) Result {
	res, ok := p.begin(trigger)
	if !ok {
		return res
	}
	defer p.inFlight.Store(false)

	payload, err := p.fetcher.FetchRaw(ctx)
	if err != nil {
		return p.abort(res, metrics.ResultNetwork, NoticeNetwork, err)
	}

	resp, err := parser.ParseResponse(payload)
	if err != nil {
		return p.abort(res, metrics.ResultMalformed, NoticeMalformed, err)
	}

	rows := table.Project(resp.States)
	p.table.Replace(rows)
	res.Rows = len(rows)
	res.ResponseTime = resp.Time
	p.recordRows(len(rows))

	if err := p.store.Save(ctx, payload); err != nil {
		res.PersistErr = err
		res.Error = err.Error()
		p.recordSave(metrics.ResultError)
		p.notify(res, NoticePersistence, err)
		return p.finish(res, metrics.ResultPartial)
	}
	p.recordSave(metrics.ResultSuccess)

	p.logger.Info("Cycle %s (%s) displayed %d states", res.ID, trigger, res.Rows)
	return p.finish(res, metrics.ResultSuccess)
}

// Restore populates the table from the saved snapshot without touching the
// network. No snapshot yields an empty table and no notice. A corrupt
// snapshot is reported as a malformed payload and leaves the table as it
// was, which at startup is empty.
func (p *Pipeline) Restore(ctx context.Context) Result {
	res, ok := p.begin(TriggerStartup)
	if !ok {
		return res
	}
	defer p.inFlight.Store(false)

	snap, found, err := p.store.Load(ctx)
	if err != nil {
		return p.abort(res, metrics.ResultError, NoticePersistence, err)
	}
	if !found {
		p.logger.Info("No snapshot found, starting with an empty table")
		p.table.Replace(nil)
		p.recordRows(0)
		return p.finish(res, metrics.ResultSuccess)
	}

	resp, err := parser.ParseResponse(snap.Payload)
	if err != nil {
		return p.abort(res, metrics.ResultMalformed, NoticeMalformed, err)
	}

	rows := table.Project(resp.States)
	p.table.Replace(rows)
	res.Rows = len(rows)
	res.ResponseTime = resp.Time
	p.recordRows(len(rows))

	p.logger.Info("Restored %d states from snapshot captured %s", res.Rows, snap.CapturedAt.Format(time.RFC3339))
	return p.finish(res, metrics.ResultSuccess)
}

func (p *Pipeline) begin(trigger Trigger) (Result, bool) {
	res := Result{
		ID:        uuid.New(),
		Trigger:   trigger,
		StartedAt: p.now(),
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		res.Err = ErrCycleInFlight
		res.Error = ErrCycleInFlight.Error()
		res.Status = metrics.ResultSkipped
		if p.metrics != nil {
			p.metrics.RecordCycle(metrics.ResultSkipped, 0)
		}
		p.logger.Warn("Skipping %s cycle: %v", trigger, ErrCycleInFlight)
		return res, false
	}
	return res, true
}

func (p *Pipeline) abort(res Result, status string, kind NoticeKind, err error) Result {
	res.Err = err
	res.Error = err.Error()
	p.notify(res, kind, err)
	return p.finish(res, status)
}

func (p *Pipeline) finish(res Result, status string) Result {
	res.Status = status
	res.Duration = p.now().Sub(res.StartedAt)
	if p.metrics != nil {
		p.metrics.RecordCycle(status, res.Duration)
	}
	if p.history != nil {
		p.history.Push(res)
	}
	return res
}

func (p *Pipeline) notify(res Result, kind NoticeKind, err error) {
	p.notifier.Notify(Notice{
		Kind:    kind,
		CycleID: res.ID,
		Message: err.Error(),
		Time:    p.now(),
	})
}

func (p *Pipeline) recordRows(n int) {
	if p.metrics != nil {
		p.metrics.SetTableRows(n)
	}
}

func (p *Pipeline) recordSave(result string) {
	if p.metrics != nil {
		p.metrics.RecordSnapshotSave(result)
	}
}

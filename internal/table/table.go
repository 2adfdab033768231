// Package table projects state vectors into display rows and holds the
// current row set shown to display sinks.
package table

import (
	"sync"
	"time"

	"flight-state-table/internal/model"
)

// Sink receives the full row set every time the table is replaced.
type Sink interface {
	ReplaceRows(rows []model.Row)
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func([]model.Row)

func (f SinkFunc) ReplaceRows(rows []model.Row) {
	f(rows)
}

// Table is the current set of display rows. Replace swaps the whole set at
// once; readers see either the old set or the new one.
type Table struct {
	mu        sync.RWMutex
	rows      []model.Row
	updatedAt time.Time
	sinks     []Sink
}

// New creates an empty table.
func New() *Table {
	return &Table{}
}

// AddSink registers a sink. Sinks are called in registration order after
// each Replace, outside the table lock.
func (t *Table) AddSink(s Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sinks = append(t.sinks, s)
}

// Replace clears the table and installs rows as the new set.
func (t *Table) Replace(rows []model.Row) {
	if rows == nil {
		rows = []model.Row{}
	}

	t.mu.Lock()
	t.rows = rows
	t.updatedAt = time.Now()
	sinks := make([]Sink, len(t.sinks))
	copy(sinks, t.sinks)
	t.mu.Unlock()

	for _, s := range sinks {
		s.ReplaceRows(copyRows(rows))
	}
}

// Rows returns a copy of the current row set.
func (t *Table) Rows() []model.Row {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return copyRows(t.rows)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.rows)
}

// UpdatedAt returns when the row set was last replaced. Zero if never.
func (t *Table) UpdatedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.updatedAt
}

func copyRows(rows []model.Row) []model.Row {
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		out[i] = append(model.Row(nil), r...)
	}
	return out
}

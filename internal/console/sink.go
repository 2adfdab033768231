// Package console renders the state table as aligned text.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"flight-state-table/internal/model"
)

// Sink writes the full table to w on every replace.
type Sink struct {
	mu      sync.Mutex
	w       io.Writer
	maxRows int
	now     func() time.Time
}

// NewSink creates a console sink. maxRows limits printed rows; zero prints
// all of them.
func NewSink(w io.Writer, maxRows int) *Sink {
	return &Sink{w: w, maxRows: maxRows, now: time.Now}
}

// ReplaceRows implements table.Sink.
func (s *Sink) ReplaceRows(rows []model.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	Render(s.w, rows, s.maxRows, s.now())
}

// Render writes a header line, the column headers and up to maxRows rows.
func Render(w io.Writer, rows []model.Row, maxRows int, at time.Time) {
	fmt.Fprintf(w, "--- %d states at %s ---\n", len(rows), at.Format(time.RFC3339))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(model.Headers(), "\t"))

	shown := rows
	if maxRows > 0 && len(rows) > maxRows {
		shown = rows[:maxRows]
	}
	for _, row := range shown {
		cells := make([]string, model.FieldCount)
		copy(cells, row)
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	if len(shown) < len(rows) {
		fmt.Fprintf(w, "... %d more\n", len(rows)-len(shown))
	}
}

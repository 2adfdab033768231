package ingest

import (
	"time"

	"github.com/google/uuid"

	"flight-state-table/pkg/logger"
)

// NoticeKind classifies a user-facing notification.
type NoticeKind string

const (
	NoticeNetwork     NoticeKind = "network_error"
	NoticeMalformed   NoticeKind = "malformed_payload"
	NoticePersistence NoticeKind = "persistence_error"
)

// Notice is a user-facing notification raised by a failed or partial cycle.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	CycleID uuid.UUID  `json:"cycle_id"`
	Message string     `json:"message"`
	Time    time.Time  `json:"time"`
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc is a function adapter for Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

// LogNotifier writes notices to the error log.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a notifier backed by log.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(notice Notice) {
	n.logger.Error("[%s] cycle %s: %s", notice.Kind, notice.CycleID, notice.Message)
}

// MultiNotifier forwards notices to several notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) Notify(notice Notice) {
	if m == nil {
		return
	}
	for _, n := range m.notifiers {
		if n != nil {
			n.Notify(notice)
		}
	}
}

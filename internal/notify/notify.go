// Package notify implements the transient user-facing notification slot.
// At most one notification is active at a time; publishing a new one
// replaces the previous one, and each notification auto-dismisses after a
// fixed display duration. Dismissal is keyed to the notification's own
// identity so a timer scheduled for a superseded notification can never
// clear a newer one.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDisplayDuration is how long a notification stays visible before
// it auto-dismisses.
const DefaultDisplayDuration = 4 * time.Second

// Severity classifies a notification for display purposes.
type Severity string

// Notification severities.
const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a single transient user-visible message.
type Notification struct {
	ID       string
	Message  string
	Severity Severity
}

// Sink receives every published notification, outside the notifier's lock.
// The CLI uses it to render messages as they happen.
type Sink func(Notification)

// Notifier owns the single notification slot. Safe for concurrent use.
type Notifier struct {
	mu         sync.Mutex
	current    *Notification
	timer      *time.Timer
	displayFor time.Duration
	sink       Sink
	logger     *slog.Logger
}

// New creates a Notifier. displayFor <= 0 selects DefaultDisplayDuration.
// sink may be nil. A nil logger falls back to slog.Default().
func New(displayFor time.Duration, sink Sink, logger *slog.Logger) *Notifier {
	if displayFor <= 0 {
		displayFor = DefaultDisplayDuration
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{
		displayFor: displayFor,
		sink:       sink,
		logger:     logger,
	}
}

// Success publishes a success notification.
func (n *Notifier) Success(message string) {
	n.publish(SeveritySuccess, message)
}

// Warning publishes a warning notification.
func (n *Notifier) Warning(message string) {
	n.publish(SeverityWarning, message)
}

// Error publishes an error notification.
func (n *Notifier) Error(message string) {
	n.publish(SeverityError, message)
}

// publish replaces the current notification and schedules its dismissal.
// The previous notification's timer is stopped in the same critical section
// so it can never fire against the new slot contents.
func (n *Notifier) publish(severity Severity, message string) {
	note := Notification{
		ID:       uuid.NewString(),
		Message:  message,
		Severity: severity,
	}

	n.mu.Lock()

	if n.timer != nil {
		n.timer.Stop()
	}

	n.current = &note
	n.timer = time.AfterFunc(n.displayFor, func() {
		n.dismiss(note.ID)
	})

	n.mu.Unlock()

	n.logger.Debug("notification published",
		slog.String("severity", string(severity)),
		slog.String("message", message),
	)

	if n.sink != nil {
		n.sink(note)
	}
}

// dismiss clears the slot only if the notification with the given ID is
// still the one on display.
func (n *Notifier) dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current != nil && n.current.ID == id {
		n.current = nil
	}
}

// Current returns the active notification, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return Notification{}, false
	}

	return *n.current, true
}

// Clear dismisses the active notification immediately.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}

	n.current = nil
}

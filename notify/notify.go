// ABOUTME: User-facing notifications derived from service results
// ABOUTME: Surfaces choose how to show them: CLI prints, web flashes, TUI status line
package notify

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/harperreed/dealboard/service"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one message for the user.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// New builds a notification stamped with the current time.
func New(level Level, message string, details ...string) Notification {
	now := time.Now().UTC()
	return Notification{
		ID:        newID(now),
		Level:     level,
		Message:   message,
		Details:   details,
		CreatedAt: now,
	}
}

// Describe turns an error and its failures into a user message.
func Describe(action string, err error, failures []service.Failure) Notification {
	var details []string
	for _, f := range failures {
		details = append(details, f.String())
	}

	switch {
	case errors.Is(err, service.ErrUnavailable):
		return New(LevelError, "Failed to "+action+": the record store is unavailable", details...)
	case errors.Is(err, service.ErrNotFound):
		return New(LevelError, "Failed to "+action+": record not found", details...)
	case errors.Is(err, service.ErrInvalid):
		return New(LevelError, "Failed to "+action+": some fields are invalid", details...)
	default:
		return New(LevelError, "Failed to "+action+": "+err.Error(), details...)
	}
}

// Report sends the notification for a result and reports whether it succeeded.
// Partial failures on a successful write produce a warning next to the success.
func Report[T any](n Notifier, res service.Result[T], action, success string) bool {
	if res.Err != nil {
		n.Notify(Describe(action, res.Err, res.Failures))
		return false
	}
	if success != "" {
		n.Notify(New(LevelSuccess, success))
	}
	if len(res.Failures) > 0 {
		details := make([]string, 0, len(res.Failures))
		for _, f := range res.Failures {
			details = append(details, f.String())
		}
		n.Notify(New(LevelWarning, "Some records were not saved", details...))
	}
	return true
}

// Collector keeps notifications in memory until drained.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

func (c *Collector) Notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// Drain returns and forgets everything collected so far.
func (c *Collector) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items
	c.items = nil
	return out
}

// Logger writes notifications to a zap logger.
type Logger struct {
	log *zap.Logger
}

// NewLogger returns a notifier backed by log.
func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Notify(n Notification) {
	fields := []zap.Field{zap.String("id", n.ID), zap.Strings("details", n.Details)}
	switch n.Level {
	case LevelError:
		l.log.Error(n.Message, fields...)
	case LevelWarning:
		l.log.Warn(n.Message, fields...)
	default:
		l.log.Info(n.Message, fields...)
	}
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, target := range m {
		target.Notify(n)
	}
}

// Func adapts a function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

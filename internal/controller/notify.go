package controller

// Level classifies a user-facing notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notifier receives user-facing messages (toasts on the dashboard).
// Implementations must not block.
type Notifier interface {
	Notify(level Level, message string)
}

// NopNotifier discards everything. Useful for scripted runs.
type NopNotifier struct{}

func (NopNotifier) Notify(Level, string) {}

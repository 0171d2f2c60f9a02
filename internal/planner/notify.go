package planner

import (
	"log/slog"
	"sync"
)

// NoticeLevel is the severity of a user-facing notice.
type NoticeLevel int

const (
	LevelInfo NoticeLevel = iota
	LevelWarning
	LevelError
)

func (l NoticeLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a non-blocking message for the user.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier surfaces notices to the user. Notify must not block.
type Notifier interface {
	Notify(n Notice)
}

// LogNotifier writes notices to slog.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	switch n.Level {
	case LevelError:
		slog.Error(n.Message)
	case LevelWarning:
		slog.Warn(n.Message)
	default:
		slog.Info(n.Message)
	}
}

// NoticeLog keeps every notice it is given. The CLI prints it after a command.
type NoticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (l *NoticeLog) Notify(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

// Drain returns the collected notices and clears the log.
func (l *NoticeLog) Drain() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.notices
	l.notices = nil
	return out
}

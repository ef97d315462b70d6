// Package notify is the fire-and-forget user notification surface (toasts).
package notify

import (
	"time"

	log "github.com/sirupsen/logrus"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level
	Title   string
	Message string
	At      time.Time
}

func New(level Level, title, message string) Notification {
	return Notification{
		Level:   level,
		Title:   title,
		Message: message,
		At:      time.Now(),
	}
}

func Success(title, message string) Notification {
	return New(LevelSuccess, title, message)
}

func Error(title, message string) Notification {
	return New(LevelError, title, message)
}

// Notifier shows a notification to the user. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// LogNotifier writes notifications to the log, for headless use.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	entry := log.WithField("title", n.Title)
	switch n.Level {
	case LevelError:
		entry.Error(n.Message)
	case LevelWarning:
		entry.Warn(n.Message)
	default:
		entry.Info(n.Message)
	}
}

// ChanNotifier buffers notifications for a consumer running its own loop.
// When the buffer is full new notifications are dropped.
type ChanNotifier struct {
	ch chan Notification
}

func NewChanNotifier(size int) *ChanNotifier {
	if size <= 0 {
		size = 1
	}
	return &ChanNotifier{
		ch: make(chan Notification, size),
	}
}

func (c *ChanNotifier) Notify(n Notification) {
	select {
	case c.ch <- n:
	default:
		log.Warnf("notification dropped, buffer full: [%s] %s", n.Title, n.Message)
	}
}

func (c *ChanNotifier) C() <-chan Notification {
	return c.ch
}

// Package notify collects user-facing notices.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notice struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Info(msg string)
	Success(msg string)
	Error(msg string)
}

const DefaultCapacity = 50

// Center keeps the most recent notices, dropping the oldest once full.
type Center struct {
	mu       sync.Mutex
	notices  []Notice
	capacity int
	log      *logrus.Entry
	now      func() time.Time
}

func NewCenter(capacity int, log *logrus.Logger) *Center {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Center{
		capacity: capacity,
		log:      log.WithField("component", "notify"),
		now:      time.Now,
	}
}

func (c *Center) Info(msg string)    { c.push(LevelInfo, msg) }
func (c *Center) Success(msg string) { c.push(LevelSuccess, msg) }
func (c *Center) Error(msg string)   { c.push(LevelError, msg) }

func (c *Center) push(level Level, msg string) {
	n := Notice{ID: uuid.NewString(), Level: level, Message: msg, At: c.now()}

	entry := c.log.WithField("notice", n.ID)
	if level == LevelError {
		entry.Warn(msg)
	} else {
		entry.Info(msg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
	if over := len(c.notices) - c.capacity; over > 0 {
		c.notices = append([]Notice(nil), c.notices[over:]...)
	}
}

// Drain returns pending notices oldest first and empties the queue.
func (c *Center) Drain() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notices)
}

// Discard is a Notifier that drops everything.
type Discard struct{}

func (Discard) Info(string)    {}
func (Discard) Success(string) {}
func (Discard) Error(string)   {}

package alerts

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smartbedding/panel/internal/events"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

const DefaultDuration = 5 * time.Second

type Alert struct {
	ID       string
	Message  string
	Type     Type
	Sticky   bool          // never closes on its own
	Duration time.Duration // zero means the queue default
}

// Queue holds the notices currently shown to the user. Non-sticky alerts are
// removed automatically once their duration elapses.
type Queue struct {
	mu       sync.Mutex
	alerts   []Alert
	timers   map[string]*time.Timer
	duration time.Duration
	closed   bool

	changes *events.Feed[[]Alert]
}

func NewQueue(duration time.Duration) *Queue {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Queue{
		timers:   make(map[string]*time.Timer),
		duration: duration,
		changes:  events.NewFeed[[]Alert](),
	}
}

// Add queues an alert and returns its id.
func (q *Queue) Add(alert Alert) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ""
	}

	alert.ID = uuid.NewString()
	if alert.Duration <= 0 {
		alert.Duration = q.duration
	}
	q.alerts = append(q.alerts, alert)

	if !alert.Sticky {
		id := alert.ID
		q.timers[id] = time.AfterFunc(alert.Duration, func() {
			q.Remove(id)
		})
	}

	q.publish()
	return alert.ID
}

func (q *Queue) Info(message string) string {
	return q.Add(Alert{Message: message, Type: TypeInfo})
}

func (q *Queue) Success(message string) string {
	return q.Add(Alert{Message: message, Type: TypeSuccess})
}

func (q *Queue) Warning(message string) string {
	return q.Add(Alert{Message: message, Type: TypeWarning})
}

func (q *Queue) Error(message string) string {
	return q.Add(Alert{Message: message, Type: TypeError})
}

func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}

	before := len(q.alerts)
	q.alerts = slices.DeleteFunc(q.alerts, func(a Alert) bool {
		return a.ID == id
	})

	if len(q.alerts) != before {
		q.publish()
	}
}

// Clear removes every alert.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stopTimers()
	q.alerts = nil
	q.publish()
}

func (q *Queue) List() []Alert {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.alerts)
}

// Changes subscribes to the alert list.
func (q *Queue) Changes() (<-chan []Alert, func()) {
	return q.changes.Subscribe()
}

// Close releases every pending timer and subscription.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.stopTimers()
	q.changes.Close()
}

func (q *Queue) stopTimers() {
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
}

func (q *Queue) publish() {
	q.changes.Publish(slices.Clone(q.alerts))
}

package config

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smartbedding/panel/internal/models"
)

const DefaultRecentLogsSize = 1000

// RecentLogs is a logrus hook keeping the latest entries in a ring buffer so
// the status view can show what went wrong without a log file.
type RecentLogs struct {
	sessionUID  uuid.UUID
	eventBuffer []*models.LogEntry
	maxSize     int
	currentPos  int
	isFull      bool
	mu          sync.RWMutex
}

func NewRecentLogs(size int) *RecentLogs {
	if size <= 0 {
		size = DefaultRecentLogsSize
	}
	return &RecentLogs{
		sessionUID:  uuid.New(),
		eventBuffer: make([]*models.LogEntry, size),
		maxSize:     size,
	}
}

// SessionID identifies this process in captured entries.
func (t *RecentLogs) SessionID() uuid.UUID {
	return t.sessionUID
}

func (t *RecentLogs) Fire(entry *logrus.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.eventBuffer[t.currentPos] = models.NewLogEntry(entry, t.sessionUID)
	t.currentPos = (t.currentPos + 1) % t.maxSize

	if t.currentPos == 0 {
		t.isFull = true
	}

	return nil
}

func (t *RecentLogs) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
	}
}

func (t *RecentLogs) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.eventBuffer = make([]*models.LogEntry, t.maxSize)
	t.currentPos = 0
	t.isFull = false
}

// GetEvents returns every captured entry, oldest first.
func (t *RecentLogs) GetEvents() []*models.LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.getEventsInternal()
}

func (t *RecentLogs) GetRecentEvents(count int) []*models.LogEntry {
	events := t.GetEvents()
	if len(events) <= count {
		return events
	}
	return events[len(events)-count:]
}

// LogFilter contains the filtering criteria for log events
type LogFilter struct {
	// Filter by log levels (if empty, all levels are included)
	Levels []logrus.Level `json:"levels,omitempty"`
	// Filter events after this time (if nil, no time filter from start)
	Since *time.Time `json:"since,omitempty"`
	// Maximum number of events to return, newest kept (if 0, no limit)
	Limit int `json:"limit,omitempty"`
}

// GetEventsWithFilter returns events that match the specified filter criteria
func (t *RecentLogs) GetEventsWithFilter(filter LogFilter) []*models.LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	levelMap := make(map[logrus.Level]bool, len(filter.Levels))
	for _, level := range filter.Levels {
		levelMap[level] = true
	}

	var filtered []*models.LogEntry
	for _, entry := range t.getEventsInternal() {
		if len(levelMap) > 0 && !levelMap[entry.Level] {
			continue
		}
		if filter.Since != nil && entry.Time.Before(*filter.Since) {
			continue
		}
		filtered = append(filtered, entry)
	}

	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[len(filtered)-filter.Limit:]
	}

	return filtered
}

// getEventsInternal returns events without additional locking (assumes caller has lock)
func (t *RecentLogs) getEventsInternal() []*models.LogEntry {
	if !t.isFull {
		result := make([]*models.LogEntry, t.currentPos)
		copy(result, t.eventBuffer[:t.currentPos])
		return result
	}

	// Return in chronological order (oldest first)
	result := make([]*models.LogEntry, t.maxSize)
	copy(result, t.eventBuffer[t.currentPos:])
	copy(result[t.maxSize-t.currentPos:], t.eventBuffer[:t.currentPos])
	return result
}

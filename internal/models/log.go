package models

import (
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type LogEntry struct {

	// Process that produced the entry
	Session uuid.UUID `json:"session"`

	// Contains all the fields set by the caller.
	Data logrus.Fields `json:"data,omitempty"`

	// Time at which the log entry was created
	Time time.Time `json:"time"`

	Level logrus.Level `json:"level,omitempty"`

	Message string `json:"message,omitempty"`
}

func NewLogEntry(entry *logrus.Entry, session uuid.UUID) *LogEntry {
	return &LogEntry{
		Session: session,
		Data:    maps.Clone(entry.Data),
		Time:    entry.Time,
		Level:   entry.Level,
		Message: entry.Message,
	}
}

// ErrorMessage returns the error attached with WithError, if any.
func (l *LogEntry) ErrorMessage() string {
	if err, ok := l.Data[logrus.ErrorKey]; ok {
		if e, ok := err.(error); ok {
			return e.Error()
		}
	}
	return ""
}

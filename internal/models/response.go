package models

import (
	"time"
)

// TimestampFormat is the layout the device uses for envelope timestamps.
const TimestampFormat = "2006/01/02 15:04:05.000"

// ApiResponse is the envelope shared by every device endpoint. Data is only
// populated when Result is true and Message is only meaningful on failure.
type ApiResponse[T any] struct {
	Result    bool    `json:"result"`
	Timestamp string  `json:"timestamp"`
	Data      *T      `json:"data"`
	Message   *string `json:"message"`
}

func NewSuccessResponse[T any](data T, message string) ApiResponse[T] {
	return ApiResponse[T]{
		Result:    true,
		Timestamp: Now(),
		Data:      &data,
		Message:   optionalString(message),
	}
}

func NewFailureResponse[T any](message string) ApiResponse[T] {
	return ApiResponse[T]{
		Result:    false,
		Timestamp: Now(),
		Message:   optionalString(message),
	}
}

// Accepted reports whether the envelope carries a usable payload.
func (r *ApiResponse[T]) Accepted() bool {
	return r != nil && r.Result && r.Data != nil
}

func (r *ApiResponse[T]) GetMessage() string {
	if r == nil || r.Message == nil {
		return ""
	}
	return *r.Message
}

func (r *ApiResponse[T]) GetTimestamp() (time.Time, error) {
	return time.ParseInLocation(TimestampFormat, r.Timestamp, time.Local)
}

func Now() string {
	return time.Now().Format(TimestampFormat)
}

func optionalString(s string) *string {
	if len(s) == 0 {
		return nil
	}
	return &s
}

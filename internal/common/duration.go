package common

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/senseyeio/duration"
)

var ErrInvalidDuration = errors.New("invalid duration")

// Calendar units (P1M, P1Y) are resolved against a fixed date so the result
// does not depend on when the config is read.
var durationEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseDuration reads config and flag durations, either Go style ("8s") or
// ISO 8601 ("PT8S"). Negative values are rejected.
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidDuration)
	}

	var parsed time.Duration

	if d, err := time.ParseDuration(value); err == nil {
		parsed = d
	} else if iso, isoErr := duration.ParseISO8601(value); isoErr == nil {
		parsed = iso.Shift(durationEpoch).Sub(durationEpoch)
	} else {
		return 0, fmt.Errorf("%w: %q is neither a Go nor an ISO 8601 duration", ErrInvalidDuration, value)
	}

	if parsed < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidDuration, value)
	}
	return parsed, nil
}

package models

import (
	"time"
)

type PollOutcome string

const (
	PollOutcomeSuccess     PollOutcome = "success"
	PollOutcomeSoftFailure PollOutcome = "soft-failure" // device answered result=false
	PollOutcomeHardFailure PollOutcome = "hard-failure" // transport or decode error
)

// PollCycle is a single fetch attempt made by the refresher. Cycles are never
// persisted; only the latest successful payload survives in the Snapshot.
type PollCycle struct {
	Tick      uint64        `json:"tick"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Outcome   PollOutcome   `json:"outcome,omitempty"`
	Message   string        `json:"message,omitempty"`
	Err       error         `json:"-"`
}

func (p PollCycle) Succeeded() bool {
	return p.Outcome == PollOutcomeSuccess
}

// Snapshot is the view state maintained by the refresher.
type Snapshot struct {
	Data       DeviceStatus `json:"data,omitempty"`
	Loading    bool         `json:"loading"`
	Refreshing bool         `json:"refreshing"`
	LastCycle  *PollCycle   `json:"last_cycle,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (s Snapshot) HasData() bool {
	return len(s.Data) > 0
}

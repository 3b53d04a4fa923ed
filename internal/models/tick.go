package models

import "time"

// Verdict is the outcome of one poll tick.
type Verdict string

const (
	VerdictSkip       Verdict = "skip"       // no usable reading, state untouched
	VerdictQuiet      Verdict = "quiet"      // below threshold, history reset
	VerdictSuppressed Verdict = "suppressed" // at or above threshold, cool-down active
	VerdictAlert      Verdict = "alert"      // notification should be sent
	VerdictTest       Verdict = "test"       // synthetic event from the debug endpoint
)

// TickEvent describes what happened during one poll tick.
type TickEvent struct {
	At       time.Time `json:"at"`
	Level    Level     `json:"level"`
	Resolved bool      `json:"resolved"`
	Verdict  Verdict   `json:"verdict"`
	Sent     bool      `json:"sent"`
	Error    string    `json:"error,omitempty"`
}

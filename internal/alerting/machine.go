// Package alerting decides, tick by tick, whether the resolved aurora level
// warrants a notification, and runs the poll loop that acts on the decision.
package alerting

import (
	"time"

	"github.com/mr1hm/go-aurora-alerts/internal/models"
)

// Policy is the part of the alert configuration the decision depends on.
type Policy struct {
	Threshold     models.Level
	AlertInterval time.Duration
}

// State remembers the last notification that was actually sent. The zero
// LastAlertTime means no alert has been sent since the last reset.
type State struct {
	LastAlertTime  time.Time    `json:"last_alert_time"`
	LastAlertLevel models.Level `json:"last_alert_level"`
}

// NewState returns the state of a process that has never alerted.
func NewState() State {
	return State{LastAlertLevel: models.LevelNone}
}

func (s State) Alerted() bool {
	return !s.LastAlertTime.IsZero()
}

// Decision is the result of one step.
type Decision struct {
	Verdict  models.Verdict
	Level    models.Level
	Resolved bool
	At       time.Time
	Reason   string
}

// Decide is one step of the alert machine. It never records an alert: a
// VerdictAlert decision must be passed to Commit once the notification has
// been delivered. Below-threshold readings reset s; unresolved readings leave
// it untouched.
func Decide(p Policy, s State, level models.Level, resolved bool, now time.Time) (Decision, State) {
	d := Decision{Level: level, Resolved: resolved, At: now}

	if !resolved {
		d.Verdict = models.VerdictSkip
		d.Reason = "no recognised reading"
		return d, s
	}

	if level < p.Threshold {
		d.Verdict = models.VerdictQuiet
		d.Reason = "below threshold"
		return d, NewState()
	}

	switch {
	case !s.Alerted():
		d.Verdict = models.VerdictAlert
		d.Reason = "threshold reached"
	case level > s.LastAlertLevel:
		d.Verdict = models.VerdictAlert
		d.Reason = "escalation"
	case now.Sub(s.LastAlertTime) >= p.AlertInterval:
		d.Verdict = models.VerdictAlert
		d.Reason = "alert interval elapsed"
	default:
		d.Verdict = models.VerdictSuppressed
		d.Reason = "alert interval not elapsed"
	}
	return d, s
}

// Commit records a delivered alert. Decisions other than VerdictAlert leave s
// unchanged.
func Commit(s State, d Decision) State {
	if d.Verdict != models.VerdictAlert {
		return s
	}
	return State{LastAlertTime: d.At, LastAlertLevel: d.Level}
}

// Machine owns the alert state for one poll loop. It is not safe for
// concurrent use; the poll loop is its only caller.
type Machine struct {
	policy Policy
	state  State
}

func NewMachine(p Policy) *Machine {
	return &Machine{policy: p, state: NewState()}
}

func (m *Machine) Step(level models.Level, resolved bool, now time.Time) Decision {
	d, next := Decide(m.policy, m.state, level, resolved, now)
	m.state = next
	return d
}

func (m *Machine) Commit(d Decision) {
	m.state = Commit(m.state, d)
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Policy() Policy {
	return m.policy
}

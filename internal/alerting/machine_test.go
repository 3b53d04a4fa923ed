package alerting

import (
	"testing"
	"time"

	"github.com/mr1hm/go-aurora-alerts/internal/models"
)

var epoch = time.Unix(1_700_000_000, 0).UTC()

func at(sec int) time.Time {
	return epoch.Add(time.Duration(sec) * time.Second)
}

func hourly(threshold models.Level) Policy {
	return Policy{Threshold: threshold, AlertInterval: time.Hour}
}

// step runs one tick and commits it as if delivery succeeded.
func step(m *Machine, level models.Level, sec int) Decision {
	d := m.Step(level, true, at(sec))
	m.Commit(d)
	return d
}

func TestDecide_FirstCrossingAlerts(t *testing.T) {
	d, s := Decide(hourly(models.LevelYellow), NewState(), models.LevelAmber, true, at(0))
	if d.Verdict != models.VerdictAlert {
		t.Fatalf("expected alert, got %s (%s)", d.Verdict, d.Reason)
	}
	if s.Alerted() {
		t.Error("Decide must not record the alert")
	}
}

func TestDecide_BelowThresholdIsQuiet(t *testing.T) {
	prev := State{LastAlertTime: at(0), LastAlertLevel: models.LevelAmber}
	d, s := Decide(hourly(models.LevelYellow), prev, models.LevelGreen, true, at(10))
	if d.Verdict != models.VerdictQuiet {
		t.Fatalf("expected quiet, got %s", d.Verdict)
	}
	if s != NewState() {
		t.Errorf("expected reset state, got %+v", s)
	}
}

func TestMachine_StableLevelRespectsInterval(t *testing.T) {
	m := NewMachine(hourly(models.LevelYellow))

	if d := step(m, models.LevelYellow, 0); d.Verdict != models.VerdictAlert {
		t.Fatalf("first tick: expected alert, got %s", d.Verdict)
	}
	if d := step(m, models.LevelYellow, 3599); d.Verdict != models.VerdictSuppressed {
		t.Fatalf("before interval: expected suppressed, got %s", d.Verdict)
	}
	if d := step(m, models.LevelYellow, 3600); d.Verdict != models.VerdictAlert {
		t.Fatalf("at interval: expected alert, got %s", d.Verdict)
	}
	if got := m.State().LastAlertTime; !got.Equal(at(3600)) {
		t.Errorf("expected last alert at %v, got %v", at(3600), got)
	}
}

func TestMachine_EscalationOverridesInterval(t *testing.T) {
	m := NewMachine(hourly(models.LevelYellow))

	ticks := []struct {
		level models.Level
		sec   int
	}{
		{models.LevelYellow, 1},
		{models.LevelAmber, 3},
		{models.LevelRed, 5},
	}

	for _, tk := range ticks {
		d := step(m, tk.level, tk.sec)
		if d.Verdict != models.VerdictAlert {
			t.Fatalf("level %s at t=%d: expected alert, got %s", tk.level, tk.sec, d.Verdict)
		}
		if got := m.State().LastAlertLevel; got != tk.level {
			t.Errorf("expected last alert level %s, got %s", tk.level, got)
		}
	}

	// Dropping back within the alerting band is not an escalation.
	if d := step(m, models.LevelAmber, 7); d.Verdict != models.VerdictSuppressed {
		t.Errorf("expected suppressed after de-escalation within band, got %s", d.Verdict)
	}
	if got := m.State().LastAlertLevel; got != models.LevelRed {
		t.Errorf("suppressed tick changed last alert level to %s", got)
	}
}

func TestMachine_DeEscalationResets(t *testing.T) {
	m := NewMachine(hourly(models.LevelAmber))

	step(m, models.LevelRed, 0)
	if d := step(m, models.LevelYellow, 60); d.Verdict != models.VerdictQuiet {
		t.Fatalf("expected quiet, got %s", d.Verdict)
	}
	if m.State() != NewState() {
		t.Fatalf("expected reset state, got %+v", m.State())
	}

	// Re-crossing alerts immediately even though the interval has not elapsed.
	if d := step(m, models.LevelAmber, 120); d.Verdict != models.VerdictAlert {
		t.Errorf("expected alert on re-crossing, got %s", d.Verdict)
	}
}

func TestMachine_UnresolvedLeavesStateUntouched(t *testing.T) {
	m := NewMachine(hourly(models.LevelYellow))
	step(m, models.LevelAmber, 0)
	before := m.State()

	for i := 1; i <= 50; i++ {
		d := m.Step(models.LevelNone, false, at(i*600))
		if d.Verdict != models.VerdictSkip {
			t.Fatalf("tick %d: expected skip, got %s", i, d.Verdict)
		}
		m.Commit(d)
	}

	if m.State() != before {
		t.Errorf("state changed: before %+v, after %+v", before, m.State())
	}
}

func TestMachine_UncommittedAlertRetries(t *testing.T) {
	m := NewMachine(hourly(models.LevelYellow))

	// Delivery failed: the decision is never committed.
	if d := m.Step(models.LevelAmber, true, at(0)); d.Verdict != models.VerdictAlert {
		t.Fatalf("expected alert, got %s", d.Verdict)
	}
	if m.State().Alerted() {
		t.Fatal("state recorded an alert that was never committed")
	}

	if d := m.Step(models.LevelAmber, true, at(300)); d.Verdict != models.VerdictAlert {
		t.Errorf("expected retry on next tick, got %s", d.Verdict)
	}
}

func TestCommit_IgnoresNonAlertDecisions(t *testing.T) {
	s := State{LastAlertTime: at(0), LastAlertLevel: models.LevelAmber}

	for _, v := range []models.Verdict{models.VerdictSkip, models.VerdictQuiet, models.VerdictSuppressed} {
		d := Decision{Verdict: v, Level: models.LevelRed, Resolved: true, At: at(99)}
		if got := Commit(s, d); got != s {
			t.Errorf("%s: state changed to %+v", v, got)
		}
	}
}

func TestMachine_LastLevelNeverExceedsObserved(t *testing.T) {
	m := NewMachine(hourly(models.LevelYellow))
	levels := []models.Level{
		models.LevelYellow, models.LevelGreen, models.LevelAmber, models.LevelAmber,
		models.LevelRed, models.LevelYellow, models.LevelGreen, models.LevelYellow,
	}

	highest := models.LevelNone
	for i, l := range levels {
		if l < models.LevelYellow {
			highest = models.LevelNone
		} else {
			highest = max(highest, l)
		}
		step(m, l, i*60)
		if got := m.State().LastAlertLevel; got > highest {
			t.Fatalf("tick %d: last alert level %s exceeds highest seen %s", i, got, highest)
		}
	}
}

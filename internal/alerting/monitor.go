package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/go-aurora-alerts/internal/config"
	"github.com/mr1hm/go-aurora-alerts/internal/models"
	"github.com/mr1hm/go-aurora-alerts/internal/pushover"
	"github.com/mr1hm/go-aurora-alerts/internal/status"
)

type Fetcher interface {
	Fetch(ctx context.Context) (*models.Feed, error)
}

type Dispatcher interface {
	Send(ctx context.Context, p *pushover.Payload) (string, error)
}

type History interface {
	AddAlert(ctx context.Context, a *models.Alert) error
}

type Publisher interface {
	Publish(ev models.TickEvent)
}

// Snapshot is a copy of the monitor's view after the most recent tick.
type Snapshot struct {
	LastTick    *models.TickEvent `json:"last_tick,omitempty"`
	FeedUpdated time.Time         `json:"feed_updated"`
	State       State             `json:"state"`
	Threshold   models.Level      `json:"threshold"`
	Reduced     bool              `json:"reduced_sensitivity"`
	Ticks       int               `json:"ticks"`
	AlertsSent  int               `json:"alerts_sent"`
}

// Monitor polls the feed and sends notifications. Ticks run one at a time on
// a single goroutine; Snapshot may be called from any goroutine.
type Monitor struct {
	cfg        *config.Config
	fetcher    Fetcher
	dispatcher Dispatcher
	history    History
	publisher  Publisher
	machine    *Machine
	message    MessageConfig
	now        func() time.Time
	jitter     func(n int64) int64 // returns a value in [0, n)
	wg         sync.WaitGroup

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewMonitor wires a monitor. history and publisher may be nil.
func NewMonitor(cfg *config.Config, fetcher Fetcher, dispatcher Dispatcher, history History, publisher Publisher) *Monitor {
	return &Monitor{
		cfg:        cfg,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		history:    history,
		publisher:  publisher,
		machine: NewMachine(Policy{
			Threshold:     cfg.Alert.Threshold,
			AlertInterval: cfg.Alert.Interval,
		}),
		message: MessageConfig{
			Token:   cfg.Pushover.Token,
			User:    cfg.Pushover.UserKey,
			TTL:     cfg.Alert.TTL,
			Reduced: cfg.Alert.ReducedSensitivity,
		},
		now:    time.Now,
		jitter: rand.Int64N,
		snapshot: Snapshot{
			State:     NewState(),
			Threshold: cfg.Alert.Threshold,
			Reduced:   cfg.Alert.ReducedSensitivity,
		},
	}
}

// Start runs the poll loop in the background until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.run(ctx)
}

// Stop waits for the poll loop to exit. Cancel the Start context first.
func (m *Monitor) Stop() {
	m.wg.Wait()
	slog.Info("monitor stopped")
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()
	slog.Info("starting poller", "url", m.cfg.Feed.URL, "interval", m.cfg.Feed.CheckInterval,
		"jitter", m.cfg.Feed.Jitter, "threshold", m.cfg.Alert.Threshold,
		"reduced_sensitivity", m.cfg.Alert.ReducedSensitivity)

	// Initial poll
	m.Tick(ctx)

	timer := time.NewTimer(m.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down")
			return
		case <-timer.C:
			m.Tick(ctx)
			timer.Reset(m.nextDelay())
		}
	}
}

// nextDelay is the check interval plus a random draw in [0, jitter).
func (m *Monitor) nextDelay() time.Duration {
	d := m.cfg.Feed.CheckInterval
	if j := m.cfg.Feed.Jitter; j > 0 {
		d += time.Duration(m.jitter(int64(j)))
	}
	return d
}

// Tick performs one poll: fetch, resolve, decide and, if warranted, notify.
// The alert is only committed to the machine once the provider accepted it.
func (m *Monitor) Tick(ctx context.Context) models.TickEvent {
	now := m.now()
	ev := models.TickEvent{At: now, Level: models.LevelNone, Verdict: models.VerdictSkip}

	feed, err := m.fetcher.Fetch(ctx)
	if err != nil {
		slog.Warn("feed fetch failed, skipping tick", "error", err)
		ev.Error = err.Error()
		m.record(ev, nil)
		return ev
	}

	readings := status.Select(feed.Sites, m.cfg.Alert.ReducedSensitivity)
	level, resolved := status.Resolve(readings)
	d := m.machine.Step(level, resolved, now)

	ev.Level = d.Level
	ev.Resolved = d.Resolved
	ev.Verdict = d.Verdict

	slog.Debug("poll complete", "sites", len(feed.Sites), "considered", len(readings),
		"level", level, "verdict", d.Verdict, "reason", d.Reason)

	if d.Verdict == models.VerdictAlert {
		if err := m.notify(ctx, d); err != nil {
			ev.Error = err.Error()
		} else {
			ev.Sent = true
		}
	}

	m.record(ev, feed)
	return ev
}

func (m *Monitor) notify(ctx context.Context, d Decision) error {
	req := NewRequest(m.message, d.Level)

	payload, err := req.Validate(d.At)
	if err != nil {
		var verr *pushover.ValidationError
		if errors.As(err, &verr) {
			slog.Error("notification failed validation", "field", verr.Field, "kind", verr.Kind.Error(), "error", err)
		} else {
			slog.Error("notification failed validation", "error", err)
		}
		return fmt.Errorf("validate notification: %w", err)
	}

	receipt, err := m.dispatcher.Send(ctx, payload)
	if err != nil {
		slog.Error("notification dispatch failed", "level", d.Level, "error", err)
		return fmt.Errorf("dispatch notification: %w", err)
	}

	m.machine.Commit(d)
	slog.Info("alert sent", "level", d.Level, "reason", d.Reason, "receipt", receipt)

	if m.history != nil {
		a := &models.Alert{
			ID:        uuid.NewString(),
			Level:     d.Level,
			Message:   req.Message,
			Priority:  *req.Priority,
			Receipt:   receipt,
			CreatedAt: d.At,
		}
		if err := m.history.AddAlert(ctx, a); err != nil {
			slog.Warn("error recording alert", "id", a.ID, "error", err)
		}
	}
	return nil
}

func (m *Monitor) record(ev models.TickEvent, feed *models.Feed) {
	m.mu.Lock()
	m.snapshot.LastTick = &ev
	m.snapshot.State = m.machine.State()
	m.snapshot.Ticks++
	if ev.Sent {
		m.snapshot.AlertsSent++
	}
	if feed != nil {
		m.snapshot.FeedUpdated = feed.Updated
	}
	m.mu.Unlock()

	if m.publisher != nil {
		m.publisher.Publish(ev)
	}
}

// Snapshot returns a copy of the latest monitor state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.LastTick != nil {
		ev := *s.LastTick
		s.LastTick = &ev
	}
	return s
}

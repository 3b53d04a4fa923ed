package api

import (
	"time"

	"github.com/mr1hm/go-aurora-alerts/internal/alerting"
	"github.com/mr1hm/go-aurora-alerts/internal/models"
)

type AlertList struct {
	Count  int         `json:"count"`
	Alerts []AlertView `json:"alerts"`
}

type AlertView struct {
	ID          string       `json:"id"`
	Level       models.Level `json:"level"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Message     string       `json:"message"`
	Priority    int          `json:"priority"`
	Receipt     string       `json:"receipt,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type StatusView struct {
	alerting.Snapshot
	Label       string `json:"label"`
	Description string `json:"description"`
}

func toAlertView(a models.Alert) AlertView {
	return AlertView{
		ID:          a.ID,
		Level:       a.Level,
		Label:       a.Level.Label(),
		Description: a.Level.Description(),
		Message:     a.Message,
		Priority:    a.Priority,
		Receipt:     a.Receipt,
		CreatedAt:   a.CreatedAt,
	}
}

func toAlertList(alerts []models.Alert) AlertList {
	views := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, toAlertView(a))
	}
	return AlertList{Count: len(views), Alerts: views}
}

// toStatusView labels the level of the last tick, or reports "Unknown" before
// the first resolved tick.
func toStatusView(s alerting.Snapshot) StatusView {
	level := models.LevelNone
	if s.LastTick != nil {
		level = s.LastTick.Level
	}
	return StatusView{
		Snapshot:    s,
		Label:       level.Label(),
		Description: level.Description(),
	}
}

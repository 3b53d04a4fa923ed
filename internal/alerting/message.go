package alerting

import (
	"fmt"
	"time"

	"github.com/mr1hm/go-aurora-alerts/internal/models"
	"github.com/mr1hm/go-aurora-alerts/internal/pushover"
)

const (
	auroraWatchURL   = "https://aurorawatch.lancs.ac.uk/"
	auroraWatchTitle = "AuroraWatch UK"
)

// MessageConfig carries what a notification needs besides the level.
type MessageConfig struct {
	Token   string
	User    string
	TTL     time.Duration
	Reduced bool
}

// NewRequest builds the notification for an alert at level. Red is sent at
// high priority; every alert carries the configured ttl.
func NewRequest(cfg MessageConfig, level models.Level) *pushover.Request {
	scope := "AuroraWatch UK alerting site"
	if cfg.Reduced {
		scope = "All AuroraWatch UK sites"
	}

	priority := 0
	if level == models.LevelRed {
		priority = 1
	}

	return &pushover.Request{
		Token:    cfg.Token,
		User:     cfg.User,
		Message:  fmt.Sprintf("%s reporting %s status. %s.", scope, level.Label(), level.Description()),
		Title:    pushover.String(fmt.Sprintf("%s: %s alert", auroraWatchTitle, level.Label())),
		Priority: pushover.Int(priority),
		TTL:      pushover.Int(int(cfg.TTL / time.Second)),
		URL:      pushover.String(auroraWatchURL),
		URLTitle: pushover.String(auroraWatchTitle),
	}
}

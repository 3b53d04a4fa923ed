package models

import "time"

// SiteReading is the status reported for one monitoring site in one poll.
type SiteReading struct {
	SiteID    string
	ProjectID string
	SiteURL   string
	StatusID  string // raw token, may be outside the known vocabulary
	Alerting  bool   // the feed marks this site as the one driving alerts
}

// Feed is one parsed all-site-status document.
type Feed struct {
	Updated time.Time
	Sites   []SiteReading
}

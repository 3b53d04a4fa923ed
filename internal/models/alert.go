package models

import "time"

// Alert is a notification that was accepted by the provider.
type Alert struct {
	ID        string
	Level     Level
	Message   string
	Priority  int
	Receipt   string // provider request id, if returned
	CreatedAt time.Time
}

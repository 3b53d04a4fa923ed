package repository

import (
	"context"
	"time"

	"github.com/mr1hm/go-aurora-alerts/internal/models"
)

type Filter struct {
	Limit    int
	Offset   int
	Since    *time.Time
	MinLevel *models.Level // >= this level (e.g., AMBER includes AMBER and RED)
}

type AlertRepository interface {
	AddAlert(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error)
}

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-aurora-alerts/internal/alerting"
	"github.com/mr1hm/go-aurora-alerts/internal/models"
	"github.com/mr1hm/go-aurora-alerts/internal/repository"
	"github.com/mr1hm/go-aurora-alerts/internal/stream"
)

// StatusSource reports the monitor's current view.
type StatusSource interface {
	Snapshot() alerting.Snapshot
}

type Handler struct {
	repo        repository.AlertRepository
	status      StatusSource
	broadcaster *stream.Broadcaster
}

func NewHandler(repo repository.AlertRepository, status StatusSource, broadcaster *stream.Broadcaster) *Handler {
	return &Handler{
		repo:        repo,
		status:      status,
		broadcaster: broadcaster,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/status", h.getStatus)
	r.GET("/api/alerts", h.getAlerts)
	r.GET("/api/alerts/:id", h.getAlert)
	r.GET("/api/events", h.streamEvents)
	r.POST("/api/debug/test-event", h.createTestEvent)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, toStatusView(h.status.Snapshot()))
}

func (h *Handler) getAlerts(c *gin.Context) {
	filter := repository.Filter{
		Limit: 20, // Default to 20 alerts if limit param not supplied
	}

	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off >= 0 {
			filter.Offset = off
		}
	}
	if ml := c.Query("min_level"); ml != "" {
		if level, ok := models.ParseLevelName(ml); ok {
			filter.MinLevel = &level
		}
	}
	if s := c.Query("since"); s != "" {
		if t, ok := parseSince(s); ok {
			filter.Since = &t
		}
	}

	alerts, err := h.repo.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	c.JSON(http.StatusOK, toAlertList(alerts))
}

func (h *Handler) getAlert(c *gin.Context) {
	alert, err := h.repo.GetAlert(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alert"})
		return
	}
	c.JSON(http.StatusOK, toAlertView(*alert))
}

// streamEvents sends every tick as a server-sent event until the client goes
// away or the broadcaster is closed.
func (h *Handler) streamEvents(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream unavailable"})
		return
	}

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("tick", ev)
			return true
		}
	})
}

func (h *Handler) createTestEvent(c *gin.Context) {
	level := models.LevelRed
	if l := c.Query("level"); l != "" {
		parsed, ok := models.ParseLevelName(l)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown level"})
			return
		}
		level = parsed
	}

	ev := models.TickEvent{
		At:       time.Now(),
		Level:    level,
		Resolved: true,
		Verdict:  models.VerdictTest,
	}

	// Broadcast only - no notification is sent and nothing is recorded
	if h.broadcaster != nil {
		h.broadcaster.Publish(ev)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "test event broadcast (not sent)",
		"level":   level,
	})
}

// parseSince accepts a date or an RFC 3339 timestamp.
func parseSince(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

package ingestion

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mr1hm/go-aurora-alerts/internal/models"
)

const awukTimeLayout = "2006-01-02T15:04:05-0700"

type awukStatus struct {
	XMLName xml.Name   `xml:"current_status"`
	Updated awukUpdate `xml:"updated"`
	Sites   []awukSite `xml:"site_status"`
}

type awukUpdate struct {
	Datetime string `xml:"datetime"`
}

type awukSite struct {
	ProjectID string `xml:"project_id,attr"`
	SiteID    string `xml:"site_id,attr"`
	SiteURL   string `xml:"site_url,attr"`
	StatusID  string `xml:"status_id,attr"`
	Alerting  string `xml:"alerting,attr"`
}

// AuroraWatch fetches the AuroraWatch UK all-site status document.
type AuroraWatch struct {
	url     string
	referer string
	client  *http.Client
}

// NewAuroraWatch returns a fetcher for url. AuroraWatch UK identify clients by
// the Referer header, so referer should point at this project.
func NewAuroraWatch(url, referer string) *AuroraWatch {
	return &AuroraWatch{
		url:     url,
		referer: referer,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Fetch returns every site reading in the feed. A feed without sites is not an
// error; transport failures, non-200 responses and undecodable bodies are.
func (a *AuroraWatch) Fetch(ctx context.Context) (*models.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if a.referer != "" {
		req.Header.Set("Referer", a.referer)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data awukStatus
	if err := xml.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	feed := &models.Feed{
		Sites: make([]models.SiteReading, 0, len(data.Sites)),
	}
	if dt := strings.TrimSpace(data.Updated.Datetime); dt != "" {
		feed.Updated, err = time.Parse(awukTimeLayout, dt)
		if err != nil {
			slog.Warn("AuroraWatch timestamp parsing failed", "datetime", dt, "error", err.Error())
		}
	}

	for _, s := range data.Sites {
		feed.Sites = append(feed.Sites, models.SiteReading{
			SiteID:    s.SiteID,
			ProjectID: s.ProjectID,
			SiteURL:   s.SiteURL,
			StatusID:  s.StatusID,
			Alerting:  strings.EqualFold(s.Alerting, "true"),
		})
	}

	return feed, nil
}

// Package status reduces the per-site readings of one poll to a single level.
//
// The aggregate is the least severe recognized level present: red is only
// reported when every considered site reports red.
package status

import "github.com/mr1hm/go-aurora-alerts/internal/models"

// Select returns the readings the resolver should consider. With reduced
// sensitivity every site counts; otherwise only the first site the feed marks
// as alerting, or none at all.
func Select(sites []models.SiteReading, reduced bool) []models.SiteReading {
	if reduced {
		return sites
	}
	for _, s := range sites {
		if s.Alerting {
			return []models.SiteReading{s}
		}
	}
	return nil
}

// Resolve returns the lowest recognized level among readings. Unrecognized
// tokens are ignored. It returns (LevelNone, false) when no reading is
// recognized, including when readings is empty.
func Resolve(readings []models.SiteReading) (models.Level, bool) {
	lowest := models.LevelNone
	for _, r := range readings {
		l, ok := models.ParseLevel(r.StatusID)
		if !ok {
			continue
		}
		if lowest == models.LevelNone || l < lowest {
			lowest = l
		}
	}
	return lowest, lowest != models.LevelNone
}

package status

import (
	"testing"

	"github.com/mr1hm/go-aurora-alerts/internal/models"
)

func readings(tokens ...string) []models.SiteReading {
	out := make([]models.SiteReading, len(tokens))
	for i, tok := range tokens {
		out[i] = models.SiteReading{SiteID: "site:" + tok, StatusID: tok}
	}
	return out
}

func TestResolve_Unrecognised(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   models.Level
		ok     bool
	}{
		{"empty", nil, models.LevelNone, false},
		{"single invalid", []string{"purple"}, models.LevelNone, false},
		{"multiple invalid", []string{"purple", "grey", "blue"}, models.LevelNone, false},
		{"mixed", []string{"purple", "amber", "blue"}, models.LevelAmber, true},
		{"empty token", []string{""}, models.LevelNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(readings(tt.tokens...))
			if got != tt.want || ok != tt.ok {
				t.Errorf("Resolve(%v) = %v, %v; want %v, %v", tt.tokens, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolve_Ranks(t *testing.T) {
	tokens := []string{"green", "yellow", "amber", "red"}

	// Every ordered pair resolves to the lower of the two.
	for i, a := range tokens {
		for j, b := range tokens {
			want := models.Level(min(i, j))
			got, ok := Resolve(readings(a, b))
			if !ok || got != want {
				t.Errorf("Resolve(%s, %s) = %v, %v; want %v", a, b, got, ok, want)
			}
		}
	}

	for i, a := range tokens {
		got, ok := Resolve(readings(a))
		if !ok || got != models.Level(i) {
			t.Errorf("Resolve(%s) = %v, %v; want %v", a, got, ok, models.Level(i))
		}
	}
}

func TestResolve_IgnoresCase(t *testing.T) {
	// The feed vocabulary is lowercase; anything else is unrecognised.
	if _, ok := Resolve(readings("RED")); ok {
		t.Error("expected uppercase token to be unrecognised")
	}
}

func TestSelect_Normal(t *testing.T) {
	sites := []models.SiteReading{
		{SiteID: "site:SAMNET:CRK2", StatusID: "red"},
		{SiteID: "site:AWN:SUM", StatusID: "green", Alerting: true},
	}

	got := Select(sites, false)
	if len(got) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(got))
	}
	if got[0].StatusID != "green" {
		t.Errorf("expected alerting site status green, got %s", got[0].StatusID)
	}
}

func TestSelect_NoAlertingSite(t *testing.T) {
	sites := readings("red", "red")

	got := Select(sites, false)
	if len(got) != 0 {
		t.Fatalf("expected no readings, got %d", len(got))
	}
	if _, ok := Resolve(got); ok {
		t.Error("expected unresolved when no site is alerting")
	}
}

func TestSelect_Reduced(t *testing.T) {
	sites := readings("red", "green", "brown")

	got := Select(sites, true)
	if len(got) != 3 {
		t.Fatalf("expected all 3 readings, got %d", len(got))
	}
	level, ok := Resolve(got)
	if !ok || level != models.LevelGreen {
		t.Errorf("expected green, got %v (%v)", level, ok)
	}
}

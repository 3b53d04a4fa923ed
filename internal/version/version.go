package version

// Set at build time with -ldflags "-X github.com/mr1hm/go-aurora-alerts/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	if Version == "dev" {
		return "aurora-alert dev (commit: " + Commit + ")"
	}
	return "aurora-alert " + Version + " (commit: " + Commit + ", built: " + BuildDate + ")"
}

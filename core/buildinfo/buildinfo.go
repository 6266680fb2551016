package buildinfo

// Set at link time, for example:
//
//	go build -ldflags "-X 'github.com/m3rciful/quotebot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/quotebot/core/buildinfo.Commit=$(git rev-parse --short HEAD)'" ./cmd/quotebot
var (
	// Version is the release tag; "dev" for local builds.
	Version = "dev"
	// Commit is the short git revision.
	Commit = "local"
	// Date is the RFC3339 build time, empty when unknown.
	Date = ""
)

// String renders version and commit for CLI output.
func String() string {
	if Date == "" {
		return Version + " (" + Commit + ")"
	}
	return Version + " (" + Commit + ", " + Date + ")"
}

package tlguard

// Version information, overridable at build time:
//
//	go build -ldflags "-X github.com/ZaguanLabs/tlguard.GitCommit=$(git rev-parse HEAD)"
const (
	// Name is the application name.
	Name = "tlguard"

	// Description is a short description of the application.
	Description = "Markup, emoji and glossary safe batch translation"

	// Version is the semantic version of the application.
	Version = "0.1.0"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/tlguard"
)

// Build information, set via ldflags.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// FullVersion returns Version with the short commit appended when known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns the User-Agent sent to HTTP providers.
func UserAgent() string {
	return Name + "/" + Version
}

// Package version provides build-time version information for the swifile
// binaries. Version, Commit, and BuildTime are populated via ldflags during
// the build process. For development builds, default values are used.
package version

// Build information variables, set via ldflags at build time:
//
//	go build -ldflags "-X github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/version.Version=2.0.0 \
//	                   -X github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/version.Commit=abc123 \
//	                   -X github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/version.BuildTime=2025-01-29T12:00:00Z"
var (
	// Version is the semantic version (e.g., "2.0.0", "dev").
	Version = "dev"

	// Commit is the git commit hash from which the binary was built.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built (RFC3339 format).
	BuildTime = "unknown"
)

// Info returns a formatted version line for the named binary.
func Info(program string) string {
	return program + " " + Version + " (commit: " + Commit + ", built: " + BuildTime + ")"
}

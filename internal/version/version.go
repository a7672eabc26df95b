// Package version holds the build-time version string reported by
// GET /health. Overridden at build time via:
//
//	go build -ldflags "-X github.com/tmoore-dev/reeltap/internal/version.Version=1.2.3"
package version

// Version is the service's semantic version, "dev" unless overridden.
var Version = "dev"

// Package version carries build identity for the pointpack tools.
// The variables are overridden at link time:
//
//	go build -ldflags "-X .../internal/version.Version=v1.2.0 -X .../internal/version.GitSHA=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String renders the one-line form the CLI tools print for -version.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, GitSHA, BuildTime)
}

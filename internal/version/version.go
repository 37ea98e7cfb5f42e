// Package version carries the build identity stamped into outbound HTTP
// requests.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Version is the module version, overridden at build time with
// -ldflags "-X .../internal/version.Version=v1.2.3".
var Version = "dev"

// UserAgent returns the User-Agent string for outbound requests.
func UserAgent() string {
	return fmt.Sprintf("tonpocket/%s (%s/%s)", Normalize(Version), runtime.GOOS, runtime.GOARCH)
}

// Normalize strips the 'v' prefix and any pre-release or build suffix so
// versions compare and render consistently.
func Normalize(version string) string {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}

	for {
		trimmed := strings.TrimSpace(version)
		trimmed = strings.TrimLeft(trimmed, "v")
		if trimmed == version {
			break
		}
		version = trimmed
	}

	return version
}

// Package version reports the build version of the multiverse binary.
package version

// version is set at build time:
//
//	go build -ldflags "-X github.com/rshade/multiverse/pkg/version.version=v1.2.3"
//
//nolint:gochecknoglobals // Overridden via -ldflags.
var version = "dev"

// GetVersion returns the build version, "dev" for untagged builds.
func GetVersion() string {
	if version == "" {
		return "dev"
	}
	return version
}

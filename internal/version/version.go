// Package version holds the server version and schema version helpers.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the current server version. The minor version doubles as the
// database schema version: a schema migration bumps the minor version.
var Version = "0.3.1"

// DevVersion is used when running in dev mode.
var DevVersion = "0.0.0"

func GetCurrentVersion(mode string) string {
	if mode == "dev" {
		return DevVersion
	}
	return Version
}

// GetSchemaVersion returns the major.minor part of a version string.
func GetSchemaVersion(version string) string {
	return semver.MajorMinor(normalize(version)) + ".0"
}

// IsVersionGreaterOrEqualThan returns true if version >= target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(normalize(version), normalize(target)) >= 0
}

// IsVersionGreaterThan returns true if version > target.
func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare(normalize(version), normalize(target)) > 0
}

// normalize prefixes the "v" that x/mod/semver requires.
func normalize(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

package system

import (
	"errors"
	"os"
	"regexp"

	"github.com/blang/semver/v4"
)

// OSReleaseFile is where Linux distributions describe themselves.
const OSReleaseFile = "/etc/os-release"

// This regex will parse VERSION_ID=1.2 or VERSION_ID="1.2.3" just as easily
var reVersionID = regexp.MustCompile(`(?m)^VERSION_ID=['"]?([^'"\s]*)`)

// ErrNoVersionID is returned when a release file has no VERSION_ID.
var ErrNoVersionID = errors.New("VERSION_ID not found in release file")

// ReadOSVersion reads the VERSION_ID of the release file at path.
func ReadOSVersion(path string) (semver.Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return semver.Version{}, err
	}

	return ParseOSVersion(data)
}

// ParseOSVersion extracts VERSION_ID from release file contents.
// Versions like "22.04" are accepted.
func ParseOSVersion(release []byte) (semver.Version, error) {
	m := reVersionID.FindSubmatch(release)
	if m == nil {
		return semver.Version{}, ErrNoVersionID
	}
	return semver.ParseTolerant(string(m[1]))
}

// Package apiver defines the IS-04 API version type used to select wire
// payload shapes and registry endpoints.
package apiver

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version identifies a single IS-04 protocol revision, e.g. v1.3.
type Version struct {
	Major uint64
	Minor uint64
}

// Known protocol revisions.
var (
	V1_0 = Version{Major: 1, Minor: 0}
	V1_3 = Version{Major: 1, Minor: 3}
)

// Supported returns the protocol revisions this node can produce wire
// payloads for. The set is fixed at build time.
func Supported() []Version {
	return []Version{V1_0, V1_3}
}

// Parse parses a version string of the form "v1.3" (the leading "v" is
// optional). Patch components and prerelease tags are rejected.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimPrefix(s, "v")

	sv, err := semver.NewVersion(trimmed)
	if err != nil {
		return Version{}, fmt.Errorf("invalid API version %q: %w", s, err)
	}
	if sv.Patch() != 0 || sv.Prerelease() != "" || sv.Metadata() != "" {
		return Version{}, fmt.Errorf("invalid API version %q: only major.minor accepted", s)
	}

	return Version{Major: sv.Major(), Minor: sv.Minor()}, nil
}

// ParseList parses a comma-separated version list as found in DNS-SD TXT
// records ("v1.0,v1.1,v1.2,v1.3"). Unparsable entries are skipped; an error
// is returned only when no entry parses.
func ParseList(s string) ([]Version, error) {
	parts := strings.Split(s, ",")
	versions := make([]Version, 0, len(parts))
	for _, p := range parts {
		v, err := Parse(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no parsable versions in %q", s)
	}
	return versions, nil
}

// String formats the version as "v<major>.<minor>".
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// Compare returns -1, 0 or 1 when v is older than, equal to or newer than
// other.
func (v Version) Compare(other Version) int {
	return v.semver().Compare(other.semver())
}

// IsSupported reports whether this node can produce payloads for v.
func (v Version) IsSupported() bool {
	for _, s := range Supported() {
		if v == s {
			return true
		}
	}
	return false
}

func (v Version) semver() *semver.Version {
	return semver.New(v.Major, v.Minor, 0, "", "")
}

// Contains reports whether list includes v.
func Contains(list []Version, v Version) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

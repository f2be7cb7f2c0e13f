package dsrf

import (
	"sort"
	"strings"
)

// Version represents a sales-report format version.
type Version string

// Supported format versions.
const (
	// V30 is version 3.0 of the flat-file standard.
	V30 Version = "3.0"
)

// DefaultVersion is the version assumed when a report does not declare one.
const DefaultVersion = V30

// String returns the version string.
func (v Version) String() string {
	return string(v)
}

// IsValid returns true if this is a supported format version.
func (v Version) IsValid() bool {
	_, ok := versionConfigs[v]
	return ok
}

// Profile identifies a report profile: the subset of row types a report uses.
type Profile string

// Profiles of version 3.0.
const (
	// ProfileResourceOnly covers resource-level usage reports (7.3).
	ProfileResourceOnly Profile = "ResourceOnly"
	// ProfileUgc covers user-generated-content reports (7.4).
	ProfileUgc Profile = "Ugc"
	// ProfileAudioVisual covers audio-visual release reports (7.6).
	ProfileAudioVisual Profile = "AudioVisualRelease"
)

// String returns the profile name.
func (p Profile) String() string {
	return string(p)
}

// profileNumbers maps the standard's profile numbers to their names.
var profileNumbers = map[string]Profile{
	"7.3": ProfileResourceOnly,
	"7.4": ProfileUgc,
	"7.6": ProfileAudioVisual,
}

// ProfileByNumber resolves a profile number (e.g. "7.4") to its profile.
func ProfileByNumber(number string) (Profile, bool) {
	p, ok := profileNumbers[number]
	return p, ok
}

// ParseProfile resolves a profile by name or number, case-insensitively on
// names.
func ParseProfile(s string) (Profile, bool) {
	if p, ok := profileNumbers[s]; ok {
		return p, true
	}
	for _, p := range []Profile{ProfileResourceOnly, ProfileUgc, ProfileAudioVisual} {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

// versionConfig holds version-specific configuration.
type versionConfig struct {
	// DisplayName is the human-readable version label.
	DisplayName string

	// Profiles supported by the version.
	Profiles []Profile
}

// versionConfigs maps format versions to their configurations.
var versionConfigs = map[Version]versionConfig{
	V30: {
		DisplayName: "DSRF 3.0",
		Profiles:    []Profile{ProfileResourceOnly, ProfileUgc, ProfileAudioVisual},
	},
}

// SupportedVersions returns all supported versions, sorted.
func SupportedVersions() []Version {
	versions := make([]Version, 0, len(versionConfigs))
	for v := range versionConfigs {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// Profiles returns the profiles a version supports.
func (v Version) Profiles() []Profile {
	cfg, ok := versionConfigs[v]
	if !ok {
		return nil
	}
	out := make([]Profile, len(cfg.Profiles))
	copy(out, cfg.Profiles)
	return out
}

// Supports reports whether the version supports the profile.
func (v Version) Supports(p Profile) bool {
	cfg, ok := versionConfigs[v]
	if !ok {
		return false
	}
	for _, known := range cfg.Profiles {
		if known == p {
			return true
		}
	}
	return false
}

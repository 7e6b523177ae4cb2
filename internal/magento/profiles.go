package magento

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/dorcha-inc/devbox/internal/core"
)

// Profile names a VCL flavour Magento can export
type Profile string

// VCL profiles
const (
	ProfileVarnish4 Profile = "varnish4"
	ProfileVarnish5 Profile = "varnish5"
	ProfileVarnish6 Profile = "varnish6"
)

// DefaultProfile is the "Varnish 4" configuration profile
const DefaultProfile = ProfileVarnish4

// profileSpec is what varnish:vcl:generate needs to export a profile
type profileSpec struct {
	exportVersion string
	// minMagento is the first Magento release able to export this version
	minMagento string
}

var profiles = map[Profile]profileSpec{
	ProfileVarnish4: {exportVersion: "4", minMagento: MinVersion},
	ProfileVarnish5: {exportVersion: "5", minMagento: MinVersion},
	ProfileVarnish6: {exportVersion: "6", minMagento: "2.3.2"},
}

// ExportVersion returns the --export-version value for p
func (p Profile) ExportVersion() (string, error) {
	spec, ok := profiles[p]
	if !ok {
		return "", fmt.Errorf("unknown VCL profile '%s'", p)
	}
	return spec.exportVersion, nil
}

// MinMagentoVersion returns the oldest Magento release that can export p
func (p Profile) MinMagentoVersion() (string, error) {
	spec, ok := profiles[p]
	if !ok {
		return "", fmt.Errorf("unknown VCL profile '%s'", p)
	}
	return spec.minMagento, nil
}

// IsValidProfile reports whether name is a known VCL profile
func IsValidProfile(name string) bool {
	_, ok := profiles[Profile(name)]
	return ok
}

// ValidProfiles lists the known profiles, comma separated
func ValidProfiles() string {
	return core.JoinMapKeys(profiles)
}

// SuggestProfile finds the most similar profile name for typo detection using Levenshtein distance
func SuggestProfile(name string) string {
	var best string
	bestDistance := 3 // Only consider distances <= 2

	nameLower := strings.ToLower(name)
	for profile := range profiles {
		distance := levenshtein.ComputeDistance(nameLower, string(profile))
		if distance < bestDistance || (distance == bestDistance && best != "" && string(profile) < best) {
			bestDistance = distance
			best = string(profile)
		}
	}

	return best
}

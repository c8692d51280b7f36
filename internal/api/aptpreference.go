package api

import (
	"fmt"
	"strings"
)

// AptPreference manages one pin file below /etc/apt/preferences.d.
type AptPreference struct {
	Metadata
	Parameters    AptPreferenceParameters `json:"parameters"`
	Relationships Relationships           `json:"relationships"`
}

// AptPreferenceParameters are the declared properties of a managed apt
// preference. Order, when set, prefixes the file name so apt reads the
// preference files in a defined sequence.
type AptPreferenceParameters struct {
	Ensure      Ensure         `json:"ensure"`
	Target      SafePath       `json:"target"`
	Name        PreferenceName `json:"name"`
	Order       *uint          `json:"order"`
	Package     string         `json:"package"`
	Pin         string         `json:"pin"`
	PinPriority int            `json:"pin-priority"`
}

// AptPreferencesDir is the directory preference targets derive from.
const AptPreferencesDir SafePath = "/etc/apt/preferences.d"

// PreferenceTarget computes the target path for a preference name with an
// optional order prefix.
func PreferenceTarget(name PreferenceName, order *uint) SafePath {
	if order != nil {
		return AptPreferencesDir.Join(fmt.Sprintf("%d-%s", *order, name))
	}
	return AptPreferencesDir.Join(name.String())
}

// Render produces the pin stanza in apt_preferences(5) syntax.
func (p AptPreferenceParameters) Render() string {
	var b strings.Builder
	b.WriteString("Package: ")
	b.WriteString(p.Package)
	b.WriteString("\nPin: ")
	b.WriteString(p.Pin)
	b.WriteString("\nPin-Priority: ")
	fmt.Fprintf(&b, "%d", p.PinPriority)
	b.WriteString("\n")
	return b.String()
}

// NewAptPreference returns a preference resource with a fresh id.
func NewAptPreference(parameters AptPreferenceParameters) *AptPreference {
	return &AptPreference{
		Metadata:      newMetadata(KindAptPreference),
		Parameters:    parameters,
		Relationships: Relationships{Requires: []ResourceRef{}},
	}
}

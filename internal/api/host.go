package api

import "net/netip"

// Host manages one line of a hosts(5) file, keyed by IP address.
type Host struct {
	Metadata
	Parameters    HostParameters `json:"parameters"`
	Relationships Relationships  `json:"relationships"`
}

// HostParameters are the declared properties of a managed hosts entry.
type HostParameters struct {
	Ensure    Ensure     `json:"ensure"`
	Target    SafePath   `json:"target"`
	IPAddress netip.Addr `json:"ip-address"`
	Hostname  Hostname   `json:"hostname"`
	Aliases   []Hostname `json:"aliases"`
}

// MaxHostAliases caps the alias list of a single hosts entry.
const MaxHostAliases = 4

// DefaultHostsFile is the target when a declaration does not name one.
const DefaultHostsFile SafePath = "/etc/hosts"

// Line renders the full hosts file line for this entry.
func (p HostParameters) Line() []string {
	fields := []string{p.IPAddress.String(), p.Hostname.String()}
	for _, alias := range p.Aliases {
		fields = append(fields, alias.String())
	}
	return fields
}

// NewHost returns a hosts entry resource with a fresh id.
func NewHost(parameters HostParameters) *Host {
	return &Host{
		Metadata:      newMetadata(KindHost),
		Parameters:    parameters,
		Relationships: Relationships{Requires: []ResourceRef{}},
	}
}

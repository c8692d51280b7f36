package api

import (
	"net/netip"
	"strings"
)

// ResolvConf manages the resolver configuration. At most one may be declared
// per host.
type ResolvConf struct {
	Metadata
	Parameters    ResolvConfParameters `json:"parameters"`
	Relationships Relationships        `json:"relationships"`
}

// ResolvConfParameters are the declared properties of the resolver
// configuration.
type ResolvConfParameters struct {
	Ensure      Ensure           `json:"ensure"`
	Target      SafePath         `json:"target"`
	Nameservers []netip.Addr     `json:"nameservers"`
	Search      []Hostname       `json:"search"`
	Sortlist    []SortlistPair   `json:"sortlist"`
	Options     []ResolverOption `json:"options"`
}

// DefaultResolvConfFile is the target when a declaration does not name one.
const DefaultResolvConfFile SafePath = "/etc/resolv.conf"

// Render produces the desired file content in resolv.conf(5) syntax.
func (p ResolvConfParameters) Render() string {
	var b strings.Builder

	for _, nameserver := range p.Nameservers {
		b.WriteString("nameserver ")
		b.WriteString(nameserver.String())
		b.WriteString("\n")
	}

	if len(p.Search) > 0 {
		words := make([]string, 0, len(p.Search))
		for _, domain := range p.Search {
			words = append(words, domain.String())
		}
		b.WriteString("search ")
		b.WriteString(strings.Join(words, " "))
		b.WriteString("\n")
	}

	if len(p.Sortlist) > 0 {
		words := make([]string, 0, len(p.Sortlist))
		for _, pair := range p.Sortlist {
			words = append(words, pair.String())
		}
		b.WriteString("sortlist ")
		b.WriteString(strings.Join(words, " "))
		b.WriteString("\n")
	}

	if len(p.Options) > 0 {
		words := make([]string, 0, len(p.Options))
		for _, option := range p.Options {
			words = append(words, option.String())
		}
		b.WriteString("options ")
		b.WriteString(strings.Join(words, " "))
		b.WriteString("\n")
	}

	return b.String()
}

// NewResolvConf returns a resolv.conf resource with a fresh id.
func NewResolvConf(parameters ResolvConfParameters) *ResolvConf {
	return &ResolvConf{
		Metadata:      newMetadata(KindResolvConf),
		Parameters:    parameters,
		Relationships: Relationships{Requires: []ResourceRef{}},
	}
}

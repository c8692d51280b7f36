package api

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// resolverFlags are the parameterless options of resolv.conf(5).
var resolverFlags = map[string]bool{
	"debug":                 true,
	"rotate":                true,
	"no-check-names":        true,
	"inet6":                 true,
	"edns0":                 true,
	"single-request":        true,
	"single-request-reopen": true,
	"no-tld-query":          true,
	"use-vc":                true,
	"no-reload":             true,
	"trust-ad":              true,
}

// resolverValueBounds are the options taking a numeric argument, with the
// upper bound glibc caps them at.
var resolverValueBounds = map[string]uint64{
	"ndots":    15,
	"timeout":  30,
	"attempts": 5,
}

// ResolverOption is a single entry of the options directive in resolv.conf.
type ResolverOption string

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *ResolverOption) UnmarshalText(text []byte) error {
	s := string(text)

	if name, value, found := strings.Cut(s, ":"); found {
		bound, ok := resolverValueBounds[name]
		if !ok {
			return fmt.Errorf("unknown resolver option %q", s)
		}
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil || n > bound {
			return fmt.Errorf("resolver option %q must carry a value between 0 and %d", name, bound)
		}
		*o = ResolverOption(s)
		return nil
	}

	if !resolverFlags[s] {
		return fmt.Errorf("unknown resolver option %q", s)
	}
	*o = ResolverOption(s)
	return nil
}

func (o ResolverOption) String() string {
	return string(o)
}

// SortlistPair is one entry of the sortlist directive: an address optionally
// followed by a slash and a netmask.
type SortlistPair string

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *SortlistPair) UnmarshalText(text []byte) error {
	s := string(text)
	address, netmask, found := strings.Cut(s, "/")
	if _, err := netip.ParseAddr(address); err != nil {
		return fmt.Errorf("sortlist entry %q has an invalid address: %v", s, err)
	}
	if found {
		if _, err := netip.ParseAddr(netmask); err != nil {
			return fmt.Errorf("sortlist entry %q has an invalid netmask: %v", s, err)
		}
	}
	*p = SortlistPair(s)
	return nil
}

func (p SortlistPair) String() string {
	return string(p)
}

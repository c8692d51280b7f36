package api

import (
	"fmt"
	"strconv"
	"strings"
)

// PackageEnsure extends Ensure with the purged state of dpkg, which removes
// configuration files along with the package.
type PackageEnsure string

const (
	PackagePresent PackageEnsure = "present"
	PackageAbsent  PackageEnsure = "absent"
	PackagePurged  PackageEnsure = "purged"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *PackageEnsure) UnmarshalText(text []byte) error {
	switch s := string(text); s {
	case string(PackagePresent), string(PackageAbsent), string(PackagePurged):
		*e = PackageEnsure(s)
		return nil
	default:
		return fmt.Errorf("unknown ensure value %q, expected %q, %q or %q", s, PackagePresent, PackageAbsent, PackagePurged)
	}
}

// IsPresent reports whether the package should be installed.
func (e PackageEnsure) IsPresent() bool {
	return e == PackagePresent
}

// IsAbsent reports whether the package should not be installed. Purged
// packages count as absent for resources that depend on them.
func (e PackageEnsure) IsAbsent() bool {
	return e == PackageAbsent || e == PackagePurged
}

// PackageName is a Debian package name as defined by debian-policy 5.6.1.
type PackageName string

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *PackageName) UnmarshalText(text []byte) error {
	s := string(text)
	if len(s) < 2 {
		return fmt.Errorf("package name %q must be at least two characters long", s)
	}
	if !isLowerAlphanumeric(rune(s[0])) {
		return fmt.Errorf("package name %q must start with a lowercase letter or digit", s)
	}
	for _, c := range s {
		if !isLowerAlphanumeric(c) && c != '+' && c != '-' && c != '.' {
			return fmt.Errorf("package name %q contains invalid character %q", s, c)
		}
	}
	*n = PackageName(s)
	return nil
}

func (n PackageName) String() string {
	return string(n)
}

// PackageVersion is a Debian package version as defined by debian-policy
// 5.6.12: an optional numeric epoch, the upstream version, and an optional
// Debian revision after the last hyphen.
type PackageVersion string

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *PackageVersion) UnmarshalText(text []byte) error {
	s := string(text)
	rest := s

	if epoch, remainder, found := strings.Cut(rest, ":"); found {
		if _, err := strconv.ParseUint(epoch, 10, 8); err != nil {
			return fmt.Errorf("package version %q has an invalid epoch: %v", s, err)
		}
		rest = remainder
	}

	upstream := rest
	revision := ""
	if i := strings.LastIndex(rest, "-"); i >= 0 {
		upstream, revision = rest[:i], rest[i+1:]
		if revision == "" {
			return fmt.Errorf("package version %q has an empty revision", s)
		}
		for _, c := range revision {
			if !isAlphanumeric(c) && c != '+' && c != '~' && c != '.' {
				return fmt.Errorf("package version %q contains invalid revision character %q", s, c)
			}
		}
	}

	if upstream == "" {
		return fmt.Errorf("package version %q has an empty upstream version", s)
	}
	for _, c := range upstream {
		if !isAlphanumeric(c) && c != '+' && c != '-' && c != '~' && c != '.' {
			return fmt.Errorf("package version %q contains invalid character %q", s, c)
		}
	}

	*v = PackageVersion(s)
	return nil
}

func (v PackageVersion) String() string {
	return string(v)
}

func isLowerAlphanumeric(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

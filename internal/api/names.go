package api

import (
	"fmt"
	"strings"
)

// Hostname is a fully qualified domain name identifying a managed host.
type Hostname string

// NewHostname validates s against the usual DNS label rules.
func NewHostname(s string) (Hostname, error) {
	if s == "" {
		return "", fmt.Errorf("hostnames must not be empty")
	}
	if len(s) > 253 {
		return "", fmt.Errorf("hostname %q exceeds 253 characters", s)
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" {
			return "", fmt.Errorf("hostname %q contains an empty label", s)
		}
		if len(label) > 63 {
			return "", fmt.Errorf("hostname %q contains a label longer than 63 characters", s)
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return "", fmt.Errorf("hostname %q contains a label starting or ending with a hyphen", s)
		}
		for _, c := range label {
			if !isAlphanumeric(c) && c != '-' {
				return "", fmt.Errorf("hostname %q contains invalid character %q", s, c)
			}
		}
	}
	return Hostname(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hostname) UnmarshalText(text []byte) error {
	parsed, err := NewHostname(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (h Hostname) String() string {
	return string(h)
}

// Username names a system user account.
type Username string

// RootUser owns managed files unless the declaration says otherwise.
const RootUser Username = "root"

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Username) UnmarshalText(text []byte) error {
	if err := validateAccountName("user", string(text)); err != nil {
		return err
	}
	*u = Username(text)
	return nil
}

func (u Username) String() string {
	return string(u)
}

// Groupname names a system group.
type Groupname string

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Groupname) UnmarshalText(text []byte) error {
	if err := validateAccountName("group", string(text)); err != nil {
		return err
	}
	*g = Groupname(text)
	return nil
}

func (g Groupname) String() string {
	return string(g)
}

// validateAccountName enforces the useradd(8) name rules shared by user and
// group names.
func validateAccountName(kind, s string) error {
	if s == "" {
		return fmt.Errorf("%s names must not be empty", kind)
	}
	if len(s) > 32 {
		return fmt.Errorf("%s name %q exceeds 32 characters", kind, s)
	}
	if !isAlphabetic(rune(s[0])) && s[0] != '_' {
		return fmt.Errorf("%s name %q must start with a letter or underscore", kind, s)
	}
	for _, c := range s {
		if !isAlphanumeric(c) && c != '-' && c != '_' {
			return fmt.Errorf("%s name %q contains invalid character %q", kind, s, c)
		}
	}
	return nil
}

// PreferenceName names an apt preference. It doubles as the file name below
// /etc/apt/preferences.d, so apt_preferences(5) file name rules apply.
type PreferenceName string

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *PreferenceName) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		return fmt.Errorf("preference names must not be empty")
	}
	for _, c := range s {
		if !isAlphanumeric(c) && c != '_' && c != '-' && c != '.' {
			return fmt.Errorf("preference name %q contains invalid character %q", s, c)
		}
	}
	*n = PreferenceName(s)
	return nil
}

func (n PreferenceName) String() string {
	return string(n)
}

// CronJobName names a cron job. It doubles as the file name below
// /etc/cron.d, which run-parts style processing restricts to letters,
// digits, underscores and hyphens.
type CronJobName string

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *CronJobName) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		return fmt.Errorf("cron job names must not be empty")
	}
	for _, c := range s {
		if !isAlphanumeric(c) && c != '_' && c != '-' {
			return fmt.Errorf("cron job name %q contains invalid character %q", s, c)
		}
	}
	*n = CronJobName(s)
	return nil
}

func (n CronJobName) String() string {
	return string(n)
}

func isAlphabetic(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphanumeric(c rune) bool {
	return isAlphabetic(c) || (c >= '0' && c <= '9')
}

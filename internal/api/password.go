package api

import (
	"fmt"
	"strings"
	"time"
)

// Password is the hashed login password of a managed user as it appears in
// the shadow database. Accounts without a usable password are locked, which
// normalizes to the single value "!".
type Password string

// LockedPassword disables password authentication for the account.
const LockedPassword Password = "!"

// Hash prefixes of the crypt schemes accepted in declarations.
var cryptPrefixes = []string{"$5$", "$6$", "$7$", "$2b$", "$gy$", "$y$"}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Password) UnmarshalText(text []byte) error {
	s := string(text)
	if strings.HasPrefix(s, "!") || s == "*" {
		*p = LockedPassword
		return nil
	}
	for _, prefix := range cryptPrefixes {
		if strings.HasPrefix(s, prefix) {
			*p = Password(s)
			return nil
		}
	}
	return fmt.Errorf("password is neither locked nor a supported crypt hash (sha-256, sha-512, scrypt, bcrypt, gost-yescrypt or yescrypt)")
}

// IsLocked reports whether the account must not authenticate by password.
func (p Password) IsLocked() bool {
	return p == LockedPassword
}

// Matches compares p against a raw shadow database field.
func (p Password) Matches(shadow string) bool {
	if p.IsLocked() {
		return strings.HasPrefix(shadow, "!") || shadow == "*"
	}
	return string(p) == shadow
}

// expiryDateLayout is the account expiration format used by usermod(8).
const expiryDateLayout = "2006-01-02"

// ExpiryDate is the calendar day on which a user account expires.
type ExpiryDate string

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *ExpiryDate) UnmarshalText(text []byte) error {
	s := string(text)
	if _, err := time.Parse(expiryDateLayout, s); err != nil {
		return fmt.Errorf("expiry date %q is not a valid YYYY-MM-DD date", s)
	}
	*d = ExpiryDate(s)
	return nil
}

func (d ExpiryDate) String() string {
	return string(d)
}

// DaysSinceEpoch converts the date into the day count stored in the shadow
// database.
func (d ExpiryDate) DaysSinceEpoch() int64 {
	t, _ := time.Parse(expiryDateLayout, string(d))
	return t.Unix() / 86400
}

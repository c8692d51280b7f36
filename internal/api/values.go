package api

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
)

// Ensure states whether a resource should exist on the managed host.
type Ensure string

const (
	Present Ensure = "present"
	Absent  Ensure = "absent"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Ensure) UnmarshalText(text []byte) error {
	switch s := string(text); s {
	case string(Present), string(Absent):
		*e = Ensure(s)
		return nil
	default:
		return fmt.Errorf("unknown ensure value %q, expected %q or %q", s, Present, Absent)
	}
}

// IsPresent reports whether the resource should exist.
func (e Ensure) IsPresent() bool {
	return e == Present
}

// IsAbsent reports whether the resource should not exist.
func (e Ensure) IsAbsent() bool {
	return e == Absent
}

// Action describes the outcome of applying a single resource.
type Action string

const (
	ActionUnchanged Action = "unchanged"
	ActionCreated   Action = "created"
	ActionChanged   Action = "changed"
	ActionDeleted   Action = "deleted"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	switch s := string(text); s {
	case string(ActionUnchanged), string(ActionCreated), string(ActionChanged),
		string(ActionDeleted), string(ActionSkipped), string(ActionFailed):
		*a = Action(s)
		return nil
	default:
		return fmt.Errorf("unknown action %q", s)
	}
}

// SafePath is an absolute slash-separated path that contains no "." or ".."
// components. Every path exchanged between server and agent is a SafePath,
// which rules out traversal through user-supplied declarations.
type SafePath string

// NewSafePath validates s as an absolute path without relative components.
func NewSafePath(s string) (SafePath, error) {
	if !strings.HasPrefix(s, "/") {
		return "", fmt.Errorf("path %q is not absolute", s)
	}
	if strings.Contains(s, "//") {
		return "", fmt.Errorf("path %q contains empty components", s)
	}
	for _, component := range strings.Split(s[1:], "/") {
		if component == "." || component == ".." {
			return "", fmt.Errorf("path %q contains relative components", s)
		}
	}
	if len(s) > 1 && strings.HasSuffix(s, "/") {
		return "", fmt.Errorf("path %q has a trailing slash", s)
	}
	return SafePath(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *SafePath) UnmarshalText(text []byte) error {
	parsed, err := NewSafePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p SafePath) String() string {
	return string(p)
}

// Dir returns the parent of the path. The parent of "/" is "/".
func (p SafePath) Dir() SafePath {
	return SafePath(path.Dir(string(p)))
}

// Base returns the last component of the path.
func (p SafePath) Base() string {
	return path.Base(string(p))
}

// Join appends name to the path.
func (p SafePath) Join(name string) SafePath {
	return SafePath(path.Join(string(p), name))
}

// IsAncestorOf reports whether other lies strictly below p.
func (p SafePath) IsAncestorOf(other SafePath) bool {
	if p == other {
		return false
	}
	if p == "/" {
		return true
	}
	return strings.HasPrefix(string(other), string(p)+"/")
}

// FileMode is a file permission in octal string form, e.g. "644" or "4755".
type FileMode string

// DefaultFileMode is applied to managed files that do not set one.
const DefaultFileMode FileMode = "644"

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FileMode) UnmarshalText(text []byte) error {
	s := string(text)
	if len(s) < 3 || len(s) > 4 {
		return fmt.Errorf("mode %q must be 3 or 4 octal digits", s)
	}
	for _, c := range s {
		if c < '0' || c > '7' {
			return fmt.Errorf("mode %q is not octal", s)
		}
	}
	*m = FileMode(s)
	return nil
}

// bits returns the numeric value including setuid, setgid and sticky.
func (m FileMode) bits() uint32 {
	v, _ := strconv.ParseUint(string(m), 8, 32)
	return uint32(v)
}

// OS converts the mode into the form os.Chmod expects.
func (m FileMode) OS() fs.FileMode {
	v := m.bits()
	mode := fs.FileMode(v & 0o777)
	if v&0o4000 != 0 {
		mode |= fs.ModeSetuid
	}
	if v&0o2000 != 0 {
		mode |= fs.ModeSetgid
	}
	if v&0o1000 != 0 {
		mode |= fs.ModeSticky
	}
	return mode
}

// Matches reports whether the permission bits of an on-disk mode equal m.
func (m FileMode) Matches(mode fs.FileMode) bool {
	v := uint32(mode.Perm())
	if mode&fs.ModeSetuid != 0 {
		v |= 0o4000
	}
	if mode&fs.ModeSetgid != 0 {
		v |= 0o2000
	}
	if mode&fs.ModeSticky != 0 {
		v |= 0o1000
	}
	return v == m.bits()
}

// APIKey is the hex-encoded SHA-256 digest of a client key. Servers store
// and compare digests only; the raw key never appears in declarations.
type APIKey string

// HashKey digests a raw client key into its stored form.
func HashKey(raw string) APIKey {
	sum := sha256.Sum256([]byte(raw))
	return APIKey(hex.EncodeToString(sum[:]))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *APIKey) UnmarshalText(text []byte) error {
	s := string(text)
	if len(s) != 64 {
		return fmt.Errorf("API key hash must be 64 hex characters, got %d", len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return fmt.Errorf("API key hash %q is not hex encoded", s)
	}
	if strings.ToLower(s) != s {
		return fmt.Errorf("API key hash must be lowercase")
	}
	*k = APIKey(s)
	return nil
}

// EnvironmentVariable is one NAME=value assignment placed above a cron job
// entry. A nil value renders as NAME=, an empty value as NAME="".
type EnvironmentVariable struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// Validate checks the variable name.
func (v EnvironmentVariable) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("environment variable names must not be empty")
	}
	return nil
}

// Render formats the assignment as it appears in the cron file.
func (v EnvironmentVariable) Render() string {
	if v.Value == nil {
		return v.Name + "="
	}
	return fmt.Sprintf("%s=%q", v.Name, *v.Value)
}

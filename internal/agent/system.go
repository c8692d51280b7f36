package agent

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

// Administration command paths on a Debian system.
const (
	groupaddCommand  = "/usr/sbin/groupadd"
	groupdelCommand  = "/usr/sbin/groupdel"
	useraddCommand   = "/usr/sbin/useradd"
	usermodCommand   = "/usr/sbin/usermod"
	deluserCommand   = "/usr/sbin/deluser"
	passwdCommand    = "/usr/bin/passwd"
	idCommand        = "/usr/bin/id"
	dpkgQueryCommand = "/usr/bin/dpkg-query"
	aptGetCommand    = "/usr/bin/apt-get"
)

// PasswdEntry is one line of the password database.
type PasswdEntry struct {
	Name    api.Username
	UID     int
	GID     int
	Comment string
	Home    string
	Shell   string
}

// ShadowEntry is the authentication part of one shadow database line.
type ShadowEntry struct {
	Password   string
	ExpiryDays *int64
}

// Locked reports whether the account cannot authenticate by password.
func (e ShadowEntry) Locked() bool {
	return strings.HasPrefix(e.Password, "!") || e.Password == "*"
}

// GroupEntry is one line of the group database.
type GroupEntry struct {
	Name api.Groupname
	GID  int
}

// System is the seam between the appliers and the host. The lookups return
// nil (not an error) when the requested entry does not exist.
type System interface {
	PasswdEntry(name api.Username) (*PasswdEntry, error)
	ShadowEntry(name api.Username) (*ShadowEntry, error)
	GroupEntry(name api.Groupname) (*GroupEntry, error)
	UserGroups(name api.Username) (primary api.Groupname, supplementary []api.Groupname, err error)
	Chown(path string, uid, gid int) error
	Execute(command string, args ...string) (string, error)
	HasCommand(command string) bool
}

// hostSystem is the real host: colon-delimited database files and
// subprocesses.
type hostSystem struct {
	passwdFile string
	shadowFile string
	groupFile  string
}

// NewSystem returns the System of the local host.
func NewSystem() System {
	return &hostSystem{
		passwdFile: "/etc/passwd",
		shadowFile: "/etc/shadow",
		groupFile:  "/etc/group",
	}
}

// scanDatabase finds the first line of a colon-delimited database whose
// first field equals name.
func scanDatabase(path, name string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) > 1 && fields[0] == name {
			return fields, nil
		}
	}
	return nil, nil
}

func (s *hostSystem) PasswdEntry(name api.Username) (*PasswdEntry, error) {
	fields, err := scanDatabase(s.passwdFile, name.String())
	if err != nil || fields == nil {
		return nil, err
	}
	if len(fields) < 7 {
		return nil, fmt.Errorf("malformed passwd entry for %s", name)
	}
	uid, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("malformed uid in passwd entry for %s", name)
	}
	gid, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("malformed gid in passwd entry for %s", name)
	}
	return &PasswdEntry{
		Name:    name,
		UID:     uid,
		GID:     gid,
		Comment: fields[4],
		Home:    fields[5],
		Shell:   fields[6],
	}, nil
}

func (s *hostSystem) ShadowEntry(name api.Username) (*ShadowEntry, error) {
	fields, err := scanDatabase(s.shadowFile, name.String())
	if err != nil || fields == nil {
		return nil, err
	}
	if len(fields) < 8 {
		return nil, fmt.Errorf("malformed shadow entry for %s", name)
	}
	entry := &ShadowEntry{Password: fields[1]}
	if fields[7] != "" {
		days, err := strconv.ParseInt(fields[7], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed expiry in shadow entry for %s", name)
		}
		entry.ExpiryDays = &days
	}
	return entry, nil
}

func (s *hostSystem) GroupEntry(name api.Groupname) (*GroupEntry, error) {
	fields, err := scanDatabase(s.groupFile, name.String())
	if err != nil || fields == nil {
		return nil, err
	}
	if len(fields) < 3 {
		return nil, fmt.Errorf("malformed group entry for %s", name)
	}
	gid, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("malformed gid in group entry for %s", name)
	}
	return &GroupEntry{Name: name, GID: gid}, nil
}

func (s *hostSystem) UserGroups(name api.Username) (api.Groupname, []api.Groupname, error) {
	output, err := s.Execute(idCommand, "--groups", "--name", name.String())
	if err != nil {
		return "", nil, fmt.Errorf("querying group memberships of %s: %w", name, err)
	}
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("querying group memberships of %s: empty response", name)
	}
	primary := api.Groupname(fields[0])
	supplementary := make([]api.Groupname, 0, len(fields)-1)
	for _, field := range fields[1:] {
		supplementary = append(supplementary, api.Groupname(field))
	}
	sort.Slice(supplementary, func(i, j int) bool { return supplementary[i] < supplementary[j] })
	return primary, supplementary, nil
}

func (s *hostSystem) Chown(path string, uid, gid int) error {
	return os.Chown(path, uid, gid)
}

func (s *hostSystem) Execute(command string, args ...string) (string, error) {
	logging.Debug("apply", "executing %s %s", command, strings.Join(args, " "))
	output, err := exec.Command(command, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s failed: %v: %s", command, err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}

func (s *hostSystem) HasCommand(command string) bool {
	info, err := os.Stat(command)
	return err == nil && info.Mode().IsRegular()
}

// requireCommands is the pre-flight check of appliers that shell out: a
// missing binary fails the resource before any partial work happens.
func requireCommands(system System, commands ...string) error {
	for _, command := range commands {
		if !system.HasCommand(command) {
			return fmt.Errorf("%s is not available on this system", command)
		}
	}
	return nil
}

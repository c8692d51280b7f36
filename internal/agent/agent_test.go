package agent

import (
	"fmt"
	"os"
	"strings"

	"pullconf/internal/api"
)

type response struct {
	output string
	err    error
}

// fakeSystem records every mutation instead of touching the host.
type fakeSystem struct {
	users       map[api.Username]*PasswdEntry
	shadows     map[api.Username]*ShadowEntry
	groups      map[api.Groupname]*GroupEntry
	memberships map[api.Username][]api.Groupname
	missing     map[string]bool
	responses   map[string]response
	executed    []string
	chowns      []string
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{
		users:       map[api.Username]*PasswdEntry{},
		shadows:     map[api.Username]*ShadowEntry{},
		groups:      map[api.Groupname]*GroupEntry{},
		memberships: map[api.Username][]api.Groupname{},
		missing:     map[string]bool{},
		responses:   map[string]response{},
	}
}

// withCurrentOwner maps root to the ids of the test process, so files the
// tests create already carry the expected ownership.
func (s *fakeSystem) withCurrentOwner() *fakeSystem {
	s.users[api.RootUser] = &PasswdEntry{Name: api.RootUser, UID: os.Getuid(), GID: os.Getgid()}
	return s
}

func (s *fakeSystem) PasswdEntry(name api.Username) (*PasswdEntry, error) {
	return s.users[name], nil
}

func (s *fakeSystem) ShadowEntry(name api.Username) (*ShadowEntry, error) {
	return s.shadows[name], nil
}

func (s *fakeSystem) GroupEntry(name api.Groupname) (*GroupEntry, error) {
	return s.groups[name], nil
}

func (s *fakeSystem) UserGroups(name api.Username) (api.Groupname, []api.Groupname, error) {
	groups := s.memberships[name]
	if len(groups) == 0 {
		return "", nil, fmt.Errorf("unknown user %s", name)
	}
	return groups[0], groups[1:], nil
}

func (s *fakeSystem) Chown(path string, uid, gid int) error {
	s.chowns = append(s.chowns, fmt.Sprintf("%s %d:%d", path, uid, gid))
	return nil
}

func (s *fakeSystem) Execute(command string, args ...string) (string, error) {
	line := strings.Join(append([]string{command}, args...), " ")
	s.executed = append(s.executed, line)
	if canned, ok := s.responses[line]; ok {
		return canned.output, canned.err
	}
	return "", nil
}

func (s *fakeSystem) HasCommand(command string) bool {
	return !s.missing[command]
}

// fakeAssets serves asset content from memory with the same conditional
// semantics as the server.
type fakeAssets struct {
	content  map[api.SafePath][]byte
	requests []string
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{content: map[api.SafePath][]byte{}}
}

func (f *fakeAssets) Fetch(source api.SafePath, etag string) ([]byte, bool, error) {
	f.requests = append(f.requests, fmt.Sprintf("%s %s", source, etag))
	content, ok := f.content[source]
	if !ok {
		return nil, false, fmt.Errorf("asset %s does not exist", source)
	}
	if etag != "" && etag == contentChecksum(content) {
		return nil, true, nil
	}
	return content, false, nil
}

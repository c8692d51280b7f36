package agent

import (
	"fmt"
	"slices"
	"strings"

	"pullconf/internal/api"
)

func (a *applier) applyUser(user *api.User) (api.Action, error) {
	p := user.Parameters

	entry, err := a.system.PasswdEntry(p.Name)
	if err != nil {
		return api.ActionFailed, err
	}

	if p.Ensure.IsAbsent() {
		if entry == nil {
			return api.ActionUnchanged, nil
		}
		if err := requireCommands(a.system, deluserCommand); err != nil {
			return api.ActionFailed, err
		}
		if _, err := a.system.Execute(deluserCommand, p.Name.String()); err != nil {
			return api.ActionFailed, fmt.Errorf("deleting user `%s`: %w", p.Name, err)
		}
		return api.ActionDeleted, nil
	}

	if entry == nil {
		if err := a.createUser(p); err != nil {
			return api.ActionFailed, err
		}
		return api.ActionCreated, nil
	}
	return a.updateUser(p, entry)
}

// createUser assembles a single useradd invocation. The primary group flags
// depend on whether the group already exists on the host: a known group is
// joined by id, a group named like the user is created alongside the
// account, and anything else is passed through for useradd to reject.
func (a *applier) createUser(p api.UserParameters) error {
	if err := requireCommands(a.system, useraddCommand); err != nil {
		return err
	}

	args := []string{"--create-home", "--home-dir", p.Home.String()}
	if p.System {
		args = append(args, "--system")
	}
	if p.Comment != nil {
		args = append(args, "--comment", *p.Comment)
	}
	if p.Shell != nil {
		args = append(args, "--shell", p.Shell.String())
	}
	if !p.Password.IsLocked() {
		args = append(args, "--password", string(p.Password))
	}

	group, err := a.system.GroupEntry(p.Group)
	if err != nil {
		return err
	}
	switch {
	case group != nil:
		args = append(args, "--no-user-group", "--gid", p.Group.String())
	case p.Group == api.Groupname(p.Name):
		args = append(args, "--user-group")
	default:
		args = append(args, "--gid", p.Group.String())
	}

	if len(p.Groups) > 0 {
		args = append(args, "--groups", joinGroups(p.Groups))
	}

	args = append(args, p.Name.String())
	if _, err := a.system.Execute(useraddCommand, args...); err != nil {
		return fmt.Errorf("creating user `%s`: %w", p.Name, err)
	}
	return nil
}

// updateUser accumulates every drift into one usermod invocation plus an
// optional passwd call for hash changes, so an account converges in at most
// two subprocesses.
func (a *applier) updateUser(p api.UserParameters, entry *PasswdEntry) (api.Action, error) {
	shadow, err := a.system.ShadowEntry(p.Name)
	if err != nil {
		return api.ActionFailed, err
	}
	primary, supplementary, err := a.system.UserGroups(p.Name)
	if err != nil {
		return api.ActionFailed, err
	}

	var args []string

	if p.Comment != nil && entry.Comment != *p.Comment {
		args = append(args, "--comment", *p.Comment)
	}
	if p.Shell != nil && entry.Shell != p.Shell.String() {
		args = append(args, "--shell", p.Shell.String())
	}
	if entry.Home != p.Home.String() {
		args = append(args, "--move-home", "--home", p.Home.String())
	}

	if p.ExpiryDate != nil {
		if shadow == nil || shadow.ExpiryDays == nil || *shadow.ExpiryDays != p.ExpiryDate.DaysSinceEpoch() {
			args = append(args, "--expiredate", p.ExpiryDate.String())
		}
	} else if shadow != nil && shadow.ExpiryDays != nil {
		args = append(args, "--expiredate", "")
	}

	if primary != p.Group {
		args = append(args, "--gid", p.Group.String())
	}
	if !slices.Equal(supplementary, p.Groups) {
		args = append(args, "--groups", joinGroups(p.Groups))
	}

	if shadow != nil {
		if p.Password.IsLocked() && !shadow.Locked() {
			args = append(args, "--lock")
		}
		if !p.Password.IsLocked() && shadow.Locked() {
			args = append(args, "--unlock")
		}
	}

	changed := false

	if len(args) > 0 {
		if err := requireCommands(a.system, usermodCommand); err != nil {
			return api.ActionFailed, err
		}
		args = append(args, p.Name.String())
		if _, err := a.system.Execute(usermodCommand, args...); err != nil {
			return api.ActionFailed, fmt.Errorf("updating user `%s`: %w", p.Name, err)
		}
		changed = true
	}

	if !p.Password.IsLocked() && shadow != nil && !p.Password.Matches(shadow.Password) {
		if err := requireCommands(a.system, passwdCommand); err != nil {
			return api.ActionFailed, err
		}
		if _, err := a.system.Execute(passwdCommand, "--password", string(p.Password), p.Name.String()); err != nil {
			return api.ActionFailed, fmt.Errorf("updating password of user `%s`: %w", p.Name, err)
		}
		changed = true
	}

	if changed {
		return api.ActionChanged, nil
	}
	return api.ActionUnchanged, nil
}

func joinGroups(groups []api.Groupname) string {
	names := make([]string, 0, len(groups))
	for _, group := range groups {
		names = append(names, group.String())
	}
	return strings.Join(names, ",")
}

package agent

import (
	"fmt"

	"pullconf/internal/api"
)

func (a *applier) applyGroup(group *api.Group) (api.Action, error) {
	p := group.Parameters

	entry, err := a.system.GroupEntry(p.Name)
	if err != nil {
		return api.ActionFailed, err
	}

	if p.Ensure.IsAbsent() {
		if entry == nil {
			return api.ActionUnchanged, nil
		}
		if err := requireCommands(a.system, groupdelCommand); err != nil {
			return api.ActionFailed, err
		}
		if _, err := a.system.Execute(groupdelCommand, p.Name.String()); err != nil {
			return api.ActionFailed, fmt.Errorf("deleting group `%s`: %w", p.Name, err)
		}
		return api.ActionDeleted, nil
	}

	if entry != nil {
		return api.ActionUnchanged, nil
	}

	if err := requireCommands(a.system, groupaddCommand); err != nil {
		return api.ActionFailed, err
	}
	args := []string{}
	if p.System {
		args = append(args, "--system")
	}
	args = append(args, p.Name.String())
	if _, err := a.system.Execute(groupaddCommand, args...); err != nil {
		return api.ActionFailed, fmt.Errorf("creating group `%s`: %w", p.Name, err)
	}
	return api.ActionCreated, nil
}

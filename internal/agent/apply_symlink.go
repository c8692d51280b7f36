package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"pullconf/internal/api"
)

func (a *applier) applySymlink(symlink *api.Symlink) (api.Action, error) {
	p := symlink.Parameters
	path := p.Path.String()

	info, err := os.Lstat(path)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return api.ActionFailed, fmt.Errorf("inspecting %s: %w", path, err)
	}

	if p.Ensure.IsAbsent() {
		if missing {
			return api.ActionUnchanged, nil
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			return api.ActionFailed, fmt.Errorf("refusing to delete %s, it is not a symlink", path)
		}
		if err := os.Remove(path); err != nil {
			return api.ActionFailed, fmt.Errorf("deleting %s: %w", path, err)
		}
		return api.ActionDeleted, nil
	}

	if _, err := os.Lstat(p.Target.String()); err != nil {
		return api.ActionFailed, fmt.Errorf("link target %s is not present: %w", p.Target, err)
	}

	if missing {
		if err := os.Symlink(p.Target.String(), path); err != nil {
			return api.ActionFailed, fmt.Errorf("creating %s: %w", path, err)
		}
		return api.ActionCreated, nil
	}

	if info.Mode()&fs.ModeSymlink == 0 {
		return api.ActionFailed, fmt.Errorf("%s exists but is not a symlink", path)
	}

	current, err := os.Readlink(path)
	if err != nil {
		return api.ActionFailed, fmt.Errorf("inspecting %s: %w", path, err)
	}
	if current == p.Target.String() {
		return api.ActionUnchanged, nil
	}

	if err := os.Remove(path); err != nil {
		return api.ActionFailed, fmt.Errorf("replacing %s: %w", path, err)
	}
	if err := os.Symlink(p.Target.String(), path); err != nil {
		return api.ActionFailed, fmt.Errorf("replacing %s: %w", path, err)
	}
	return api.ActionChanged, nil
}

package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

func (a *applier) applyFile(file *api.File) (api.Action, error) {
	p := file.Parameters
	target := p.Path.String()

	info, err := os.Lstat(target)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return api.ActionFailed, fmt.Errorf("inspecting %s: %w", target, err)
	}

	if p.Ensure.IsAbsent() {
		if missing {
			return api.ActionUnchanged, nil
		}
		if !info.Mode().IsRegular() {
			return api.ActionFailed, fmt.Errorf("refusing to delete %s, it is not a regular file", target)
		}
		if err := os.Remove(target); err != nil {
			return api.ActionFailed, fmt.Errorf("deleting %s: %w", target, err)
		}
		return api.ActionDeleted, nil
	}

	uid, gid, err := a.ownership(p.Owner, p.Group)
	if err != nil {
		return api.ActionFailed, err
	}

	if missing {
		if err := a.createFile(p, uid, gid); err != nil {
			return api.ActionFailed, err
		}
		return api.ActionCreated, nil
	}

	if !info.Mode().IsRegular() {
		return api.ActionFailed, fmt.Errorf("%s exists but is not a regular file", target)
	}

	changed := false

	if !p.Mode.Matches(info.Mode()) {
		if err := os.Chmod(target, p.Mode.OS()); err != nil {
			return api.ActionFailed, fmt.Errorf("changing mode of %s: %w", target, err)
		}
		changed = true
	}

	if currentUID, currentGID, ok := fileOwnership(info); ok && (currentUID != uid || currentGID != gid) {
		if err := a.system.Chown(target, uid, gid); err != nil {
			return api.ActionFailed, fmt.Errorf("changing ownership of %s: %w", target, err)
		}
		changed = true
	}

	contentChanged, err := a.reconcileContent(p, target)
	if err != nil {
		return api.ActionFailed, err
	}
	if contentChanged {
		changed = true
	}

	if changed {
		return api.ActionChanged, nil
	}
	return api.ActionUnchanged, nil
}

// createFile writes a new managed file exclusively, then fixes mode and
// ownership. A partial file left behind by a failure is removed so the next
// run starts over cleanly.
func (a *applier) createFile(p api.FileParameters, uid, gid int) error {
	target := p.Path.String()

	handle, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, p.Mode.OS())
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}

	fail := func(err error) error {
		handle.Close()
		os.Remove(target)
		return err
	}

	if p.Content != nil {
		if _, err := handle.WriteString(*p.Content); err != nil {
			return fail(fmt.Errorf("writing %s: %w", target, err))
		}
	} else if p.Source != nil {
		content, _, err := a.assets.Fetch(*p.Source, "")
		if err != nil {
			return fail(err)
		}
		if _, err := handle.Write(content); err != nil {
			return fail(fmt.Errorf("writing %s: %w", target, err))
		}
	}

	if err := handle.Close(); err != nil {
		os.Remove(target)
		return fmt.Errorf("writing %s: %w", target, err)
	}

	// The umask may have masked bits out of the create mode.
	if err := os.Chmod(target, p.Mode.OS()); err != nil {
		os.Remove(target)
		return fmt.Errorf("changing mode of %s: %w", target, err)
	}
	if err := a.system.Chown(target, uid, gid); err != nil {
		os.Remove(target)
		return fmt.Errorf("changing ownership of %s: %w", target, err)
	}
	return nil
}

// reconcileContent brings the content of an existing file in line with the
// declaration. Sourced files go through a conditional asset request keyed by
// the checksum of the local copy, so an unchanged asset transfers nothing.
func (a *applier) reconcileContent(p api.FileParameters, target string) (bool, error) {
	disk, err := os.ReadFile(target)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", target, err)
	}

	switch {
	case p.Content != nil:
		if contentChecksum(disk) == contentChecksum([]byte(*p.Content)) {
			return false, nil
		}
		if err := os.WriteFile(target, []byte(*p.Content), p.Mode.OS()); err != nil {
			return false, fmt.Errorf("writing %s: %w", target, err)
		}
		return true, nil

	case p.Source != nil:
		content, notModified, err := a.assets.Fetch(*p.Source, contentChecksum(disk))
		if err != nil {
			return false, err
		}
		if notModified {
			logging.Debug("apply", "content of %s matches the server copy", target)
			return false, nil
		}
		if err := os.WriteFile(target, content, p.Mode.OS()); err != nil {
			return false, fmt.Errorf("writing %s: %w", target, err)
		}
		return true, nil

	default:
		return false, nil
	}
}

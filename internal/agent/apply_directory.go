package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

func (a *applier) applyDirectory(directory *api.Directory) (api.Action, error) {
	p := directory.Parameters
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
		if !info.IsDir() {
			return api.ActionFailed, fmt.Errorf("refusing to delete %s, it is not a directory", target)
		}
		if err := os.RemoveAll(target); err != nil {
			return api.ActionFailed, fmt.Errorf("deleting %s: %w", target, err)
		}
		return api.ActionDeleted, nil
	}

	uid, gid, err := a.ownership(p.Owner, p.Group)
	if err != nil {
		return api.ActionFailed, err
	}

	if missing {
		if err := os.Mkdir(target, 0o755); err != nil {
			return api.ActionFailed, fmt.Errorf("creating %s: %w", target, err)
		}
		if err := a.system.Chown(target, uid, gid); err != nil {
			return api.ActionFailed, fmt.Errorf("changing ownership of %s: %w", target, err)
		}
		return api.ActionCreated, nil
	}

	if !info.IsDir() {
		return api.ActionFailed, fmt.Errorf("%s exists but is not a directory", target)
	}

	changed := false

	if currentUID, currentGID, ok := fileOwnership(info); ok && (currentUID != uid || currentGID != gid) {
		if err := a.system.Chown(target, uid, gid); err != nil {
			return api.ActionFailed, fmt.Errorf("changing ownership of %s: %w", target, err)
		}
		changed = true
	}

	if p.Purge {
		purged, err := a.purgeDirectory(directory)
		if err != nil {
			return api.ActionFailed, err
		}
		if purged {
			changed = true
		}
	}

	if changed {
		return api.ActionChanged, nil
	}
	return api.ActionUnchanged, nil
}

// purgeDirectory removes every entry the catalog does not record as a
// managed child of the same kind. An entry of the wrong kind, say a
// directory where the catalog expects a file, goes too, so the child's own
// applier can recreate it. Foreign directories go recursively, everything
// else is unlinked.
func (a *applier) purgeDirectory(directory *api.Directory) (bool, error) {
	path := directory.Parameters.Path

	managed := make(map[api.SafePath]api.ChildNode, len(directory.Relationships.Children))
	for _, child := range directory.Relationships.Children {
		managed[child.Path] = child
	}

	entries, err := os.ReadDir(path.String())
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	purged := false
	for _, entry := range entries {
		entryPath := path.Join(entry.Name())
		if child, ok := managed[entryPath]; ok && matchesChildKind(entry, child) {
			continue
		}

		logging.Info("apply", "purging %s from directory `%s`", entryPath, path)
		if entry.IsDir() {
			err = os.RemoveAll(entryPath.String())
		} else {
			err = os.Remove(entryPath.String())
		}
		if err != nil {
			return false, fmt.Errorf("purging %s: %w", entryPath, err)
		}
		purged = true
	}
	return purged, nil
}

// matchesChildKind reports whether an on-disk entry has the type the catalog
// recorded for the child at its path.
func matchesChildKind(entry os.DirEntry, child api.ChildNode) bool {
	switch {
	case child.IsDirectory():
		return entry.IsDir()
	case child.Kind == api.KindSymlink:
		return entry.Type()&fs.ModeSymlink != 0
	default:
		return entry.Type().IsRegular()
	}
}

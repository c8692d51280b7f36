package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"pullconf/internal/api"
)

// applyRenderedFile converges a file whose entire content is rendered from
// resource parameters, which covers apt preferences and cron jobs. The
// compiler guarantees the target path; ownership stays with root and the
// default mode.
func (a *applier) applyRenderedFile(target api.SafePath, ensure api.Ensure, desired string) (api.Action, error) {
	path := target.String()

	info, err := os.Lstat(path)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return api.ActionFailed, fmt.Errorf("inspecting %s: %w", path, err)
	}

	if ensure.IsAbsent() {
		if missing {
			return api.ActionUnchanged, nil
		}
		if !info.Mode().IsRegular() {
			return api.ActionFailed, fmt.Errorf("refusing to delete %s, it is not a regular file", path)
		}
		if err := os.Remove(path); err != nil {
			return api.ActionFailed, fmt.Errorf("deleting %s: %w", path, err)
		}
		return api.ActionDeleted, nil
	}

	if missing {
		handle, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return api.ActionFailed, fmt.Errorf("creating %s: %w", path, err)
		}
		if _, err := handle.WriteString(desired); err != nil {
			handle.Close()
			os.Remove(path)
			return api.ActionFailed, fmt.Errorf("writing %s: %w", path, err)
		}
		if err := handle.Close(); err != nil {
			os.Remove(path)
			return api.ActionFailed, fmt.Errorf("writing %s: %w", path, err)
		}
		return api.ActionCreated, nil
	}

	if !info.Mode().IsRegular() {
		return api.ActionFailed, fmt.Errorf("%s exists but is not a regular file", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return api.ActionFailed, fmt.Errorf("reading %s: %w", path, err)
	}
	if contentChecksum(content) == contentChecksum([]byte(desired)) {
		return api.ActionUnchanged, nil
	}

	if err := replaceFile(path, []byte(desired), info.ModTime()); err != nil {
		return api.ActionFailed, err
	}
	return api.ActionChanged, nil
}

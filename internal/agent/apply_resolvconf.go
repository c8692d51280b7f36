package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

func (a *applier) applyResolvConf(resolvConf *api.ResolvConf) (api.Action, error) {
	p := resolvConf.Parameters
	target := p.Target.String()

	info, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Info("apply", "skipping resolv.conf as %s does not exist", target)
		return api.ActionSkipped, nil
	}
	if err != nil {
		return api.ActionFailed, fmt.Errorf("inspecting %s: %w", target, err)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		return api.ActionFailed, fmt.Errorf("reading %s: %w", target, err)
	}

	if p.Ensure.IsAbsent() {
		if len(content) == 0 {
			return api.ActionUnchanged, nil
		}
		if err := os.Truncate(target, 0); err != nil {
			return api.ActionFailed, fmt.Errorf("truncating %s: %w", target, err)
		}
		return api.ActionDeleted, nil
	}

	desired := p.Render()
	if contentChecksum(content) == contentChecksum([]byte(desired)) {
		return api.ActionUnchanged, nil
	}

	if err := replaceFile(target, []byte(desired), info.ModTime()); err != nil {
		return api.ActionFailed, err
	}
	return api.ActionCreated, nil
}

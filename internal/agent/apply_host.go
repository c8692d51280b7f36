package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"slices"
	"strings"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

func (a *applier) applyHost(host *api.Host) (api.Action, error) {
	p := host.Parameters
	target := p.Target.String()

	info, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Info("apply", "skipping host `%s` as %s does not exist", p.IPAddress, target)
		return api.ActionSkipped, nil
	}
	if err != nil {
		return api.ActionFailed, fmt.Errorf("inspecting %s: %w", target, err)
	}

	content, err := os.ReadFile(target)
	if err != nil {
		return api.ActionFailed, fmt.Errorf("reading %s: %w", target, err)
	}

	lines := strings.Split(string(content), "\n")
	match := -1
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if address, err := netip.ParseAddr(fields[0]); err == nil && address == p.IPAddress {
			match = i
			break
		}
	}

	desired := p.Line()

	if p.Ensure.IsAbsent() {
		if match < 0 {
			return api.ActionUnchanged, nil
		}
		lines = slices.Delete(lines, match, match+1)
		if err := replaceFile(target, []byte(strings.Join(lines, "\n")), info.ModTime()); err != nil {
			return api.ActionFailed, err
		}
		return api.ActionDeleted, nil
	}

	if match < 0 {
		text := string(content)
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += strings.Join(desired, "\t") + "\n"
		if err := replaceFile(target, []byte(text), info.ModTime()); err != nil {
			return api.ActionFailed, err
		}
		return api.ActionCreated, nil
	}

	if slices.Equal(strings.Fields(lines[match]), desired) {
		return api.ActionUnchanged, nil
	}

	lines[match] = strings.Join(desired, "\t")
	if err := replaceFile(target, []byte(strings.Join(lines, "\n")), info.ModTime()); err != nil {
		return api.ActionFailed, err
	}
	return api.ActionChanged, nil
}

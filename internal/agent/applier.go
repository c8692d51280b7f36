package agent

import (
	"fmt"
	"io/fs"
	"syscall"

	"pullconf/internal/api"
)

// assetFetcher is the part of Client the file applier needs. Tests provide
// an in-memory implementation.
type assetFetcher interface {
	Fetch(source api.SafePath, etag string) (content []byte, notModified bool, err error)
}

// applier converges a single resource. Every method is idempotent and
// reports what it did as an api.Action.
type applier struct {
	system System
	assets assetFetcher
}

func newApplier(system System, assets assetFetcher) *applier {
	return &applier{system: system, assets: assets}
}

// apply dispatches to the kind-specific applier of the set variant.
func (a *applier) apply(resource api.Resource) (api.Action, error) {
	switch {
	case resource.AptPackage != nil:
		return a.applyAptPackage(resource.AptPackage)
	case resource.AptPreference != nil:
		p := resource.AptPreference.Parameters
		return a.applyRenderedFile(p.Target, p.Ensure, p.Render())
	case resource.CronJob != nil:
		p := resource.CronJob.Parameters
		return a.applyRenderedFile(p.Target, p.Ensure, p.Render())
	case resource.Directory != nil:
		return a.applyDirectory(resource.Directory)
	case resource.File != nil:
		return a.applyFile(resource.File)
	case resource.Group != nil:
		return a.applyGroup(resource.Group)
	case resource.Host != nil:
		return a.applyHost(resource.Host)
	case resource.ResolvConf != nil:
		return a.applyResolvConf(resource.ResolvConf)
	case resource.Symlink != nil:
		return a.applySymlink(resource.Symlink)
	case resource.User != nil:
		return a.applyUser(resource.User)
	default:
		return api.ActionFailed, fmt.Errorf("resource has no variant set")
	}
}

// ownership resolves the numeric ids a declared owner and optional group
// translate to on this host. Without an explicit group the owner's primary
// group applies.
func (a *applier) ownership(owner api.Username, group *api.Groupname) (uid, gid int, err error) {
	entry, err := a.system.PasswdEntry(owner)
	if err != nil {
		return 0, 0, err
	}
	if entry == nil {
		return 0, 0, fmt.Errorf("user `%s` does not exist", owner)
	}
	uid, gid = entry.UID, entry.GID

	if group != nil {
		groupEntry, err := a.system.GroupEntry(*group)
		if err != nil {
			return 0, 0, err
		}
		if groupEntry == nil {
			return 0, 0, fmt.Errorf("group `%s` does not exist", *group)
		}
		gid = groupEntry.GID
	}
	return uid, gid, nil
}

// fileOwnership reads the numeric owner of an on-disk file.
func fileOwnership(info fs.FileInfo) (uid, gid int, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return int(stat.Uid), int(stat.Gid), true
}

package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pullconf/internal/api"
)

func TestApplyGroup(t *testing.T) {
	t.Run("create system group", func(t *testing.T) {
		system := newFakeSystem()
		a := newApplier(system, newFakeAssets())

		group := api.NewGroup(api.GroupParameters{Ensure: api.Present, Name: "prometheus", System: true})

		action, err := a.applyGroup(group)
		require.NoError(t, err)
		assert.Equal(t, api.ActionCreated, action)
		assert.Equal(t, []string{"/usr/sbin/groupadd --system prometheus"}, system.executed)
	})

	t.Run("existing group is unchanged", func(t *testing.T) {
		system := newFakeSystem()
		system.groups["wheel"] = &GroupEntry{Name: "wheel", GID: 998}
		a := newApplier(system, newFakeAssets())

		action, err := a.applyGroup(api.NewGroup(api.GroupParameters{Ensure: api.Present, Name: "wheel"}))
		require.NoError(t, err)
		assert.Equal(t, api.ActionUnchanged, action)
		assert.Empty(t, system.executed)
	})

	t.Run("absent deletes", func(t *testing.T) {
		system := newFakeSystem()
		system.groups["wheel"] = &GroupEntry{Name: "wheel", GID: 998}
		a := newApplier(system, newFakeAssets())

		action, err := a.applyGroup(api.NewGroup(api.GroupParameters{Ensure: api.Absent, Name: "wheel"}))
		require.NoError(t, err)
		assert.Equal(t, api.ActionDeleted, action)
		assert.Equal(t, []string{"/usr/sbin/groupdel wheel"}, system.executed)
	})

	t.Run("missing binary fails the resource", func(t *testing.T) {
		system := newFakeSystem()
		system.missing[groupaddCommand] = true
		a := newApplier(system, newFakeAssets())

		action, err := a.applyGroup(api.NewGroup(api.GroupParameters{Ensure: api.Present, Name: "wheel"}))
		assert.Error(t, err)
		assert.Equal(t, api.ActionFailed, action)
		assert.Empty(t, system.executed)
	})
}

func userParameters() api.UserParameters {
	return api.UserParameters{
		Ensure:   api.Present,
		Name:     "deploy",
		Home:     "/home/deploy",
		Password: api.LockedPassword,
		Group:    "deploy",
		Groups:   []api.Groupname{},
	}
}

func TestApplyUser(t *testing.T) {
	t.Run("create with own primary group", func(t *testing.T) {
		system := newFakeSystem()
		a := newApplier(system, newFakeAssets())

		p := userParameters()
		p.Groups = []api.Groupname{"adm", "wheel"}
		action, err := a.applyUser(api.NewUser(p))
		require.NoError(t, err)
		assert.Equal(t, api.ActionCreated, action)
		assert.Equal(t, []string{
			"/usr/sbin/useradd --create-home --home-dir /home/deploy --user-group --groups adm,wheel deploy",
		}, system.executed)
	})

	t.Run("create joining an existing primary group", func(t *testing.T) {
		system := newFakeSystem()
		system.groups["operators"] = &GroupEntry{Name: "operators", GID: 2000}
		a := newApplier(system, newFakeAssets())

		p := userParameters()
		p.Group = "operators"
		action, err := a.applyUser(api.NewUser(p))
		require.NoError(t, err)
		assert.Equal(t, api.ActionCreated, action)
		assert.Equal(t, []string{
			"/usr/sbin/useradd --create-home --home-dir /home/deploy --no-user-group --gid operators deploy",
		}, system.executed)
	})

	t.Run("converged account is unchanged", func(t *testing.T) {
		system := newFakeSystem()
		system.users["deploy"] = &PasswdEntry{Name: "deploy", UID: 1000, GID: 1000, Home: "/home/deploy"}
		system.shadows["deploy"] = &ShadowEntry{Password: "!"}
		system.memberships["deploy"] = []api.Groupname{"deploy"}
		a := newApplier(system, newFakeAssets())

		action, err := a.applyUser(api.NewUser(userParameters()))
		require.NoError(t, err)
		assert.Equal(t, api.ActionUnchanged, action)
		assert.Empty(t, system.executed)
	})

	t.Run("drift accumulates one usermod", func(t *testing.T) {
		system := newFakeSystem()
		system.users["deploy"] = &PasswdEntry{Name: "deploy", UID: 1000, GID: 1000, Comment: "old", Home: "/srv/deploy"}
		system.shadows["deploy"] = &ShadowEntry{Password: "!"}
		system.memberships["deploy"] = []api.Groupname{"deploy", "adm"}
		a := newApplier(system, newFakeAssets())

		p := userParameters()
		p.Comment = stringPtr("deployment account")
		p.Groups = []api.Groupname{"wheel"}
		action, err := a.applyUser(api.NewUser(p))
		require.NoError(t, err)
		assert.Equal(t, api.ActionChanged, action)
		assert.Equal(t, []string{
			"/usr/sbin/usermod --comment deployment account --move-home --home /home/deploy --groups wheel deploy",
		}, system.executed)
	})

	t.Run("password hash change goes through passwd", func(t *testing.T) {
		system := newFakeSystem()
		system.users["deploy"] = &PasswdEntry{Name: "deploy", UID: 1000, GID: 1000, Home: "/home/deploy"}
		system.shadows["deploy"] = &ShadowEntry{Password: "$6$stale$hash"}
		system.memberships["deploy"] = []api.Groupname{"deploy"}
		a := newApplier(system, newFakeAssets())

		p := userParameters()
		p.Password = "$6$fresh$hash"
		action, err := a.applyUser(api.NewUser(p))
		require.NoError(t, err)
		assert.Equal(t, api.ActionChanged, action)
		assert.Equal(t, []string{
			"/usr/bin/passwd --password $6$fresh$hash deploy",
		}, system.executed)
	})

	t.Run("locking a live account", func(t *testing.T) {
		system := newFakeSystem()
		system.users["deploy"] = &PasswdEntry{Name: "deploy", UID: 1000, GID: 1000, Home: "/home/deploy"}
		system.shadows["deploy"] = &ShadowEntry{Password: "$6$live$hash"}
		system.memberships["deploy"] = []api.Groupname{"deploy"}
		a := newApplier(system, newFakeAssets())

		action, err := a.applyUser(api.NewUser(userParameters()))
		require.NoError(t, err)
		assert.Equal(t, api.ActionChanged, action)
		assert.Equal(t, []string{"/usr/sbin/usermod --lock deploy"}, system.executed)
	})

	t.Run("absent deletes", func(t *testing.T) {
		system := newFakeSystem()
		system.users["deploy"] = &PasswdEntry{Name: "deploy", UID: 1000, GID: 1000}
		a := newApplier(system, newFakeAssets())

		p := userParameters()
		p.Ensure = api.Absent
		action, err := a.applyUser(api.NewUser(p))
		require.NoError(t, err)
		assert.Equal(t, api.ActionDeleted, action)
		assert.Equal(t, []string{"/usr/sbin/deluser deploy"}, system.executed)
	})
}

func packageVersion(s string) *api.PackageVersion {
	v := api.PackageVersion(s)
	return &v
}

func TestApplyAptPackage(t *testing.T) {
	probe := "/usr/bin/dpkg-query -W -f ${VERSION} vim"

	t.Run("install missing package", func(t *testing.T) {
		system := newFakeSystem()
		system.responses[probe] = response{err: errors.New("no packages found matching vim")}
		a := newApplier(system, newFakeAssets())

		pkg := api.NewAptPackage(api.AptPackageParameters{Ensure: api.PackagePresent, Name: "vim"})
		action, err := a.applyAptPackage(pkg)
		require.NoError(t, err)
		assert.Equal(t, api.ActionCreated, action)
		assert.Equal(t, "/usr/bin/apt-get install vim --quiet --quiet --yes", system.executed[1])
	})

	t.Run("version drift reinstalls", func(t *testing.T) {
		system := newFakeSystem()
		system.responses[probe] = response{output: "2:9.0.1-1"}
		a := newApplier(system, newFakeAssets())

		pkg := api.NewAptPackage(api.AptPackageParameters{
			Ensure: api.PackagePresent, Name: "vim", Version: packageVersion("2:9.1.0-1"),
		})
		action, err := a.applyAptPackage(pkg)
		require.NoError(t, err)
		assert.Equal(t, api.ActionChanged, action)
		assert.Equal(t, "/usr/bin/apt-get install vim=2:9.1.0-1 --quiet --quiet --yes", system.executed[1])
	})

	t.Run("matching version is unchanged", func(t *testing.T) {
		system := newFakeSystem()
		system.responses[probe] = response{output: "2:9.1.0-1"}
		a := newApplier(system, newFakeAssets())

		pkg := api.NewAptPackage(api.AptPackageParameters{
			Ensure: api.PackagePresent, Name: "vim", Version: packageVersion("2:9.1.0-1"),
		})
		action, err := a.applyAptPackage(pkg)
		require.NoError(t, err)
		assert.Equal(t, api.ActionUnchanged, action)
		assert.Len(t, system.executed, 1)
	})

	t.Run("purge removes configuration", func(t *testing.T) {
		system := newFakeSystem()
		system.responses[probe] = response{output: "2:9.1.0-1"}
		a := newApplier(system, newFakeAssets())

		pkg := api.NewAptPackage(api.AptPackageParameters{Ensure: api.PackagePurged, Name: "vim"})
		action, err := a.applyAptPackage(pkg)
		require.NoError(t, err)
		assert.Equal(t, api.ActionDeleted, action)
		assert.Equal(t, "/usr/bin/apt-get remove --purge vim --quiet --quiet --yes", system.executed[1])
	})

	t.Run("absent missing package is unchanged", func(t *testing.T) {
		system := newFakeSystem()
		system.responses[probe] = response{err: errors.New("no packages found matching vim")}
		a := newApplier(system, newFakeAssets())

		pkg := api.NewAptPackage(api.AptPackageParameters{Ensure: api.PackageAbsent, Name: "vim"})
		action, err := a.applyAptPackage(pkg)
		require.NoError(t, err)
		assert.Equal(t, api.ActionUnchanged, action)
	})
}

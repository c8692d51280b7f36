package agent

import (
	"net/netip"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pullconf/internal/api"
)

func hostEntry(t *testing.T, target api.SafePath, ensure api.Ensure) *api.Host {
	t.Helper()
	return api.NewHost(api.HostParameters{
		Ensure:    ensure,
		Target:    target,
		IPAddress: netip.MustParseAddr("10.0.0.5"),
		Hostname:  "db-1.example.com",
		Aliases:   []api.Hostname{"db-1"},
	})
}

func TestApplyHost(t *testing.T) {
	a := newApplier(newFakeSystem(), newFakeAssets())

	t.Run("missing target is skipped", func(t *testing.T) {
		action, err := a.applyHost(hostEntry(t, tempPath(t, "hosts"), api.Present))
		require.NoError(t, err)
		assert.Equal(t, api.ActionSkipped, action)
	})

	t.Run("append without trailing newline", func(t *testing.T) {
		target := tempPath(t, "hosts")
		require.NoError(t, os.WriteFile(target.String(), []byte("127.0.0.1\tlocalhost"), 0o644))

		action, err := a.applyHost(hostEntry(t, target, api.Present))
		require.NoError(t, err)
		assert.Equal(t, api.ActionCreated, action)

		content, err := os.ReadFile(target.String())
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1\tlocalhost\n10.0.0.5\tdb-1.example.com\tdb-1\n", string(content))
	})

	t.Run("full match is unchanged", func(t *testing.T) {
		target := tempPath(t, "hosts")
		require.NoError(t, os.WriteFile(target.String(), []byte("10.0.0.5 db-1.example.com db-1\n"), 0o644))

		action, err := a.applyHost(hostEntry(t, target, api.Present))
		require.NoError(t, err)
		assert.Equal(t, api.ActionUnchanged, action)
	})

	t.Run("partial match rewrites the line", func(t *testing.T) {
		target := tempPath(t, "hosts")
		require.NoError(t, os.WriteFile(target.String(), []byte("127.0.0.1\tlocalhost\n10.0.0.5\tdb-1.example.com\n"), 0o644))

		action, err := a.applyHost(hostEntry(t, target, api.Present))
		require.NoError(t, err)
		assert.Equal(t, api.ActionChanged, action)

		content, err := os.ReadFile(target.String())
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1\tlocalhost\n10.0.0.5\tdb-1.example.com\tdb-1\n", string(content))
	})

	t.Run("absent drops the matching line", func(t *testing.T) {
		target := tempPath(t, "hosts")
		require.NoError(t, os.WriteFile(target.String(), []byte("10.0.0.5\tstale-name\n127.0.0.1\tlocalhost\n"), 0o644))

		action, err := a.applyHost(hostEntry(t, target, api.Absent))
		require.NoError(t, err)
		assert.Equal(t, api.ActionDeleted, action)

		content, err := os.ReadFile(target.String())
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1\tlocalhost\n", string(content))

		action, err = a.applyHost(hostEntry(t, target, api.Absent))
		require.NoError(t, err)
		assert.Equal(t, api.ActionUnchanged, action)
	})
}

func TestApplyResolvConf(t *testing.T) {
	a := newApplier(newFakeSystem(), newFakeAssets())

	parameters := api.ResolvConfParameters{
		Ensure:      api.Present,
		Nameservers: []netip.Addr{netip.MustParseAddr("10.0.0.2")},
		Search:      []api.Hostname{"example.com"},
	}

	t.Run("missing target is skipped", func(t *testing.T) {
		p := parameters
		p.Target = tempPath(t, "resolv.conf")
		action, err := a.applyResolvConf(api.NewResolvConf(p))
		require.NoError(t, err)
		assert.Equal(t, api.ActionSkipped, action)
	})

	t.Run("rewrites drifted content", func(t *testing.T) {
		p := parameters
		p.Target = tempPath(t, "resolv.conf")
		require.NoError(t, os.WriteFile(p.Target.String(), []byte("nameserver 1.1.1.1\n"), 0o644))

		action, err := a.applyResolvConf(api.NewResolvConf(p))
		require.NoError(t, err)
		assert.Equal(t, api.ActionCreated, action)

		content, err := os.ReadFile(p.Target.String())
		require.NoError(t, err)
		assert.Equal(t, "nameserver 10.0.0.2\nsearch example.com\n", string(content))

		action, err = a.applyResolvConf(api.NewResolvConf(p))
		require.NoError(t, err)
		assert.Equal(t, api.ActionUnchanged, action)
	})

	t.Run("absent truncates", func(t *testing.T) {
		p := parameters
		p.Ensure = api.Absent
		p.Target = tempPath(t, "resolv.conf")
		require.NoError(t, os.WriteFile(p.Target.String(), []byte("nameserver 1.1.1.1\n"), 0o644))

		action, err := a.applyResolvConf(api.NewResolvConf(p))
		require.NoError(t, err)
		assert.Equal(t, api.ActionDeleted, action)

		content, err := os.ReadFile(p.Target.String())
		require.NoError(t, err)
		assert.Empty(t, content)

		action, err = a.applyResolvConf(api.NewResolvConf(p))
		require.NoError(t, err)
		assert.Equal(t, api.ActionUnchanged, action)
	})
}

func TestApplyRenderedFile(t *testing.T) {
	a := newApplier(newFakeSystem(), newFakeAssets())

	job := api.CronJobParameters{
		Ensure:   api.Present,
		Name:     "vacuum",
		Schedule: "@daily",
		User:     api.RootUser,
		Command:  "vacuumdb --all",
	}

	t.Run("cron job lifecycle", func(t *testing.T) {
		target := tempPath(t, "vacuum")

		action, err := a.applyRenderedFile(target, job.Ensure, job.Render())
		require.NoError(t, err)
		assert.Equal(t, api.ActionCreated, action)

		content, err := os.ReadFile(target.String())
		require.NoError(t, err)
		assert.Equal(t, "@daily root vacuumdb --all\n", string(content))

		action, err = a.applyRenderedFile(target, job.Ensure, job.Render())
		require.NoError(t, err)
		assert.Equal(t, api.ActionUnchanged, action)

		changed := job
		changed.Schedule = "@hourly"
		action, err = a.applyRenderedFile(target, changed.Ensure, changed.Render())
		require.NoError(t, err)
		assert.Equal(t, api.ActionChanged, action)

		action, err = a.applyRenderedFile(target, api.Absent, changed.Render())
		require.NoError(t, err)
		assert.Equal(t, api.ActionDeleted, action)

		action, err = a.applyRenderedFile(target, api.Absent, changed.Render())
		require.NoError(t, err)
		assert.Equal(t, api.ActionUnchanged, action)
	})

	t.Run("preference stanza", func(t *testing.T) {
		target := tempPath(t, "stable")
		preference := api.AptPreferenceParameters{
			Ensure:      api.Present,
			Name:        "stable",
			Package:     "*",
			Pin:         "release a=stable",
			PinPriority: 900,
		}

		action, err := a.applyRenderedFile(target, preference.Ensure, preference.Render())
		require.NoError(t, err)
		assert.Equal(t, api.ActionCreated, action)

		content, err := os.ReadFile(target.String())
		require.NoError(t, err)
		assert.Equal(t, "Package: *\nPin: release a=stable\nPin-Priority: 900\n", string(content))
	})
}

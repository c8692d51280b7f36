package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHostname(t *testing.T) {
	t.Run("accepts valid names", func(t *testing.T) {
		for _, s := range []string{"web01", "web01.example.com", "a.b.c", "x-1.example.com"} {
			_, err := NewHostname(s)
			assert.NoError(t, err, s)
		}
	})

	t.Run("rejects invalid names", func(t *testing.T) {
		for _, s := range []string{
			"",
			".example.com",
			"web01..example.com",
			"-web01.example.com",
			"web01-.example.com",
			"web_01.example.com",
			"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.example.com",
		} {
			_, err := NewHostname(s)
			assert.Error(t, err, s)
		}
	})
}

func TestUsernameValidation(t *testing.T) {
	var u Username

	for _, s := range []string{"root", "www-data", "_apt", "deploy2"} {
		assert.NoError(t, u.UnmarshalText([]byte(s)), s)
	}

	for _, s := range []string{"", "2bad", "bad name", "über", "averyveryverylongusernameover32chars"} {
		assert.Error(t, u.UnmarshalText([]byte(s)), s)
	}
}

func TestPreferenceNameValidation(t *testing.T) {
	var n PreferenceName

	assert.NoError(t, n.UnmarshalText([]byte("99-pin.stable")))
	assert.NoError(t, n.UnmarshalText([]byte("nginx_org")))
	assert.Error(t, n.UnmarshalText([]byte("")))
	assert.Error(t, n.UnmarshalText([]byte("bad/name")))
}

func TestCronJobNameValidation(t *testing.T) {
	var n CronJobName

	assert.NoError(t, n.UnmarshalText([]byte("certbot-renew")))
	assert.Error(t, n.UnmarshalText([]byte("")))
	assert.Error(t, n.UnmarshalText([]byte("backup.daily")))
}

package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordUnmarshalText(t *testing.T) {
	t.Run("normalizes locked forms", func(t *testing.T) {
		for _, s := range []string{"!", "*", "!$6$salt$hash"} {
			var p Password
			require.NoError(t, p.UnmarshalText([]byte(s)), s)
			assert.Equal(t, LockedPassword, p)
			assert.True(t, p.IsLocked())
		}
	})

	t.Run("accepts supported crypt hashes", func(t *testing.T) {
		for _, s := range []string{
			"$6$rounds=5000$salt$hash",
			"$5$salt$hash",
			"$y$j9T$salt$hash",
			"$2b$10$salt",
		} {
			var p Password
			require.NoError(t, p.UnmarshalText([]byte(s)), s)
			assert.False(t, p.IsLocked())
		}
	})

	t.Run("rejects plaintext and unknown schemes", func(t *testing.T) {
		for _, s := range []string{"hunter2", "$1$md5$legacy", ""} {
			var p Password
			assert.Error(t, p.UnmarshalText([]byte(s)), s)
		}
	})
}

func TestPasswordMatches(t *testing.T) {
	assert.True(t, LockedPassword.Matches("!"))
	assert.True(t, LockedPassword.Matches("*"))
	assert.True(t, LockedPassword.Matches("!$6$salt$hash"))
	assert.False(t, LockedPassword.Matches("$6$salt$hash"))

	hash := Password("$6$salt$hash")
	assert.True(t, hash.Matches("$6$salt$hash"))
	assert.False(t, hash.Matches("$6$other$hash"))
}

func TestExpiryDate(t *testing.T) {
	var d ExpiryDate
	require.NoError(t, d.UnmarshalText([]byte("2027-01-31")))
	assert.Error(t, d.UnmarshalText([]byte("31.01.2027")))
	assert.Error(t, d.UnmarshalText([]byte("2027-13-01")))

	epoch := ExpiryDate("1970-01-02")
	assert.Equal(t, int64(1), epoch.DaysSinceEpoch())
}

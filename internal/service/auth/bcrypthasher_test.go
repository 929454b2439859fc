package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{}

	t.Run("hash password", func(t *testing.T) {
		got, err := h.Hash("password")
		require.NoError(t, err)

		require.Len(t, got, 60, "bcrypt output is always 60 letters")
		require.Equal(t, "$2a$", got[:4], "bcrypt hash should have prefix '$2a$'")
	})

	t.Run("cost factor is 12", func(t *testing.T) {
		got, err := h.Hash("password")
		require.NoError(t, err)

		require.Equal(t, "$2a$12$", got[:7], "hash should record cost 12")
	})

	t.Run("compare password ok", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "password")

		require.NoError(t, err)
	})

	t.Run("fail compare if wrong password", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "wrong")

		require.Error(t, err)
	})

	t.Run("fail compare on malformed stored hash", func(t *testing.T) {
		err := h.Compare("certainly-not-a-bcrypt-hash", "password")

		require.Error(t, err, "malformed hash must fail the compare, not panic")
	})

	t.Run("long passwords are not truncated", func(t *testing.T) {
		long := strings72x2()
		hash, err := h.Hash(long)
		require.NoError(t, err)

		require.NoError(t, h.Compare(hash, long))
		require.Error(t, h.Compare(hash, long[:72]), "prefix of a long password must not match")
	})
}

// 144 byte password, twice the raw bcrypt input limit
func strings72x2() string {
	b := make([]byte, 144)
	for i := range b {
		b[i] = byte('a' + i%26)
	}
	return string(b)
}

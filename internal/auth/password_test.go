package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)

	passwords := []string{"pw", "hunter2", "correct horse battery staple", "päßwörd"}
	for _, pw := range passwords {
		digest, err := hasher.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, digest)

		assert.True(t, hasher.Verify(pw, digest), "original password must verify")
		assert.False(t, hasher.Verify(pw+"x", digest), "other passwords must not verify")
	}
}

func TestBcryptHasher_VerifyGarbageDigest(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)
	assert.False(t, hasher.Verify("pw", "not-a-bcrypt-digest"))
}

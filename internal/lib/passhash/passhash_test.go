package passhash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoor832/ColdMailAI-sub001/internal/lib/passhash"
)

func TestHashVerify(t *testing.T) {
	hash, err := passhash.Hash("secret1")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, passhash.Verify("secret1", hash))
	assert.False(t, passhash.Verify("secret2", hash))
	assert.False(t, passhash.Verify("", hash))
}

func TestHashIsSalted(t *testing.T) {
	first, err := passhash.Hash("secret1")
	require.NoError(t, err)

	second, err := passhash.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "same password must not hash to the same digest")

	assert.True(t, passhash.Verify("secret1", first))
	assert.True(t, passhash.Verify("secret1", second))
}

func TestVerifyGarbageHash(t *testing.T) {
	assert.False(t, passhash.Verify("secret1", nil))
	assert.False(t, passhash.Verify("secret1", []byte("not a bcrypt digest")))
}

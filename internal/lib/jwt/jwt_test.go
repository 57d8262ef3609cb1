package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoor832/ColdMailAI-sub001/internal/lib/jwt"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := jwt.NewSessionToken(42, "test-secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	accountID, err := jwt.ParseSessionToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), accountID)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := jwt.NewSessionToken(42, "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = jwt.ParseSessionToken(token, "other-secret")
	assert.Error(t, err)
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := jwt.NewSessionToken(42, "test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = jwt.ParseSessionToken(token, "test-secret")
	assert.Error(t, err)
}

func TestSessionTokenTampered(t *testing.T) {
	token, err := jwt.NewSessionToken(42, "test-secret", time.Hour)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"

	_, err = jwt.ParseSessionToken(tampered, "test-secret")
	assert.Error(t, err)
}

package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func TestGenerateAndValidateAccessToken(t *testing.T) {
	token, err := GenerateAccessToken(7, "alice", "USER", testSecret, 15)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateAccessToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, "library-management-system", claims.Issuer)
}

func TestValidateExpiredToken(t *testing.T) {
	token, err := GenerateAccessToken(7, "alice", "USER", testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(7, "alice", "USER", testSecret, 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateGarbageToken(t *testing.T) {
	_, err := ValidateAccessToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

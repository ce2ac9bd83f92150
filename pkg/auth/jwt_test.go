package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateToken(userID, "analyst@fraudwatch.io", "analyst", "secret", "fraudwatch", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "analyst@fraudwatch.io", claims.Email)
	assert.Equal(t, "analyst", claims.Role)
	assert.Equal(t, "fraudwatch", claims.Issuer)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "analyst@fraudwatch.io", "analyst", "secret", "fraudwatch", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "analyst@fraudwatch.io", "analyst", "secret", "fraudwatch", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.Error(t, err)
}

func TestValidateTokenMissingEmail(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "", "analyst", "secret", "fraudwatch", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token", "secret")
	assert.Error(t, err)
}

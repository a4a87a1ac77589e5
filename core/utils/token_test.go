package utils

import (
	"testing"

	"biocard-api/core/config"
	"biocard-api/core/constants"
	"biocard-api/core/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	config.Set(&config.Config{
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
	})
	t.Cleanup(func() { config.Set(nil) })
}

func TestTokenRoundTrip(t *testing.T) {
	setTestConfig(t)
	userID := uuid.New()

	token, err := GenerateToken(userID, "owner@example.com", constants.ScopeTokenAccess)
	require.NoError(t, err)

	data, appErr := ValidateAndParseToken(token)
	require.Nil(t, appErr)
	assert.Equal(t, userID, data.UserID)
	assert.Equal(t, "owner@example.com", data.Email)
	assert.Equal(t, constants.ScopeTokenAccess, data.Scope)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	setTestConfig(t)

	token, err := GenerateToken(uuid.New(), "owner@example.com", constants.ScopeTokenAccess)
	require.NoError(t, err)

	config.Set(&config.Config{JWT: config.JWTConfig{Secret: "other-secret", AccessTokenTTL: 1}})

	_, appErr := ValidateAndParseToken(token)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidTokenFormat, appErr.Code)
}

func TestValidateToken_Garbage(t *testing.T) {
	setTestConfig(t)

	_, appErr := ValidateAndParseToken("not-a-jwt")
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidTokenFormat, appErr.Code)
}

func TestGenerateBookingReference(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ref := GenerateBookingReference()
		require.Len(t, ref, 10)
		assert.False(t, seen[ref], "references must not repeat")
		seen[ref] = true
	}
}

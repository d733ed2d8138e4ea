package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "worksheet-auth", "authenticated")

	token, err := m.GenerateToken("user-1", "a@example.com", "authenticated", time.Hour)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject())
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("secret", "", "")

	token, err := m.GenerateToken("user-1", "", "", -time.Minute)
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret", "", "").GenerateToken("user-1", "", "", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTManager("other", "", "").ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_SubjectFallback(t *testing.T) {
	c := &Claims{}
	c.RegisteredClaims.Subject = " sub-42 "
	assert.Equal(t, "sub-42", c.Subject())

	c.UserID = "explicit"
	assert.Equal(t, "explicit", c.Subject())
}

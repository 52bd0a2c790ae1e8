package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Minute, "party-lifecycle")
	tok, exp, err := m.GenerateAccessToken("u-1", "master")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := m.ParseAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "master", claims.Role)
}

func TestJWTRejectsForeignSecretAndExpiry(t *testing.T) {
	tok, _, err := NewJWTManager("other", time.Minute, "x").GenerateAccessToken("u-1", "admin")
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Minute, "x").ParseAccessToken(tok)
	assert.Error(t, err)

	expired, _, err := NewJWTManager("secret", -time.Minute, "x").GenerateAccessToken("u-1", "admin")
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Minute, "x").ParseAccessToken(expired)
	assert.Error(t, err)
}

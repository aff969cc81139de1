package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := NewAdminToken("secret", time.Hour, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), tok.Exp, time.Second)

	claims, err := ParseToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims["role"])
	assert.Equal(t, "admin", claims["sub"])
}

func TestParseToken_Rejects(t *testing.T) {
	tok, err := NewAdminToken("secret", time.Hour, time.Now())
	require.NoError(t, err)
	_, err = ParseToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAdminToken("secret", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseToken("secret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"role": RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken("secret", none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewAdminToken("", time.Hour, time.Now())
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("familia2026", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "familia2026"))
	assert.False(t, VerifyPassword(hash, "familia2025"))
	assert.False(t, VerifyPassword("not-a-hash", "familia2026"))

	_, err = HashPassword("", bcrypt.MinCost)
	assert.Error(t, err)
}

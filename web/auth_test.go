package web

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"justbot/config"
)

func newTestAuth(secret string) *Auth {
	return NewAuth(&config.Config{JWTSecret: secret}, nil, nil, nil)
}

func TestIssueAndParseToken(t *testing.T) {
	auth := newTestAuth("test-secret")

	discordID := int64(123456789)
	token, err := auth.IssueToken("tester", &discordID, []int64{100, 200}, false)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "tester", claims.Username)
	require.NotNil(t, claims.DiscordUserID)
	assert.Equal(t, discordID, *claims.DiscordUserID)
	assert.Equal(t, []int64{100, 200}, claims.ManagedGuildIDs)
	assert.False(t, claims.SuperAdmin)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := newTestAuth("secret-a").IssueToken("tester", nil, nil, false)
	require.NoError(t, err)

	_, err = newTestAuth("secret-b").ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := newTestAuth("test-secret")

	claims := Claims{
		Username: "tester",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "tester",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.jwtSecret)
	require.NoError(t, err)

	_, err = auth.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsUnsignedAlg(t *testing.T) {
	auth := newTestAuth("test-secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Username: "tester", SuperAdmin: true}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.ParseToken(token)
	assert.Error(t, err)
}

func TestClaimsCanManage(t *testing.T) {
	claims := &Claims{ManagedGuildIDs: []int64{10, 20}}
	assert.True(t, claims.CanManage(10))
	assert.False(t, claims.CanManage(30))

	super := &Claims{SuperAdmin: true}
	assert.True(t, super.CanManage(999))
}

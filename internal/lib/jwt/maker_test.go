package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestJWTMaker_GenerateAndParseToken(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(testSecret, tokenTTL, "cropyield")

	for _, username := range []string{"alice", "user@domain.com", "user123", "юзер"} {
		t.Run(username, func(t *testing.T) {
			token, err := maker.GenerateToken(username)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, username, claims.Username)
			assert.Equal(t, username, claims.Subject)
			assert.Equal(t, "cropyield", claims.Issuer)
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 2*time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, 2*time.Second)
		})
	}
}

func TestJWTMaker_UniqueTokenIDs(t *testing.T) {
	maker := NewJWTMaker(testSecret, time.Minute, "cropyield")

	first, err := maker.GenerateToken("alice")
	require.NoError(t, err)
	second, err := maker.GenerateToken("alice")
	require.NoError(t, err)

	c1, err := maker.ParseToken(first)
	require.NoError(t, err)
	c2, err := maker.ParseToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute, "cropyield")

	validToken, err := maker.GenerateToken("testuser")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: mustToken(t, NewJWTMaker(testSecret, -time.Hour, "cropyield"))},
		{name: "wrong secret key", token: mustToken(t, NewJWTMaker("wrong_secret_key", time.Minute, "cropyield"))},
		{name: "wrong issuer", token: mustToken(t, NewJWTMaker(testSecret, time.Minute, "someone-else"))},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "none algorithm", token: noneToken(t)},
		{name: "no expiry", token: signRaw(t, jwt.SigningMethodHS256, CustomClaims{
			Username:         "testuser",
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "cropyield"},
		})},
		{name: "no username", token: signRaw(t, jwt.SigningMethodHS256, CustomClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "cropyield",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		})},
		{name: "HS512 is rejected", token: signRaw(t, jwt.SigningMethodHS512, CustomClaims{
			Username: "testuser",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "cropyield",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_ExpiredTokenError(t *testing.T) {
	maker := NewJWTMaker(testSecret, -time.Minute, "cropyield")
	token := mustToken(t, maker)

	_, err := maker.ParseToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func mustToken(t *testing.T, m *MakerImpl) string {
	t.Helper()
	token, err := m.GenerateToken("testuser")
	require.NoError(t, err)
	return token
}

func signRaw(t *testing.T, method jwt.SigningMethod, claims CustomClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func noneToken(t *testing.T) string {
	t.Helper()
	claims := CustomClaims{
		Username: "testuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "cropyield",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

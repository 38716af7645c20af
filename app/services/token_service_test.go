package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-32-chars"

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		ttl         time.Duration
		secretKey   string
		expectError bool
	}{
		{name: "valid configuration", ttl: 15 * time.Minute, secretKey: testSecret},
		{name: "missing secret key", ttl: 15 * time.Minute, expectError: true},
		{name: "zero ttl falls back to default", secretKey: testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(tt.ttl, "test-issuer", tt.secretKey)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, service)
		})
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	service, err := NewTokenService(15*time.Minute, "test-issuer", testSecret)
	require.NoError(t, err)

	token, expiresAt, err := service.GenerateAdminToken("admin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := service.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.NotEmpty(t, claims.TokenID)
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
}

func TestValidateAdminTokenRejects(t *testing.T) {
	service, err := NewTokenService(15*time.Minute, "test-issuer", testSecret)
	require.NoError(t, err)

	sign := func(claims jwt.RegisteredClaims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	now := time.Now()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "garbage", token: "not-a-token", want: ErrTokenInvalid},
		{
			name: "expired",
			token: sign(jwt.RegisteredClaims{
				Subject:   "admin",
				Issuer:    "test-issuer",
				IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			}, jwt.SigningMethodHS256, []byte(testSecret)),
			want: ErrTokenExpired,
		},
		{
			name: "wrong secret",
			token: sign(jwt.RegisteredClaims{
				Subject:   "admin",
				Issuer:    "test-issuer",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}, jwt.SigningMethodHS256, []byte("another-secret-key-that-is-long-enough")),
			want: ErrTokenInvalid,
		},
		{
			name: "wrong issuer",
			token: sign(jwt.RegisteredClaims{
				Subject:   "admin",
				Issuer:    "someone-else",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}, jwt.SigningMethodHS256, []byte(testSecret)),
			want: ErrTokenInvalid,
		},
		{
			name: "different algorithm",
			token: sign(jwt.RegisteredClaims{
				Subject:   "admin",
				Issuer:    "test-issuer",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}, jwt.SigningMethodHS512, []byte(testSecret)),
			want: ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateAdminToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, claims)
		})
	}
}

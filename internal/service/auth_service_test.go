package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatform/internal/config"
	"chatform/internal/model"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		Username:  "admin",
		Password:  "hunter2",
		OwnerID:   "owner-1",
	}
}

func TestLoginAndValidate(t *testing.T) {
	svc := NewAuthService(testAuthConfig())

	resp, err := svc.Login("admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", resp.OwnerID)

	claims, err := svc.ValidateOwnerToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.OwnerID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(testAuthConfig())
	_, err := svc.Login("admin", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateRejectsOtherSecret(t *testing.T) {
	other := testAuthConfig()
	other.JWTSecret = "another-secret"
	resp, err := NewAuthService(other).Login("admin", "hunter2")
	require.NoError(t, err)

	_, err = NewAuthService(testAuthConfig()).ValidateOwnerToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewAuthService(testAuthConfig())
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	resp, err := svc.Login("admin", "hunter2")
	require.NoError(t, err)

	_, err = svc.ValidateOwnerToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	claims := &model.OwnerClaims{OwnerID: "owner-1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewAuthService(testAuthConfig()).ValidateOwnerToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

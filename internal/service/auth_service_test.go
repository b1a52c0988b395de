package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestIssueAndValidateToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "timetable"})

	token, expiresAt, err := svc.IssueToken("u1", models.RoleAdmin, "admin@example.com", "Admin")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "timetable"})

	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "timetable"})
	forged, _, err := other.IssueToken("u1", models.RoleAdmin, "", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	foreign := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "elsewhere"})
	wrongIssuer, _, err := foreign.IssueToken("u1", models.RoleAdmin, "", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(wrongIssuer)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	expired := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "timetable", AccessTokenExpiry: time.Minute})
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.IssueToken("u1", models.RoleAdmin, "", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(stale)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unsigned)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

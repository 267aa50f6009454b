package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/employee"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_AccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, expiresAt, err := svc.GenerateAccessToken("emp-1", employee.RoleAdmin)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims["employee_id"])
	assert.Equal(t, "admin", claims["role"])
	assert.Equal(t, TokenTypeAccess, claims["type"])

	_, err = svc.ValidateSSEToken(token)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestJWTService_SSEToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, expiresIn, err := svc.GenerateSSEToken("emp-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	id, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", id)

	other := NewJWTService("other-secret", time.Hour)
	_, err = other.ValidateSSEToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateSSEToken("garbage")
	assert.Error(t, err)
}

func TestJWTService_ExpiredSSEToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := svc.GenerateSSEToken("emp-1")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateSSEToken(token)
	assert.Error(t, err)
}
